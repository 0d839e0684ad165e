package spice

import (
	"testing"

	"github.com/sprice/spice-client/internal/spice/agent"
	"github.com/sprice/spice-client/internal/spice/playback"
)

func TestClipboardTypeAliasesMatchAgentPackage(t *testing.T) {
	cases := []struct {
		name string
		got  ClipboardType
		want agent.ClipboardType
	}{
		{"None", ClipboardNone, agent.ClipboardNone},
		{"UTF8Text", ClipboardUTF8Text, agent.ClipboardUTF8Text},
		{"PNG", ClipboardPNG, agent.ClipboardPNG},
		{"BMP", ClipboardBMP, agent.ClipboardBMP},
		{"TIFF", ClipboardTIFF, agent.ClipboardTIFF},
		{"JPG", ClipboardJPG, agent.ClipboardJPG},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestAudioStartAliasMatchesPlaybackPackage(t *testing.T) {
	var a AudioStart
	var b playback.Start
	a.Channels, b.Channels = 2, 2
	a.Frequency, b.Frequency = 44100, 44100
	if a != b {
		t.Fatalf("AudioStart is not structurally identical to playback.Start: %+v vs %+v", a, b)
	}
}
