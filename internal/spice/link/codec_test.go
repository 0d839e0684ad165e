package link

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Magic: Magic, MajorVersion: MajorVersion, MinorVersion: MinorVersion, Size: 42}
	buf := EncodeHeader(h)
	got, err := ReadHeader(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got != h {
		t.Fatalf("header mismatch: got %+v want %+v", got, h)
	}
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	h := Header{Magic: [4]byte{'X', 'X', 'X', 'X'}, MajorVersion: 1, MinorVersion: 0, Size: 0}
	buf := EncodeHeader(h)
	if _, err := ReadHeader(bytes.NewReader(buf)); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	m := Message{
		SessionID:   0,
		ChannelType: ChannelMain,
		ChannelID:   0,
		CommonCaps:  []uint32{CommonCapProtocolAuthSelection | CommonCapAuthSpice | CommonCapMiniHeader},
		ChannelCaps: []uint32{MainCapAgentConnectedTokens},
	}
	body := EncodeMessage(m)
	got, err := ReadMessage(bytes.NewReader(body), uint32(len(body)))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if got.SessionID != m.SessionID || got.ChannelType != m.ChannelType || got.ChannelID != m.ChannelID {
		t.Fatalf("fixed fields mismatch: %+v", got)
	}
	if len(got.CommonCaps) != 1 || got.CommonCaps[0] != m.CommonCaps[0] {
		t.Fatalf("common caps mismatch: %+v", got.CommonCaps)
	}
	if len(got.ChannelCaps) != 1 || got.ChannelCaps[0] != m.ChannelCaps[0] {
		t.Fatalf("channel caps mismatch: %+v", got.ChannelCaps)
	}
}

func TestReplyRoundTrip(t *testing.T) {
	rep := Reply{
		Error:       0,
		CommonCaps:  []uint32{CommonCapMiniHeader},
		ChannelCaps: []uint32{},
	}
	for i := range rep.PubKey {
		rep.PubKey[i] = byte(i)
	}
	body := EncodeReply(rep)
	got, err := ReadReply(bytes.NewReader(body), uint32(len(body)))
	if err != nil {
		t.Fatalf("ReadReply: %v", err)
	}
	if got.Error != rep.Error {
		t.Fatalf("error mismatch")
	}
	if !bytes.Equal(got.PubKey[:], rep.PubKey[:]) {
		t.Fatalf("pubkey mismatch")
	}
}

func TestClientCapsByChannelType(t *testing.T) {
	common, channel := ClientCaps(ChannelMain)
	if !HasCap(common, CommonCapMiniHeader) {
		t.Fatalf("expected mini-header cap")
	}
	if !HasCap(channel, MainCapAgentConnectedTokens) {
		t.Fatalf("expected agent-connected-tokens cap for main channel")
	}

	_, playbackChannelCaps := ClientCaps(ChannelPlayback)
	if !HasCap(playbackChannelCaps, PlaybackCapVolume) {
		t.Fatalf("expected volume cap for playback channel")
	}
}
