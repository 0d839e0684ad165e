// Package playback implements the playback channel (§4.7): demuxing
// server-to-client audio control and data messages to consumer callbacks.
// The codec/format enum shape is generalized to SPICE's playback-start
// record.
package playback

import "github.com/sprice/spice-client/internal/spice/wire"

// Server-to-client message types on the playback channel (§4.7). MsgStart
// doubles as the channel's required first message.
const (
	MsgStart  wire.MsgType = 101
	MsgStop   wire.MsgType = 102
	MsgData   wire.MsgType = 103
	MsgVolume wire.MsgType = 104
	MsgMute   wire.MsgType = 105
)

// Format identifies the sample encoding of a playback stream (§4.7: "only
// the 16-bit signed format is mapped to a named variant; others map to
// invalid").
type Format uint16

const (
	FormatS16 Format = 1
)

// FormatName returns the named variant for a wire format code, or "invalid"
// for anything the client doesn't recognize (§4.7).
func FormatName(f Format) string {
	if f == FormatS16 {
		return "s16"
	}
	return "invalid"
}

// Start is the decoded body of a playback-start message.
type Start struct {
	Channels  uint8
	Frequency uint32
	Format    Format
	Time      uint32
}
