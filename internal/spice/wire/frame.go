// Package wire implements the SPICE mini-header message framing used by
// every channel once link negotiation has completed (§4.1). All integers are
// little-endian, matching the wire protocol.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	protoerr "github.com/sprice/spice-client/internal/errors"
)

// HeaderSize is the fixed size, in bytes, of a mini header: {type:u16, size:u32}.
const HeaderSize = 6

// MsgType identifies a framed message. The numeric space is partitioned by
// direction and channel: common message types 1-7 shared by every channel,
// then channel-specific types starting at 101 in each direction. The values
// are this module's own internally consistent numbering; they are not taken
// from spice-protocol.h and are not claimed to be byte-compatible with it.
type MsgType uint16

// Common message types sent by the server to the client (§4.4).
const (
	MsgMigrate         MsgType = 1
	MsgMigrateData     MsgType = 2
	MsgSetAck          MsgType = 3
	MsgPing            MsgType = 4
	MsgWaitForChannels MsgType = 5
	MsgDisconnecting   MsgType = 6
	MsgNotify          MsgType = 7
)

// Common message types sent by the client to the server.
const (
	MsgcAckSync MsgType = 1
	MsgcPong    MsgType = 2
	MsgcAck     MsgType = 3
)

// Header is the 6-byte mini header prefixing every post-link message.
type Header struct {
	Type MsgType
	Size uint32
}

// Frame pairs a decoded header with its payload. It replaces the "prepend
// the length one word before the header" pointer trick flagged in design
// note §9 with an explicit typed {length, bytes} pair.
type Frame struct {
	Header  Header
	Payload []byte
}

// ReadHeader reads and decodes one 6-byte mini header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	}
	return Header{
		Type: MsgType(binary.LittleEndian.Uint16(buf[0:2])),
		Size: binary.LittleEndian.Uint32(buf[2:6]),
	}, nil
}

// EncodeHeader serializes h into a fresh 6-byte slice.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(h.Type))
	binary.LittleEndian.PutUint32(buf[2:6], h.Size)
	return buf
}

// ReadFrame reads a full mini-header message (header + payload) from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, h.Size)
	if h.Size > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, protoerr.NewWireError("read payload", fmt.Errorf("type=%d size=%d: %w", h.Type, h.Size, err))
		}
	}
	return &Frame{Header: h, Payload: payload}, nil
}

// Discard reads and drops exactly n bytes. The common-message handler uses it
// to skip the payloads of migrate, migrate-data, wait-for-channels and
// disconnecting.
func Discard(r io.Reader, n uint32) error {
	if n == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

// Encode builds the wire bytes for a single message: header followed by
// payload, ready for one Write call under the channel's send mutex.
func Encode(msgType MsgType, payload []byte) []byte {
	out := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(out[0:2], uint16(msgType))
	binary.LittleEndian.PutUint32(out[2:6], uint32(len(payload)))
	copy(out[HeaderSize:], payload)
	return out
}

// WriteMessage encodes and writes one complete framed message. Short writes
// are treated as errors per §7 — there is no partial-write recovery for this
// protocol.
func WriteMessage(w io.Writer, msgType MsgType, payload []byte) error {
	buf := Encode(msgType, payload)
	n, err := w.Write(buf)
	if err != nil {
		return protoerr.NewWireError("write message", err)
	}
	if n != len(buf) {
		return protoerr.NewWireError("write message", fmt.Errorf("short write: %d of %d bytes", n, len(buf)))
	}
	return nil
}
