package channel

import (
	"fmt"
	"io"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// handleCommon absorbs the infrastructural messages common to every channel
// (§4.4), fully reading each one's payload. It returns handled=true when the
// message was a common type (the caller must not re-dispatch it).
func (c *Channel) handleCommon(hdr wire.Header) (handled bool, err error) {
	switch hdr.Type {
	case wire.MsgMigrate, wire.MsgMigrateData, wire.MsgWaitForChannels:
		if err := wire.Discard(c.conn, hdr.Size); err != nil {
			return true, protoerr.NewWireError("discard common message", err)
		}
		return true, nil

	case wire.MsgSetAck:
		payload := make([]byte, hdr.Size)
		if hdr.Size > 0 {
			if _, err := io.ReadFull(c.conn, payload); err != nil {
				return true, protoerr.NewWireError("read set-ack", err)
			}
		}
		r := wire.NewFieldReader(payload)
		generation, err := r.U32()
		if err != nil {
			return true, protoerr.NewWireError("decode set-ack", err)
		}
		window, err := r.U32()
		if err != nil {
			return true, protoerr.NewWireError("decode set-ack", err)
		}
		c.ackFrequency = window
		c.ackCount = 0

		w := wire.NewFieldWriter(4)
		w.PutU32(generation)
		if err := c.Send(wire.MsgcAckSync, w.Bytes()); err != nil {
			return true, err
		}
		c.log.Debug("set-ack negotiated", "generation", generation, "window", window)
		return true, nil

	case wire.MsgPing:
		if hdr.Size < 12 {
			return true, protoerr.NewWireError("read ping", fmt.Errorf("size %d too small", hdr.Size))
		}
		payload := make([]byte, hdr.Size)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return true, protoerr.NewWireError("read ping", err)
		}
		// ping carries {id:u32, timestamp:u64}; any trailing bytes are padding
		// and are discarded by only re-sending the first 12 bytes verbatim.
		if err := c.Send(wire.MsgcPong, payload[:12]); err != nil {
			return true, err
		}
		return true, nil

	case wire.MsgDisconnecting:
		if err := wire.Discard(c.conn, hdr.Size); err != nil {
			return true, protoerr.NewWireError("discard disconnecting", err)
		}
		c.halfShutdownWrite()
		return true, nil

	case wire.MsgNotify:
		payload := make([]byte, hdr.Size)
		if hdr.Size > 0 {
			if _, err := io.ReadFull(c.conn, payload); err != nil {
				return true, protoerr.NewWireError("read notify", err)
			}
		}
		c.log.Info("server notify", "payload_len", len(payload))
		return true, nil
	}
	return false, nil
}

// halfShutdownWrite shuts down the write half of the socket on receiving
// disconnecting (§4.4), letting any in-flight reads drain before teardown.
func (c *Channel) halfShutdownWrite() {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := c.conn.(writeCloser); ok {
		if err := wc.CloseWrite(); err != nil {
			c.log.Warn("half-shutdown write side failed", "error", err)
		}
	}
}
