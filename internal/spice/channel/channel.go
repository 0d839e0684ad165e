// Package channel provides the per-channel connection wrapper and the
// common-message dispatcher shared by every SPICE channel (§4.4). It plays
// the role of a connection wrapper: owning the net.Conn, the send mutex,
// and the read/write lifecycle, while delegating message semantics to a
// channel-specific handler.
package channel

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/logger"
	"github.com/sprice/spice-client/internal/spice/link"
	"github.com/sprice/spice-client/internal/spice/transport"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// Result is the outcome of draining one ready channel, mirrored from §4.9.
type Result int

const (
	ResultOK Result = iota
	ResultHandled
	ResultNoData
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultHandled:
		return "HANDLED"
	case ResultNoData:
		return "NODATA"
	case ResultError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Handler is implemented by each channel-specific package (mainchan, inputs,
// playback) to process the first in-message and every subsequent
// non-common message. FirstMessage is only invoked once, before InitDone is
// set; Message is invoked for everything after.
type Handler interface {
	FirstMessage(c *Channel, f *wire.Frame) error
	Message(c *Channel, f *wire.Frame) error
}

// Channel owns one stream socket for one logical SPICE channel (§3). It
// tracks the post-link/post-init flags, the ack window counters, and
// serializes outbound writes under a send mutex, with one Channel value per
// channel type rather than a single shared connection.
type Channel struct {
	ID   string
	Type link.ChannelType

	conn net.Conn
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	connected int32 // atomic bool
	ready     int32 // atomic bool
	initDone  int32 // atomic bool

	ackFrequency uint32
	ackCount     uint32

	sendMu sync.Mutex

	handler Handler
}

var idCounter uint64

func nextID(ct link.ChannelType) string {
	return fmt.Sprintf("ch-%d-%06d", ct, atomic.AddUint64(&idCounter, 1))
}

// Connect dials the channel's socket, performs link negotiation, and returns
// a ready Channel. handler is installed before any message is read.
func Connect(ctx context.Context, host string, port int, password string, sessionID uint32, ct link.ChannelType, channelID uint8, handler Handler) (*Channel, error) {
	conn, err := transport.Dial(ctx, host, port)
	if err != nil {
		return nil, err
	}
	if _, err := link.Negotiate(conn, password, sessionID, ct, channelID); err != nil {
		_ = conn.Close()
		return nil, err
	}

	id := nextID(ct)
	cctx, cancel := context.WithCancel(ctx)
	c := &Channel{
		ID:      id,
		Type:    ct,
		conn:    conn,
		log:     logger.WithChannel(logger.Logger(), id, conn.RemoteAddr().String()),
		ctx:     cctx,
		cancel:  cancel,
		handler: handler,
	}
	atomic.StoreInt32(&c.connected, 1)
	atomic.StoreInt32(&c.ready, 1)
	c.log.Info("channel ready", "channel_type", ct)
	return c, nil
}

// Conn exposes the underlying net.Conn for readiness queries (§4.9).
func (c *Channel) Conn() net.Conn { return c.conn }

// Connected reports whether the channel's socket is still open.
func (c *Channel) Connected() bool { return atomic.LoadInt32(&c.connected) == 1 }

// Ready reports whether link negotiation has completed.
func (c *Channel) Ready() bool { return atomic.LoadInt32(&c.ready) == 1 }

// InitDone reports whether the channel-specific first message has been
// processed.
func (c *Channel) InitDone() bool { return atomic.LoadInt32(&c.initDone) == 1 }

// markInitDone marks the channel's first in-message as handled.
func (c *Channel) markInitDone() { atomic.StoreInt32(&c.initDone, 1) }

// Close tears down the channel's socket and cancels its context.
func (c *Channel) Close() error {
	atomic.StoreInt32(&c.connected, 0)
	c.cancel()
	return c.conn.Close()
}

// Send serializes and writes one framed message under the send mutex, the
// single critical section guarding concurrent writers (agent drain vs.
// channel-specific replies), per §5.
func (c *Channel) Send(msgType wire.MsgType, payload []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return wire.WriteMessage(c.conn, msgType, payload)
}

// WriteRaw writes a pre-encoded buffer of one or more concatenated frames in
// a single Write call under the send mutex (§4.6: the inputs channel batches
// contiguous mouse-motion sub-messages this way to avoid per-message
// fragmentation hurting throughput).
func (c *Channel) WriteRaw(buf []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	n, err := c.conn.Write(buf)
	if err != nil {
		return protoerr.NewWireError("write raw", err)
	}
	if n != len(buf) {
		return protoerr.NewWireError("write raw", fmt.Errorf("short write: %d of %d bytes", n, len(buf)))
	}
	return nil
}

// SendLocked is identical to Send but assumes the caller already holds
// sendMu (used by the agent drain loop, which must hold the main channel's
// send mutex across a token acquisition and a write, per §4.8).
func (c *Channel) SendLocked(msgType wire.MsgType, payload []byte) error {
	return wire.WriteMessage(c.conn, msgType, payload)
}

// Lock acquires the send mutex for a multi-step critical section (e.g. the
// agent drain loop's token-acquire-then-write sequence).
func (c *Channel) Lock() { c.sendMu.Lock() }

// Unlock releases the send mutex acquired via Lock.
func (c *Channel) Unlock() { c.sendMu.Unlock() }

// DrainOnce reads and processes exactly one framed message from the
// channel's socket, dispatching common messages itself (§4.4) and routing
// everything else to the installed Handler. It returns the §4.9 result code.
func (c *Channel) DrainOnce() Result {
	hdr, err := wire.ReadHeader(c.conn)
	if err != nil {
		if isCleanClose(err) {
			atomic.StoreInt32(&c.connected, 0)
			return ResultNoData
		}
		c.log.Error("read header failed", "error", err)
		return ResultError
	}

	if !c.InitDone() {
		payload := make([]byte, hdr.Size)
		if hdr.Size > 0 {
			if _, err := io.ReadFull(c.conn, payload); err != nil {
				c.log.Error("read first message failed", "error", err)
				return ResultError
			}
		}
		f := &wire.Frame{Header: hdr, Payload: payload}
		if err := c.handler.FirstMessage(c, f); err != nil {
			c.log.Error("first message handling failed", "error", err)
			return ResultError
		}
		c.markInitDone()
		return ResultHandled
	}

	if handled, err := c.handleCommon(hdr); err != nil {
		return ResultError
	} else if handled {
		return ResultHandled
	}

	payload := make([]byte, hdr.Size)
	if hdr.Size > 0 {
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			c.log.Error("read message payload failed", "error", err)
			return ResultError
		}
	}
	f := &wire.Frame{Header: hdr, Payload: payload}
	if err := c.handler.Message(c, f); err != nil {
		c.log.Error("message handling failed", "error", err)
		return ResultError
	}
	c.accountAck()
	return ResultOK
}

// accountAck implements the ACK cadence of §4.4: the counter is incremented
// first and then compared to ack-frequency, so exactly ack-frequency
// non-common inbound messages trigger one outbound ack (see DESIGN.md for
// why this reading was chosen over the alternative off-by-one phrasing).
func (c *Channel) accountAck() {
	if c.ackFrequency == 0 {
		return
	}
	c.ackCount++
	if c.ackCount == c.ackFrequency {
		if err := c.Send(wire.MsgcAck, nil); err != nil {
			c.log.Warn("ack emit failed", "error", err)
		}
		c.ackCount = 0
	}
}

func isCleanClose(err error) bool {
	return stdErrors.Is(err, io.EOF) || stdErrors.Is(err, net.ErrClosed)
}
