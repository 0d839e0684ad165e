package channel

import (
	"context"
	"log/slog"
	"net"

	"github.com/sprice/spice-client/internal/spice/link"
)

// NewForTest builds a Channel around an already-connected net.Conn (e.g. one
// half of a net.Pipe), bypassing Dial and link.Negotiate. It exists so
// channel-specific packages (mainchan, inputs, playback) can exercise their
// Handler implementations against a fake in-process server without a real
// socket or link handshake.
func NewForTest(conn net.Conn, ct link.ChannelType, log *slog.Logger, handler Handler) *Channel {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		ID:      "test",
		Type:    ct,
		conn:    conn,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		handler: handler,
	}
	c.connected, c.ready = 1, 1
	return c
}

// ForceInitDone marks the channel's first-message phase as already
// complete, for tests that exercise only the steady-state Message path.
func (c *Channel) ForceInitDone() { c.markInitDone() }
