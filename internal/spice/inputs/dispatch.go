package inputs

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/logger"
	"github.com/sprice/spice-client/internal/spice/channel"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// Handler implements channel.Handler for the inputs channel (§4.6).
type Handler struct {
	mouse     *MouseState
	modifiers uint32 // atomic

	// OnModifiers fires whenever the server pushes an updated key-modifier
	// bitmap (inputs-init's initial value, then every key-modifiers message).
	OnModifiers func(mods uint16)

	log *slog.Logger
}

// NewHandler creates an inputs-channel Handler sharing mouse with the
// caller-owned Inputs wrapper (so outbound sends and inbound acks touch the
// same MouseState, per §3/§5).
func NewHandler(mouse *MouseState) *Handler {
	return &Handler{mouse: mouse, log: logger.Logger().With("component", "inputs")}
}

// Modifiers returns the last key-modifier bitmap reported by the server.
func (h *Handler) Modifiers() uint16 { return uint16(atomic.LoadUint32(&h.modifiers)) }

// FirstMessage requires inputs-init (§4.6) and stores its key-modifier bitmap.
func (h *Handler) FirstMessage(c *channel.Channel, f *wire.Frame) error {
	if f.Header.Type != MsgInit {
		return protoerr.NewProtocolError("inputs first message", fmt.Errorf("expected inputs-init, got type %d", f.Header.Type))
	}
	mods, err := decodeInit(f.Payload)
	if err != nil {
		return err
	}
	atomic.StoreUint32(&h.modifiers, uint32(mods))
	h.log.Debug("inputs-init received", "modifiers", mods)
	if h.OnModifiers != nil {
		h.OnModifiers(mods)
	}
	return nil
}

// Message handles key-modifiers and mouse-motion-ack (§4.6).
func (h *Handler) Message(c *channel.Channel, f *wire.Frame) error {
	switch f.Header.Type {
	case MsgKeyModifiers:
		mods, err := decodeKeyModifiers(f.Payload)
		if err != nil {
			return err
		}
		atomic.StoreUint32(&h.modifiers, uint32(mods))
		if h.OnModifiers != nil {
			h.OnModifiers(mods)
		}
		return nil

	case MsgMouseMotionAck:
		if v := h.mouse.ack(); v < 0 {
			return protoerr.NewProtocolError("mouse-motion-ack", fmt.Errorf("sent-count went negative: %d", v))
		}
		return nil

	default:
		h.log.Debug("unrecognized inputs channel message discarded", "type", f.Header.Type, "size", len(f.Payload))
		return nil
	}
}
