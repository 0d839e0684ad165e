package inputs

import (
	"github.com/sprice/spice-client/internal/bufpool"
	"github.com/sprice/spice-client/internal/spice/channel"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// Inputs wraps the inputs channel.Channel with the outbound keyboard/mouse
// API of §4.6/§6: key_down, key_up, mouse_position, mouse_motion,
// mouse_press, mouse_release.
type Inputs struct {
	ch      *channel.Channel
	mouse   *MouseState
	Handler *Handler
}

// New wraps an already-connected inputs channel.Channel, sharing mouse
// state between outbound sends (this type) and inbound acks (Handler).
func New(ch *channel.Channel, mouse *MouseState, handler *Handler) *Inputs {
	return &Inputs{ch: ch, mouse: mouse, Handler: handler}
}

// Mouse exposes the shared mouse state (e.g. for session-level inspection).
func (i *Inputs) Mouse() *MouseState { return i.mouse }

// KeyDown sends a key-down event for the given scancode (§4.6).
func (i *Inputs) KeyDown(code uint32) error {
	return i.ch.Send(MsgcKeyDown, encodeKeyEvent(code, false))
}

// KeyUp sends a key-up event for the given scancode (§4.6).
func (i *Inputs) KeyUp(code uint32) error {
	return i.ch.Send(MsgcKeyUp, encodeKeyEvent(code, true))
}

// MousePosition sends an absolute mouse position with the current button
// mask (§4.6).
func (i *Inputs) MousePosition(x, y int32) error {
	return i.ch.Send(MsgcMousePosition, encodeMousePosition(x, y, i.mouse.ButtonState()))
}

// MouseMotion sends a relative mouse motion, splitting it into saturated
// ±127 sub-messages and emitting them as one contiguous write (§4.6, §8).
// sent-count is incremented by the number of emitted sub-messages before the
// write, matching the increment-on-send (ack-on-response) accounting style
// used elsewhere in the codebase (ack window, agent tokens).
func (i *Inputs) MouseMotion(dx, dy int32) error {
	deltas := splitMotion(dx, dy)
	buttonState := i.mouse.ButtonState()

	buf := bufpool.Get(len(deltas) * (wire.HeaderSize + 12))[:0]
	for _, d := range deltas {
		buf = append(buf, wire.Encode(MsgcMouseMotion, encodeMouseMotion(d.dx, d.dy, buttonState))...)
	}

	i.mouse.addSent(int32(len(deltas)))
	err := i.ch.WriteRaw(buf)
	bufpool.Put(buf)
	return err
}

// MousePress updates the button mask under the mouse lock, then sends the
// post-update state (§4.6).
func (i *Inputs) MousePress(button uint32) error {
	state := i.mouse.press(button)
	return i.ch.Send(MsgcMousePress, encodeMouseButton(button, state))
}

// MouseRelease updates the button mask under the mouse lock, then sends the
// post-update state (§4.6).
func (i *Inputs) MouseRelease(button uint32) error {
	state := i.mouse.release(button)
	return i.ch.Send(MsgcMouseRelease, encodeMouseButton(button, state))
}
