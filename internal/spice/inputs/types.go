// Package inputs implements the inputs channel (§4.6): keyboard scancode
// translation, mouse button/position/motion packets, and the motion-ack
// counter. Message-type routing follows a dispatcher shape built around
// SPICE's fixed-layout input records.
package inputs

import "github.com/sprice/spice-client/internal/spice/wire"

// Server-to-client message types on the inputs channel (§4.6).
const (
	MsgInit           wire.MsgType = 101
	MsgKeyModifiers   wire.MsgType = 102
	MsgMouseMotionAck wire.MsgType = 103
)

// Client-to-server message types on the inputs channel.
const (
	MsgcKeyDown       wire.MsgType = 101
	MsgcKeyUp         wire.MsgType = 102
	MsgcMousePosition wire.MsgType = 103
	MsgcMouseMotion   wire.MsgType = 104
	MsgcMousePress    wire.MsgType = 105
	MsgcMouseRelease  wire.MsgType = 106
)

// MotionAckBunch is the fixed per-ack decrement the server applies to
// mouse.sent-count in response to a mouse-motion-ack (§3 I4, glossary).
const MotionAckBunch = 4

// MotionMax is the saturation bound (inclusive) for a single relative
// mouse-motion sub-message on each axis (§4.6).
const MotionMax = 127

// Button mask bits for ButtonState (§4.6 "mouse-button state").
const (
	ButtonLeft   uint32 = 1 << 0
	ButtonMiddle uint32 = 1 << 1
	ButtonRight  uint32 = 1 << 2
	ButtonUp     uint32 = 1 << 3
	ButtonDown   uint32 = 1 << 4
)

// ScancodeEscapePrefix marks a two-byte escaped PS/2 set-1 code (§4.6).
const ScancodeEscapePrefix = 0xE0

// KeyUpBit is OR'd into the code-carrying byte for a key-up event (§4.6).
const KeyUpBit = 0x80

// ScancodeEscapeThreshold: codes at or above this value are encoded as
// escaped two-byte sequences rather than a single PS/2 set-1 byte.
const ScancodeEscapeThreshold = 0x100
