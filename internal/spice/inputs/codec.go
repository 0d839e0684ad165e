package inputs

import (
	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// decodeInit reads the inputs-init key-modifier bitmap (§4.6).
func decodeInit(payload []byte) (uint16, error) {
	r := wire.NewFieldReader(payload)
	v, err := r.U16()
	if err != nil {
		return 0, protoerr.NewWireError("decode inputs-init", err)
	}
	return v, nil
}

func decodeKeyModifiers(payload []byte) (uint16, error) {
	r := wire.NewFieldReader(payload)
	v, err := r.U16()
	if err != nil {
		return 0, protoerr.NewWireError("decode key-modifiers", err)
	}
	return v, nil
}

// encodeScancode maps a 32-bit scancode plus the up/down direction onto the
// wire's escaped PS/2 set-1 encoding (§4.6, §8 scenario 2):
//
//	code <  0x100: single byte, OR KeyUpBit in for key-up.
//	code >= 0x100: two bytes, 0xE0 low / (code-0x100) high; KeyUpBit is
//	               OR'd into the high byte (the byte that actually carries
//	               the key identity once the 0xE0 escape prefix is fixed).
func encodeScancode(code uint32, keyUp bool) uint32 {
	if code < ScancodeEscapeThreshold {
		b := byte(code)
		if keyUp {
			b |= KeyUpBit
		}
		return uint32(b)
	}
	high := byte(code - ScancodeEscapeThreshold)
	if keyUp {
		high |= KeyUpBit
	}
	return uint32(ScancodeEscapePrefix) | uint32(high)<<8
}

func encodeKeyEvent(code uint32, keyUp bool) []byte {
	w := wire.NewFieldWriter(4)
	w.PutU32(encodeScancode(code, keyUp))
	return w.Bytes()
}

func encodeMousePosition(x, y int32, buttonState uint32) []byte {
	w := wire.NewFieldWriter(12)
	w.PutU32(uint32(x))
	w.PutU32(uint32(y))
	w.PutU32(buttonState)
	return w.Bytes()
}

func encodeMouseMotion(dx, dy int32, buttonState uint32) []byte {
	w := wire.NewFieldWriter(12)
	w.PutU32(uint32(dx))
	w.PutU32(uint32(dy))
	w.PutU32(buttonState)
	return w.Bytes()
}

func encodeMouseButton(button, buttonState uint32) []byte {
	w := wire.NewFieldWriter(8)
	w.PutU32(button)
	w.PutU32(buttonState)
	return w.Bytes()
}

// clampAxis saturates v to [-MotionMax, MotionMax] (§4.6).
func clampAxis(v int32) int32 {
	if v > MotionMax {
		return MotionMax
	}
	if v < -MotionMax {
		return -MotionMax
	}
	return v
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// motionDelta is one emitted relative-motion sub-message's axis values.
type motionDelta struct {
	dx, dy int32
}

// splitMotion implements §4.6/§8's motion-splitting contract: the delta is
// divided into ceil(max(|dx|,|dy|)/MotionMax) sub-messages, each clamped per
// axis, subtracting the emitted delta from the running remainder until both
// axes reach zero.
func splitMotion(dx, dy int32) []motionDelta {
	maxAbs := abs32(dx)
	if a := abs32(dy); a > maxAbs {
		maxAbs = a
	}
	n := 1
	if maxAbs > MotionMax {
		n = int((maxAbs + MotionMax - 1) / MotionMax)
	}
	out := make([]motionDelta, 0, n)
	rx, ry := dx, dy
	for i := 0; i < n; i++ {
		ex := clampAxis(rx)
		ey := clampAxis(ry)
		out = append(out, motionDelta{dx: ex, dy: ey})
		rx -= ex
		ry -= ey
	}
	return out
}
