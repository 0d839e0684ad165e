package inputs

import (
	"sync"
	"sync/atomic"
)

// MouseState is protected by its own lock so that a button-state read and
// the packet it produces form one critical section (§3, §5). sentCount is
// the number of outstanding motion sub-messages awaiting a
// mouse-motion-ack, kept as a separate atomic counter per §5.
type MouseState struct {
	mu          sync.Mutex
	buttonState uint32
	sentCount   int32
}

// ButtonState returns the current button mask.
func (m *MouseState) ButtonState() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buttonState
}

// press sets bit in the button mask under lock and returns the resulting
// mask, for the caller to encode into the outbound packet within the same
// critical section (§4.6 "mouse press/release").
func (m *MouseState) press(bit uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buttonState |= bit
	return m.buttonState
}

func (m *MouseState) release(bit uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buttonState &^= bit
	return m.buttonState
}

// SentCount returns the number of in-flight motion sub-messages.
func (m *MouseState) SentCount() int32 { return atomic.LoadInt32(&m.sentCount) }

func (m *MouseState) addSent(n int32) { atomic.AddInt32(&m.sentCount, n) }

// ack subtracts MotionAckBunch from sentCount (§4.6, I4). A result below
// zero is a protocol violation the caller must surface.
func (m *MouseState) ack() (newValue int32) {
	return atomic.AddInt32(&m.sentCount, -MotionAckBunch)
}
