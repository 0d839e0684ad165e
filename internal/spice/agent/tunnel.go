package agent

import (
	"fmt"
	"sync/atomic"

	"github.com/sprice/spice-client/internal/bufpool"
	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// Tunnel is the agent sub-protocol's send/receive half: the token-bucket
// queue of §4.8 paired with the main channel it rides over. msgType is the
// wire message type the owning main channel uses for agent-data (the
// session wires this to mainchan.MsgAgentData, avoiding an import cycle).
type Tunnel struct {
	State *State

	sender  ChannelSender
	msgType wire.MsgType

	queue *queue

	serverTokens int64 // atomic credit counter (§3 I3)
	msgRemaining int64 // atomic; bytes still owed by the in-flight outbound message (§3 I6)
}

// NewTunnel creates a Tunnel bound to the main channel's send mutex/locked-
// send primitive.
func NewTunnel(sender ChannelSender, msgType wire.MsgType) *Tunnel {
	return &Tunnel{State: NewState(), sender: sender, msgType: msgType, queue: newQueue()}
}

// Credit adds n tokens to the bucket (agent-connected-tokens' initial grant,
// or a later agent-token credit, §4.5/§4.8) and drains whatever the new
// balance now allows.
func (t *Tunnel) Credit(n uint32) error {
	atomic.AddInt64(&t.serverTokens, int64(n))
	return t.drain()
}

// Tokens returns the current token balance, for tests and diagnostics.
func (t *Tunnel) Tokens() int64 { return atomic.LoadInt64(&t.serverTokens) }

// Pending returns the number of queued-but-not-yet-released fragments.
func (t *Tunnel) Pending() int { return t.queue.len() }

// acquireToken attempts to consume one credit via compare-and-swap,
// returning false when the bucket is empty (§3 I3, §5).
func (t *Tunnel) acquireToken() bool {
	for {
		cur := atomic.LoadInt64(&t.serverTokens)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&t.serverTokens, cur, cur-1) {
			return true
		}
	}
}

// drain releases as many queued fragments to the wire as the token bucket
// allows, holding the main channel's send mutex across token acquisition
// and the write for each fragment (§4.8, §5).
func (t *Tunnel) drain() error {
	t.sender.Lock()
	defer t.sender.Unlock()
	for {
		item, ok := t.queue.peek()
		if !ok {
			return nil
		}
		if !t.acquireToken() {
			return nil
		}
		if err := t.sender.SendLocked(t.msgType, item); err != nil {
			return err
		}
		t.queue.shift()
		bufpool.Put(item)
	}
}

// StartMsg begins a new outbound logical agent message (§4.8 "Send path
// contract"): it enqueues the leading header-only packet, resets
// agent-msg-remaining to size, and drains.
func (t *Tunnel) StartMsg(msgType MsgType, size uint32) error {
	atomic.StoreInt64(&t.msgRemaining, int64(size))
	t.queue.push(encodeHeader(Header{Protocol: ProtocolVersion, Type: msgType, Size: size}))
	return t.drain()
}

// WriteMsg splits buf[:n] into payload fragments of at most MaxFragment
// bytes, enqueues them, and drains (§4.8). n must not exceed the
// in-flight message's remaining declared size (I6).
func (t *Tunnel) WriteMsg(buf []byte, n int) error {
	if int64(n) > atomic.LoadInt64(&t.msgRemaining) {
		return protoerr.NewAgentError("agent write_msg", fmt.Errorf("n=%d exceeds remaining=%d", n, atomic.LoadInt64(&t.msgRemaining)))
	}
	data := buf[:n]
	for len(data) > 0 {
		chunk := data
		if len(chunk) > MaxFragment {
			chunk = data[:MaxFragment]
		}
		frag := bufpool.Get(len(chunk))
		copy(frag, chunk)
		t.queue.push(frag)
		atomic.AddInt64(&t.msgRemaining, -int64(len(chunk)))
		data = data[len(chunk):]
	}
	return t.drain()
}

// MsgRemaining returns the bytes still owed by the in-flight outbound
// message; it reaches exactly zero once every WriteMsg chunk for that
// message has been enqueued (I6).
func (t *Tunnel) MsgRemaining() int64 { return atomic.LoadInt64(&t.msgRemaining) }

// SendMessage is a convenience wrapper combining StartMsg+WriteMsg for a
// complete in-memory payload. It sends clipboard grab/release/request and
// the capabilities reply; clipboard data itself goes through DataStart/Data.
func (t *Tunnel) SendMessage(msgType MsgType, payload []byte) error {
	if err := t.StartMsg(msgType, uint32(len(payload))); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return t.WriteMsg(payload, len(payload))
}
