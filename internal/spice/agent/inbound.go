package agent

import (
	"fmt"

	protoerr "github.com/sprice/spice-client/internal/errors"
)

// ClientCapabilities are the caps this client announces in reply to an
// announce-capabilities whose request flag is set. Nothing is announced on
// agent connect.
const ClientCapabilities = CapClipboard | CapClipboardSelection

// HandleInbound demultiplexes one main-agent-data payload (§4.8). If a
// clipboard reassembly is in progress, the payload is routed there as pure
// continuation bytes (no agent header); otherwise it is decoded as a fresh
// agent header plus body.
func (t *Tunnel) HandleInbound(payload []byte) error {
	if t.reassemblyActive() {
		return t.continueReassembly(payload)
	}

	hdr, body, err := decodeHeader(payload)
	if err != nil {
		return err
	}

	switch hdr.Type {
	case MsgAnnounceCapabilities:
		return t.handleAnnounce(body)
	case MsgClipboardGrab:
		return t.handleGrab(body)
	case MsgClipboardRequest:
		return t.handleRequest(body)
	case MsgClipboard:
		return t.handleClipboard(hdr, body)
	case MsgClipboardRelease:
		return t.handleRelease()
	default:
		return nil
	}
}

func (t *Tunnel) reassemblyActive() bool {
	s := t.State
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reassembly != nil && s.reassembly.remain > 0
}

func (t *Tunnel) handleAnnounce(body []byte) error {
	if len(body) > MaxAnnounceBytes {
		return protoerr.NewAgentError("announce-capabilities", fmt.Errorf("size %d exceeds cap %d", len(body), MaxAnnounceBytes))
	}
	caps, request, err := decodeCapabilities(body)
	if err != nil {
		return err
	}
	s := t.State
	s.mu.Lock()
	s.cbSupported = caps&CapClipboard != 0
	s.cbSelection = caps&CapClipboardSelection != 0
	s.mu.Unlock()

	if request {
		return t.SendMessage(MsgAnnounceCapabilities, encodeCapabilities(ClientCapabilities, false))
	}
	return nil
}

func (t *Tunnel) handleGrab(body []byte) error {
	s := t.State
	s.mu.Lock()
	cbSelection := s.cbSelection
	s.mu.Unlock()

	types, err := decodeGrabTypes(body, cbSelection)
	if err != nil {
		return err
	}

	var first ClipboardType
	if len(types) > 0 {
		first = types[0]
	}
	s.mu.Lock()
	s.currentType = first
	s.agentGrabbed = true
	s.clientGrabbed = false
	notice := s.Callbacks.Notice
	s.mu.Unlock()

	// §9 open question: a selection-capable grab intentionally short-
	// circuits the notice callback, since selection-clipboard targets have
	// no notice-worthy equivalent on every platform.
	if !cbSelection && notice != nil {
		notice(types)
	}
	return nil
}

func (t *Tunnel) handleRequest(body []byte) error {
	s := t.State
	s.mu.Lock()
	cbSelection := s.cbSelection
	request := s.Callbacks.Request
	s.mu.Unlock()

	typ, err := decodeRequestType(body, cbSelection)
	if err != nil {
		return err
	}
	if request != nil {
		request(typ)
	}
	return nil
}

func (t *Tunnel) handleClipboard(hdr Header, body []byte) error {
	s := t.State
	s.mu.Lock()
	if s.reassembly != nil {
		s.mu.Unlock()
		return protoerr.NewAgentError("clipboard", fmt.Errorf("reassembly already in progress"))
	}
	cbSelection := s.cbSelection
	s.mu.Unlock()

	typ, payloadPrefix, err := decodeClipboardType(body, cbSelection)
	if err != nil {
		return err
	}

	total := int(hdr.Size) - preambleSize(cbSelection) - clipboardTypeFieldSize
	if total < 0 {
		return protoerr.NewAgentError("clipboard", fmt.Errorf("declared size %d too small", hdr.Size))
	}

	buf := make([]byte, total)
	n := copy(buf, payloadPrefix)
	remain := total - n

	if remain == 0 {
		s.mu.Lock()
		cb := s.Callbacks.Data
		s.mu.Unlock()
		if cb != nil {
			cb(typ, buf)
		}
		return nil
	}

	s.mu.Lock()
	s.reassembly = &reassembly{typ: typ, buf: buf, size: n, remain: remain}
	s.mu.Unlock()
	return nil
}

func (t *Tunnel) continueReassembly(payload []byte) error {
	s := t.State
	s.mu.Lock()
	r := s.reassembly
	if r == nil {
		s.mu.Unlock()
		return protoerr.NewAgentError("clipboard continuation", fmt.Errorf("no reassembly in progress"))
	}
	n := copy(r.buf[r.size:], payload)
	r.size += n
	r.remain -= n
	var typ ClipboardType
	var buf []byte
	done := r.remain <= 0
	if done {
		typ, buf = r.typ, r.buf
		s.reassembly = nil
	}
	cb := s.Callbacks.Data
	s.mu.Unlock()

	if done && cb != nil {
		cb(typ, buf)
	}
	return nil
}

func (t *Tunnel) handleRelease() error {
	s := t.State
	s.mu.Lock()
	s.agentGrabbed = false
	cb := s.Callbacks.Release
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}
