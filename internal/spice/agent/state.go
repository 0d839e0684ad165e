package agent

import "sync"

// reassembly tracks one in-flight inbound clipboard payload (§3 I5): size is
// how many bytes have been filled so far, remain is how many are still to
// arrive; size+remain always equals the announced length.
type reassembly struct {
	typ    ClipboardType
	buf    []byte
	size   int
	remain int
}

// Callbacks groups the four clipboard callback slots of §6's
// set_clipboard_cb (notice and data must both be provided or both absent;
// release and request are independent).
type Callbacks struct {
	Notice  func(types []ClipboardType)
	Data    func(typ ClipboardType, payload []byte)
	Release func()
	Request func(typ ClipboardType)
}

// State holds everything described in §3's "Agent state": the outbound
// queue, the token/flow-control counters, clipboard grab flags, and the
// inbound reassembly buffer. It has no socket of its own; the Tunnel type
// pairs it with a ChannelSender to actually move bytes.
type State struct {
	mu sync.Mutex // protects the fields below except the atomics

	hasAgent bool

	agentGrabbed  bool
	clientGrabbed bool
	currentType   ClipboardType

	reassembly *reassembly

	cbSupported bool
	cbSelection bool

	Callbacks Callbacks
}

// NewState creates an empty agent State.
func NewState() *State { return &State{} }

// HasAgent reports whether the agent lifecycle is currently active.
func (s *State) HasAgent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasAgent
}

// SetConnected marks the agent as connected (main-agent-connected /
// agent-connected-tokens, §4.5).
func (s *State) SetConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasAgent = true
}

// Disconnect drops has-agent and frees any in-progress clipboard
// reassembly (§4.5 "agent-disconnected").
func (s *State) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasAgent = false
	s.reassembly = nil
	s.agentGrabbed = false
	s.clientGrabbed = false
}
