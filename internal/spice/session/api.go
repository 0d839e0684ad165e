package session

import (
	"github.com/sprice/spice-client/internal/spice/agent"
	"github.com/sprice/spice-client/internal/spice/inputs"
	"github.com/sprice/spice-client/internal/spice/mainchan"
	"github.com/sprice/spice-client/internal/spice/playback"
)

// audioCallbacks mirrors §6's set_audio_cb registration, held on the
// Session so it can be wired into the playback Handler whenever that
// channel connects (channels-list may name it after the caller already
// registered callbacks, or vice versa).
type audioCallbacks struct {
	onStart  func(playback.Start)
	onStop   func()
	onData   func(payload []byte)
	onVolume func(nchannels uint8, volume []uint16)
	onMute   func(mute bool)
}

// KeyDown sends a key-down event for the given PS/2 scancode (§4.6, §6
// key_down).
func (s *Session) KeyDown(code uint32) error {
	in, err := s.requireInputs("key_down")
	if err != nil {
		return err
	}
	return in.KeyDown(code)
}

// KeyUp sends a key-up event for the given scancode (§6 key_up).
func (s *Session) KeyUp(code uint32) error {
	in, err := s.requireInputs("key_up")
	if err != nil {
		return err
	}
	return in.KeyUp(code)
}

// KeyModifiers returns the most recently reported key-modifier bitmap
// (§6 key_modifiers).
func (s *Session) KeyModifiers() (uint16, error) {
	s.mu.Lock()
	h := s.inputsHandler
	s.mu.Unlock()
	if h == nil {
		return 0, agentUnavailableErr("key_modifiers")
	}
	return h.Modifiers(), nil
}

// MouseMode requests server- or client-rendered cursor mode (§6
// mouse_mode). It may be sent at any point after the main channel is ready.
func (s *Session) MouseMode(server bool) error {
	s.mu.Lock()
	main := s.main
	s.mu.Unlock()
	if main == nil {
		return agentUnavailableErr("mouse_mode")
	}
	mode := mainchan.MouseModeClient
	if server {
		mode = mainchan.MouseModeServer
	}
	return main.Send(mainchan.MsgcMouseModeRequest, mainchan.EncodeMouseModeRequest(mode))
}

// MousePosition sends an absolute mouse position (§6 mouse_position).
func (s *Session) MousePosition(x, y int32) error {
	in, err := s.requireInputs("mouse_position")
	if err != nil {
		return err
	}
	return in.MousePosition(x, y)
}

// MouseMotion sends a relative mouse motion, internally split and batched
// per §4.6/§8 (§6 mouse_motion).
func (s *Session) MouseMotion(dx, dy int32) error {
	in, err := s.requireInputs("mouse_motion")
	if err != nil {
		return err
	}
	return in.MouseMotion(dx, dy)
}

// MousePress sends a mouse button press (§6 mouse_press).
func (s *Session) MousePress(button uint32) error {
	in, err := s.requireInputs("mouse_press")
	if err != nil {
		return err
	}
	return in.MousePress(button)
}

// MouseRelease sends a mouse button release (§6 mouse_release).
func (s *Session) MouseRelease(button uint32) error {
	in, err := s.requireInputs("mouse_release")
	if err != nil {
		return err
	}
	return in.MouseRelease(button)
}

func (s *Session) requireInputs(op string) (*inputs.Inputs, error) {
	s.mu.Lock()
	in := s.inputsAPI
	s.mu.Unlock()
	if in == nil {
		return nil, agentUnavailableErr(op)
	}
	return in, nil
}

// SetClipboardCallbacks registers the notice/data/release/request callbacks
// of §6's set_clipboard_cb. Safe to call before or after the agent
// connects.
func (s *Session) SetClipboardCallbacks(notice func(types []agent.ClipboardType), data func(typ agent.ClipboardType, payload []byte), release func(), request func(typ agent.ClipboardType)) {
	s.tunnel.State.Callbacks.Notice = notice
	s.tunnel.State.Callbacks.Data = data
	s.tunnel.State.Callbacks.Release = release
	s.tunnel.State.Callbacks.Request = request
}

// ClipboardGrab announces the client as clipboard owner for the given
// types (§6 clipboard_grab).
func (s *Session) ClipboardGrab(types []agent.ClipboardType) error {
	if !s.tunnel.State.HasAgent() {
		return agentUnavailableErr("clipboard_grab")
	}
	return s.tunnel.Grab(types)
}

// ClipboardRelease releases the client's clipboard ownership (§6
// clipboard_release).
func (s *Session) ClipboardRelease() error {
	if !s.tunnel.State.HasAgent() {
		return agentUnavailableErr("clipboard_release")
	}
	return s.tunnel.Release()
}

// ClipboardRequest requests the current clipboard contents in the given
// type (§6 clipboard_request).
func (s *Session) ClipboardRequest(typ agent.ClipboardType) error {
	if !s.tunnel.State.HasAgent() {
		return agentUnavailableErr("clipboard_request")
	}
	return s.tunnel.Request(typ)
}

// ClipboardDataStart begins an outbound clipboard payload of the given
// total size (§6 clipboard_data_start).
func (s *Session) ClipboardDataStart(typ agent.ClipboardType, size uint32) error {
	if !s.tunnel.State.HasAgent() {
		return agentUnavailableErr("clipboard_data_start")
	}
	return s.tunnel.DataStart(typ, size)
}

// ClipboardData appends one chunk of an in-progress outbound clipboard
// payload (§6 clipboard_data). Call ClipboardDataStart first.
func (s *Session) ClipboardData(chunk []byte) error {
	if !s.tunnel.State.HasAgent() {
		return agentUnavailableErr("clipboard_data")
	}
	return s.tunnel.Data(chunk)
}

// SetAudioCallbacks registers the start/stop/data/volume/mute callbacks of
// §6's set_audio_cb. If the playback channel is already connected, the
// running Handler is updated in place; otherwise the callbacks are stored
// and wired in when connectPlayback later runs.
func (s *Session) SetAudioCallbacks(onStart func(playback.Start), onStop func(), onData func(payload []byte), onVolume func(nchannels uint8, volume []uint16), onMute func(mute bool)) {
	s.mu.Lock()
	s.audioCB = audioCallbacks{onStart: onStart, onStop: onStop, onData: onData, onVolume: onVolume, onMute: onMute}
	h := s.playbackHandler
	s.mu.Unlock()

	if h != nil {
		h.OnStart = onStart
		h.OnStop = onStop
		h.OnData = onData
		h.OnVolume = onVolume
		h.OnMute = onMute
	}
}
