// Package spice is the importable public API of the module (§6): it wraps
// the internal event loop and channel plumbing behind a single *Client
// value, so an external consumer never needs to reach into internal/spice.
package spice

import (
	"context"
	"time"

	"github.com/sprice/spice-client/internal/spice/agent"
	"github.com/sprice/spice-client/internal/spice/playback"
	"github.com/sprice/spice-client/internal/spice/session"
)

// ClipboardType identifies a clipboard data format (§4.8, §6).
type ClipboardType = agent.ClipboardType

// Clipboard data types recognized by the agent sub-protocol (§4.8).
const (
	ClipboardNone     = agent.ClipboardNone
	ClipboardUTF8Text = agent.ClipboardUTF8Text
	ClipboardPNG      = agent.ClipboardPNG
	ClipboardBMP      = agent.ClipboardBMP
	ClipboardTIFF     = agent.ClipboardTIFF
	ClipboardJPG      = agent.ClipboardJPG
)

// AudioStart describes a playback-channel stream-start announcement (§4.7,
// §6 set_audio_cb's start callback).
type AudioStart = playback.Start

// Client is the caller-owned public handle for one SPICE connection (§6,
// §9 design note: explicit owner value rather than a process-wide
// singleton). It wraps a *session.Session one-to-one.
type Client struct {
	sess *session.Session
}

// Connect dials the main channel, negotiates the link, authenticates, and
// starts the event loop (§6 connect). Inputs and, if playback is true,
// playback channels are connected reactively once the server's
// channels-list names them (§4.5).
func Connect(ctx context.Context, host string, port int, password string, playback bool) (*Client, error) {
	sess, err := session.Connect(ctx, host, port, password, playback)
	if err != nil {
		return nil, err
	}
	return &Client{sess: sess}, nil
}

// Disconnect tears down all channels and waits for their read loops to
// exit (§6 disconnect).
func (c *Client) Disconnect() error {
	return c.sess.Disconnect()
}

// Ready reports whether both the main and inputs channels are connected
// (§6 ready).
func (c *Client) Ready() bool {
	return c.sess.Ready()
}

// SessionID returns the server-assigned session id learned from main-init,
// or zero before it arrives or after teardown.
func (c *Client) SessionID() uint32 {
	return c.sess.SessionID()
}

// CorrelationID returns the client-generated identifier used to tie this
// connection's log lines together across its whole lifetime.
func (c *Client) CorrelationID() string {
	return c.sess.CorrelationID()
}

// Process runs one event-loop tick, waiting up to timeoutMs milliseconds
// for channel events; it returns false once the session has torn down
// (§6 process(timeout_ms)).
func (c *Client) Process(timeoutMs int) bool {
	return c.sess.Process(time.Duration(timeoutMs) * time.Millisecond)
}

// KeyDown sends a key-down event for the given PS/2 scancode (§6 key_down).
func (c *Client) KeyDown(code uint32) error { return c.sess.KeyDown(code) }

// KeyUp sends a key-up event for the given scancode (§6 key_up).
func (c *Client) KeyUp(code uint32) error { return c.sess.KeyUp(code) }

// KeyModifiers returns the most recently reported key-modifier bitmap
// (§6 key_modifiers).
func (c *Client) KeyModifiers() (uint16, error) { return c.sess.KeyModifiers() }

// MouseMode requests server- or client-rendered cursor mode (§6 mouse_mode).
func (c *Client) MouseMode(server bool) error { return c.sess.MouseMode(server) }

// MousePosition sends an absolute mouse position (§6 mouse_position).
func (c *Client) MousePosition(x, y int32) error { return c.sess.MousePosition(x, y) }

// MouseMotion sends a relative mouse motion (§6 mouse_motion).
func (c *Client) MouseMotion(dx, dy int32) error { return c.sess.MouseMotion(dx, dy) }

// MousePress sends a mouse button press (§6 mouse_press).
func (c *Client) MousePress(button uint32) error { return c.sess.MousePress(button) }

// MouseRelease sends a mouse button release (§6 mouse_release).
func (c *Client) MouseRelease(button uint32) error { return c.sess.MouseRelease(button) }

// SetClipboardCallbacks registers the notice/data/release/request callbacks
// of §6's set_clipboard_cb.
func (c *Client) SetClipboardCallbacks(notice func(types []ClipboardType), data func(typ ClipboardType, payload []byte), release func(), request func(typ ClipboardType)) {
	c.sess.SetClipboardCallbacks(notice, data, release, request)
}

// ClipboardGrab announces the client as clipboard owner for the given types
// (§6 clipboard_grab).
func (c *Client) ClipboardGrab(types []ClipboardType) error { return c.sess.ClipboardGrab(types) }

// ClipboardRelease releases the client's clipboard ownership (§6
// clipboard_release).
func (c *Client) ClipboardRelease() error { return c.sess.ClipboardRelease() }

// ClipboardRequest requests the current clipboard contents in the given
// type (§6 clipboard_request).
func (c *Client) ClipboardRequest(typ ClipboardType) error { return c.sess.ClipboardRequest(typ) }

// ClipboardDataStart begins an outbound clipboard payload of the given
// total size (§6 clipboard_data_start).
func (c *Client) ClipboardDataStart(typ ClipboardType, size uint32) error {
	return c.sess.ClipboardDataStart(typ, size)
}

// ClipboardData appends one chunk of an in-progress outbound clipboard
// payload (§6 clipboard_data).
func (c *Client) ClipboardData(chunk []byte) error { return c.sess.ClipboardData(chunk) }

// SetAudioCallbacks registers the start/stop/data/volume/mute callbacks of
// §6's set_audio_cb.
func (c *Client) SetAudioCallbacks(onStart func(AudioStart), onStop func(), onData func(payload []byte), onVolume func(nchannels uint8, volume []uint16), onMute func(mute bool)) {
	c.sess.SetAudioCallbacks(onStart, onStop, onData, onVolume, onMute)
}
