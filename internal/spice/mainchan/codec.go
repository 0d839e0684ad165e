package mainchan

import (
	"fmt"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// InitPayload is the decoded body of main-init (§4.5): session id, initial
// agent token grant, the agent-connected flag, and the server's current
// mouse mode.
type InitPayload struct {
	SessionID        uint32
	AgentTokens      uint32
	AgentConnected   bool
	CurrentMouseMode MouseMode
}

func decodeInit(payload []byte) (InitPayload, error) {
	r := wire.NewFieldReader(payload)
	sessionID, err := r.U32()
	if err != nil {
		return InitPayload{}, protoerr.NewWireError("decode main-init", err)
	}
	agentTokens, err := r.U32()
	if err != nil {
		return InitPayload{}, protoerr.NewWireError("decode main-init", err)
	}
	agentConnectedByte, err := r.U8()
	if err != nil {
		return InitPayload{}, protoerr.NewWireError("decode main-init", err)
	}
	mouseMode, err := r.U32()
	if err != nil {
		return InitPayload{}, protoerr.NewWireError("decode main-init", err)
	}
	return InitPayload{
		SessionID:        sessionID,
		AgentTokens:      agentTokens,
		AgentConnected:   agentConnectedByte != 0,
		CurrentMouseMode: MouseMode(mouseMode),
	}, nil
}

func decodeChannelsList(payload []byte) ([]ChannelListEntry, error) {
	r := wire.NewFieldReader(payload)
	count, err := r.U32()
	if err != nil {
		return nil, protoerr.NewWireError("decode channels-list", err)
	}
	entries := make([]ChannelListEntry, count)
	for i := range entries {
		ct, err := r.U8()
		if err != nil {
			return nil, protoerr.NewWireError("decode channels-list entry", err)
		}
		cid, err := r.U8()
		if err != nil {
			return nil, protoerr.NewWireError("decode channels-list entry", err)
		}
		entries[i] = ChannelListEntry{ChannelType: ct, ChannelID: cid}
	}
	return entries, nil
}

func decodeTokenCount(op string, payload []byte) (uint32, error) {
	r := wire.NewFieldReader(payload)
	n, err := r.U32()
	if err != nil {
		return 0, protoerr.NewWireError(op, err)
	}
	return n, nil
}

// encodeAttachChannels builds the empty attach-channels payload (§4.5: the
// client sends this after main-init to enumerate remaining channels).
func encodeAttachChannels() []byte { return nil }

// encodeMouseModeRequest builds the mouse-mode-request payload requesting
// client-side rendering.
func encodeMouseModeRequest(mode MouseMode) []byte {
	w := wire.NewFieldWriter(4)
	w.PutU32(uint32(mode))
	return w.Bytes()
}

// EncodeMouseModeRequest builds the mouse-mode-request payload, exported so
// the session package can send it on demand (§6 mouse_mode) rather than
// only during the main-init handshake.
func EncodeMouseModeRequest(mode MouseMode) []byte { return encodeMouseModeRequest(mode) }

// ValidateNotConnected enforces §4.5's "connecting an already-connected
// sub-channel is a protocol violation" rule; the session package calls this
// before dialing a channel named in channels-list.
func ValidateNotConnected(connected bool, channelType uint8) error {
	if connected {
		return protoerr.NewProtocolError("channels-list", fmt.Errorf("channel type %d already connected", channelType))
	}
	return nil
}
