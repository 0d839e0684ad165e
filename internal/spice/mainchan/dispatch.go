package mainchan

import (
	"fmt"
	"log/slog"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/logger"
	"github.com/sprice/spice-client/internal/spice/channel"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// Handler implements channel.Handler for the main channel (§4.5). It holds
// exported callback fields the owning session wires up: an On* field per
// event, dispatched by mini-header message type rather than command name.
type Handler struct {
	// OnInit fires once, after main-init is decoded and the mouse-mode /
	// attach-channels handshake has been sent.
	OnInit func(InitPayload)
	// OnChannelsList fires for channels-list; the session decides which
	// entries need a fresh sub-channel connect and enforces the
	// already-connected protocol violation (§4.5), since channel connection
	// bookkeeping is session-owned (§3).
	OnChannelsList func(entries []ChannelListEntry) error
	// OnAgentConnected fires for both agent-connected and
	// agent-connected-tokens; tokensValid distinguishes whether tokens
	// carries a meaningful grant.
	OnAgentConnected func(tokens uint32, tokensValid bool)
	OnAgentDisconnected func()
	OnAgentData         func(payload []byte) error
	OnAgentToken        func(tokens uint32)

	log *slog.Logger
}

// NewHandler creates a main-channel Handler with a default logger.
func NewHandler() *Handler {
	return &Handler{log: logger.Logger().With("component", "mainchan")}
}

// FirstMessage requires main-init and nothing else (§4.5: "anything else
// fails"). On success it replies with mouse-mode-request (only if the
// server reports server-mouse, and strictly before attach-channels per §8
// scenario 1) and then attach-channels.
func (h *Handler) FirstMessage(c *channel.Channel, f *wire.Frame) error {
	if f.Header.Type != MsgInit {
		return protoerr.NewProtocolError("main first message", fmt.Errorf("expected main-init, got type %d", f.Header.Type))
	}
	init, err := decodeInit(f.Payload)
	if err != nil {
		return err
	}
	h.log.Info("main-init received", "session_id", init.SessionID, "agent_tokens", init.AgentTokens, "agent_connected", init.AgentConnected, "mouse_mode", init.CurrentMouseMode)

	if init.CurrentMouseMode == MouseModeServer {
		if err := c.Send(MsgcMouseModeRequest, encodeMouseModeRequest(MouseModeClient)); err != nil {
			return err
		}
	}
	if err := c.Send(MsgcAttachChannels, encodeAttachChannels()); err != nil {
		return err
	}

	if h.OnInit != nil {
		h.OnInit(init)
	}
	if init.AgentConnected && h.OnAgentConnected != nil {
		h.OnAgentConnected(init.AgentTokens, true)
	}
	return nil
}

// Message handles every main-channel message after main-init (§4.5).
func (h *Handler) Message(c *channel.Channel, f *wire.Frame) error {
	switch f.Header.Type {
	case MsgChannelsList:
		entries, err := decodeChannelsList(f.Payload)
		if err != nil {
			return err
		}
		if h.OnChannelsList != nil {
			return h.OnChannelsList(entries)
		}
		return nil

	case MsgAgentConnected:
		if h.OnAgentConnected != nil {
			h.OnAgentConnected(0, false)
		}
		return nil

	case MsgAgentConnectedTokens:
		tokens, err := decodeTokenCount("decode agent-connected-tokens", f.Payload)
		if err != nil {
			return err
		}
		if h.OnAgentConnected != nil {
			h.OnAgentConnected(tokens, true)
		}
		return nil

	case MsgAgentDisconnected:
		if h.OnAgentDisconnected != nil {
			h.OnAgentDisconnected()
		}
		return nil

	case MsgAgentData:
		if h.OnAgentData != nil {
			return h.OnAgentData(f.Payload)
		}
		return nil

	case MsgAgentToken:
		tokens, err := decodeTokenCount("decode agent-token", f.Payload)
		if err != nil {
			return err
		}
		if h.OnAgentToken != nil {
			h.OnAgentToken(tokens)
		}
		return nil

	default:
		h.log.Debug("unrecognized main channel message discarded", "type", f.Header.Type, "size", len(f.Payload))
		return nil
	}
}
