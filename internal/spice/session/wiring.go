package session

import (
	"fmt"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/spice/channel"
	"github.com/sprice/spice-client/internal/spice/inputs"
	"github.com/sprice/spice-client/internal/spice/link"
	"github.com/sprice/spice-client/internal/spice/mainchan"
	"github.com/sprice/spice-client/internal/spice/playback"
)

// onMainInit records the server-assigned session id once main-init arrives
// (§4.5); every sub-channel connect dialed afterward carries this id.
func (s *Session) onMainInit(init mainchan.InitPayload) {
	s.mu.Lock()
	s.sessionID = init.SessionID
	s.mu.Unlock()
	s.log.Info("main channel ready", "session_id", init.SessionID)
}

// onChannelsList reactively dials the inputs and (if requested) playback
// channels named by the server, enforcing the "already connected" guard of
// §4.5 via mainchan.ValidateNotConnected.
func (s *Session) onChannelsList(entries []mainchan.ChannelListEntry) error {
	for _, e := range entries {
		switch link.ChannelType(e.ChannelType) {
		case link.ChannelInputs:
			s.mu.Lock()
			already := s.inputsCh != nil
			s.mu.Unlock()
			if err := mainchan.ValidateNotConnected(already, e.ChannelType); err != nil {
				return err
			}
			if err := s.connectInputs(e.ChannelID); err != nil {
				return err
			}

		case link.ChannelPlayback:
			if !s.playbackRequested {
				continue
			}
			s.mu.Lock()
			already := s.playbackCh != nil
			s.mu.Unlock()
			if err := mainchan.ValidateNotConnected(already, e.ChannelType); err != nil {
				return err
			}
			if err := s.connectPlayback(e.ChannelID); err != nil {
				return err
			}
		}
	}
	return nil
}

// connectInputs dials the inputs sub-channel and wires its handler's mouse
// state to the session's outbound Inputs API (§4.6, §3: both sides share
// one MouseState so a motion send and its eventual ack agree).
func (s *Session) connectInputs(channelID uint8) error {
	s.mu.Lock()
	sessionID := s.sessionID
	s.mu.Unlock()

	mouse := &inputs.MouseState{}
	handler := inputs.NewHandler(mouse)

	ch, err := channel.Connect(s.ctx, s.host, s.port, s.password, sessionID, link.ChannelInputs, channelID, handler)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.inputsCh = ch
	s.inputsHandler = handler
	s.inputsAPI = inputs.New(ch, mouse, handler)
	s.mu.Unlock()

	s.runChannelLoop(link.ChannelInputs, ch)
	return nil
}

// connectPlayback dials the playback sub-channel and wires its demuxed
// callbacks to whatever the caller registered via SetAudioCallbacks (§4.7).
func (s *Session) connectPlayback(channelID uint8) error {
	s.mu.Lock()
	sessionID := s.sessionID
	cb := s.audioCB
	s.mu.Unlock()

	handler := playback.NewHandler()
	handler.OnStart = cb.onStart
	handler.OnStop = cb.onStop
	handler.OnData = cb.onData
	handler.OnVolume = cb.onVolume
	handler.OnMute = cb.onMute

	ch, err := channel.Connect(s.ctx, s.host, s.port, s.password, sessionID, link.ChannelPlayback, channelID, handler)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.playbackCh = ch
	s.playbackHandler = handler
	s.mu.Unlock()

	s.runChannelLoop(link.ChannelPlayback, ch)
	return nil
}

// onAgentConnected credits the tunnel's token bucket and marks the agent
// state connected (§4.5). tokensValid distinguishes agent-connected (no
// grant) from agent-connected-tokens (a real grant).
func (s *Session) onAgentConnected(tokens uint32, tokensValid bool) {
	s.tunnel.State.SetConnected()
	if tokensValid && tokens > 0 {
		if err := s.tunnel.Credit(tokens); err != nil {
			s.log.Warn("agent credit failed", "error", err)
		}
	}
}

// onAgentDisconnected drops the agent state and any in-flight clipboard
// reassembly (§4.5).
func (s *Session) onAgentDisconnected() {
	s.tunnel.State.Disconnect()
}

// onAgentData routes one main-agent-data payload to the tunnel (§4.8).
func (s *Session) onAgentData(payload []byte) error {
	return s.tunnel.HandleInbound(payload)
}

// onAgentToken credits an incremental token grant (§4.8 agent-token).
func (s *Session) onAgentToken(tokens uint32) {
	if err := s.tunnel.Credit(tokens); err != nil {
		s.log.Warn("agent token credit failed", "error", err)
	}
}

// agentUnavailableErr is returned by the clipboard, keyboard, mouse and
// mouse-mode API calls made before the agent or the relevant sub-channel has
// connected; its message reads "agent not connected" in each case.
func agentUnavailableErr(op string) error {
	return protoerr.NewProtocolError(op, fmt.Errorf("agent not connected"))
}
