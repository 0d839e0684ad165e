package playback

import (
	"fmt"
	"log/slog"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/logger"
	"github.com/sprice/spice-client/internal/spice/channel"
	"github.com/sprice/spice-client/internal/spice/wire"
)

// Handler implements channel.Handler for the playback channel (§4.7),
// demultiplexing to consumer callbacks exactly as §6's set_audio_cb
// describes (start, stop, data required; volume, mute optional).
type Handler struct {
	OnStart  func(Start)
	OnStop   func()
	OnData   func(payload []byte)
	OnVolume func(nchannels uint8, volume []uint16)
	OnMute   func(mute bool)

	log *slog.Logger
}

// NewHandler creates a playback Handler with a default logger.
func NewHandler() *Handler {
	return &Handler{log: logger.Logger().With("component", "playback")}
}

// FirstMessage requires playback-start (§4.7 lists it as the channel's
// leading record; nothing else is valid before it, mirroring main-init and
// inputs-init's first-message contracts in §4.5/§4.6).
func (h *Handler) FirstMessage(c *channel.Channel, f *wire.Frame) error {
	if f.Header.Type != MsgStart {
		return protoerr.NewProtocolError("playback first message", fmt.Errorf("expected playback-start, got type %d", f.Header.Type))
	}
	start, err := decodeStart(f.Payload)
	if err != nil {
		return err
	}
	h.log.Info("playback started", "channels", start.Channels, "frequency", start.Frequency, "format", FormatName(start.Format))
	if h.OnStart != nil {
		h.OnStart(start)
	}
	return nil
}

// Message demultiplexes stop/data/volume/mute (§4.7).
func (h *Handler) Message(c *channel.Channel, f *wire.Frame) error {
	switch f.Header.Type {
	case MsgStart:
		start, err := decodeStart(f.Payload)
		if err != nil {
			return err
		}
		if h.OnStart != nil {
			h.OnStart(start)
		}
		return nil

	case MsgStop:
		if h.OnStop != nil {
			h.OnStop()
		}
		return nil

	case MsgData:
		// raw samples: length = header.size - sizeof(header-payload-tag); the
		// payload here is already the tag-stripped sample buffer since this
		// implementation's data message carries no leading tag field (§4.7).
		if h.OnData != nil {
			h.OnData(f.Payload)
		}
		return nil

	case MsgVolume:
		nchannels, volume, err := decodeVolume(f.Payload)
		if err != nil {
			return err
		}
		if h.OnVolume != nil {
			h.OnVolume(nchannels, volume)
		}
		return nil

	case MsgMute:
		mute, err := decodeMute(f.Payload)
		if err != nil {
			return err
		}
		if h.OnMute != nil {
			h.OnMute(mute)
		}
		return nil

	default:
		h.log.Debug("unrecognized playback channel message discarded", "type", f.Header.Type, "size", len(f.Payload))
		return nil
	}
}
