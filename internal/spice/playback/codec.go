package playback

import (
	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/spice/wire"
)

func decodeStart(payload []byte) (Start, error) {
	r := wire.NewFieldReader(payload)
	channels, err := r.U8()
	if err != nil {
		return Start{}, protoerr.NewWireError("decode playback-start", err)
	}
	frequency, err := r.U32()
	if err != nil {
		return Start{}, protoerr.NewWireError("decode playback-start", err)
	}
	format, err := r.U16()
	if err != nil {
		return Start{}, protoerr.NewWireError("decode playback-start", err)
	}
	timeVal, err := r.U32()
	if err != nil {
		return Start{}, protoerr.NewWireError("decode playback-start", err)
	}
	return Start{Channels: channels, Frequency: frequency, Format: Format(format), Time: timeVal}, nil
}

func decodeVolume(payload []byte) (nchannels uint8, volume []uint16, err error) {
	r := wire.NewFieldReader(payload)
	nchannels, err = r.U8()
	if err != nil {
		return 0, nil, protoerr.NewWireError("decode volume", err)
	}
	volume = make([]uint16, nchannels)
	for i := range volume {
		v, err := r.U16()
		if err != nil {
			return 0, nil, protoerr.NewWireError("decode volume", err)
		}
		volume[i] = v
	}
	return nchannels, volume, nil
}

func decodeMute(payload []byte) (bool, error) {
	r := wire.NewFieldReader(payload)
	v, err := r.U8()
	if err != nil {
		return false, protoerr.NewWireError("decode mute", err)
	}
	return v != 0, nil
}
