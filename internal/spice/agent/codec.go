package agent

import (
	"fmt"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/spice/wire"
)

func encodeHeader(h Header) []byte {
	w := wire.NewFieldWriter(HeaderSize)
	w.PutU32(h.Protocol)
	w.PutU32(uint32(h.Type))
	w.PutU64(h.Opaque)
	w.PutU32(h.Size)
	return w.Bytes()
}

func decodeHeader(payload []byte) (Header, []byte, error) {
	r := wire.NewFieldReader(payload)
	protocol, err := r.U32()
	if err != nil {
		return Header{}, nil, protoerr.NewAgentError("decode agent header", err)
	}
	msgType, err := r.U32()
	if err != nil {
		return Header{}, nil, protoerr.NewAgentError("decode agent header", err)
	}
	opaque, err := r.U64()
	if err != nil {
		return Header{}, nil, protoerr.NewAgentError("decode agent header", err)
	}
	size, err := r.U32()
	if err != nil {
		return Header{}, nil, protoerr.NewAgentError("decode agent header", err)
	}
	if protocol != ProtocolVersion {
		return Header{}, nil, protoerr.NewAgentError("decode agent header", fmt.Errorf("unsupported protocol %d", protocol))
	}
	rest, _ := r.Bytes(r.Remaining())
	return Header{Protocol: protocol, Type: MsgType(msgType), Opaque: opaque, Size: size}, rest, nil
}

func encodeCapabilities(caps uint32, request bool) []byte {
	w := wire.NewFieldWriter(8)
	w.PutU32(caps)
	if request {
		w.PutU32(RequestFlag)
	} else {
		w.PutU32(0)
	}
	return w.Bytes()
}

func decodeCapabilities(payload []byte) (caps uint32, request bool, err error) {
	r := wire.NewFieldReader(payload)
	caps, err = r.U32()
	if err != nil {
		return 0, false, protoerr.NewAgentError("decode announce-capabilities", err)
	}
	flags, err := r.U32()
	if err != nil {
		// a peer may omit the request flag entirely; treat as not-requested.
		return caps, false, nil
	}
	return caps, flags&RequestFlag != 0, nil
}

// selectionPreambleSize is the opaque 4-byte selection field skipped on
// grab/release when cbSelection is negotiated (§4.8, §9: "treat as
// opaque").
const selectionPreambleSize = 4

func decodeGrabTypes(payload []byte, cbSelection bool) ([]ClipboardType, error) {
	r := wire.NewFieldReader(payload)
	if cbSelection {
		if _, err := r.Bytes(selectionPreambleSize); err != nil {
			return nil, protoerr.NewAgentError("decode clipboard-grab", err)
		}
	}
	if r.Remaining() > MaxAnnounceBytes {
		return nil, protoerr.NewAgentError("decode clipboard-grab", fmt.Errorf("type list too large: %d bytes", r.Remaining()))
	}
	if r.Remaining()%4 != 0 {
		return nil, protoerr.NewAgentError("decode clipboard-grab", fmt.Errorf("type list size %d not a multiple of 4", r.Remaining()))
	}
	n := r.Remaining() / 4
	types := make([]ClipboardType, n)
	for i := range types {
		v, err := r.U32()
		if err != nil {
			return nil, protoerr.NewAgentError("decode clipboard-grab", err)
		}
		types[i] = ClipboardType(v)
	}
	return types, nil
}

func encodeGrab(types []ClipboardType, cbSelection bool) []byte {
	w := wire.NewFieldWriter(selectionPreambleSize + len(types)*4)
	if cbSelection {
		w.PutU32(0)
	}
	for _, t := range types {
		w.PutU32(uint32(t))
	}
	return w.Bytes()
}

func decodeRequestType(payload []byte, cbSelection bool) (ClipboardType, error) {
	r := wire.NewFieldReader(payload)
	if cbSelection {
		if _, err := r.Bytes(selectionPreambleSize); err != nil {
			return 0, protoerr.NewAgentError("decode clipboard-request", err)
		}
	}
	v, err := r.U32()
	if err != nil {
		return 0, protoerr.NewAgentError("decode clipboard-request", err)
	}
	return ClipboardType(v), nil
}

func encodeRequest(t ClipboardType, cbSelection bool) []byte {
	w := wire.NewFieldWriter(selectionPreambleSize + 4)
	if cbSelection {
		w.PutU32(0)
	}
	w.PutU32(uint32(t))
	return w.Bytes()
}

// clipboardTypeFieldSize is the fixed-layout type field preceding a
// clipboard message's payload (§4.8's payload-size arithmetic).
const clipboardTypeFieldSize = 4

func preambleSize(cbSelection bool) int {
	if cbSelection {
		return selectionPreambleSize
	}
	return 0
}

func decodeClipboardType(payload []byte, cbSelection bool) (ClipboardType, []byte, error) {
	r := wire.NewFieldReader(payload)
	if cbSelection {
		if _, err := r.Bytes(selectionPreambleSize); err != nil {
			return 0, nil, protoerr.NewAgentError("decode clipboard", err)
		}
	}
	v, err := r.U32()
	if err != nil {
		return 0, nil, protoerr.NewAgentError("decode clipboard", err)
	}
	rest, _ := r.Bytes(r.Remaining())
	return ClipboardType(v), rest, nil
}

func encodeClipboardPrefix(t ClipboardType, cbSelection bool) []byte {
	w := wire.NewFieldWriter(selectionPreambleSize + clipboardTypeFieldSize)
	if cbSelection {
		w.PutU32(0)
	}
	w.PutU32(uint32(t))
	return w.Bytes()
}
