package link

import (
	"encoding/binary"
	"fmt"
	"io"

	protoerr "github.com/sprice/spice-client/internal/errors"
)

// EncodeHeader serializes a link Header (magic + versions + size).
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.MajorVersion)
	binary.LittleEndian.PutUint32(buf[8:12], h.MinorVersion)
	binary.LittleEndian.PutUint32(buf[12:16], h.Size)
	return buf
}

// ReadHeader reads and decodes a link Header from r, validating the magic.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, protoerr.NewLinkError("read link header", err)
	}
	var h Header
	copy(h.Magic[:], buf[0:4])
	if h.Magic != Magic {
		return Header{}, protoerr.NewLinkError("validate magic", fmt.Errorf("got %q want %q", h.Magic, Magic))
	}
	h.MajorVersion = binary.LittleEndian.Uint32(buf[4:8])
	h.MinorVersion = binary.LittleEndian.Uint32(buf[8:12])
	h.Size = binary.LittleEndian.Uint32(buf[12:16])
	return h, nil
}

// EncodeMessage serializes the client's link Message body (everything after
// the link Header).
func EncodeMessage(m Message) []byte {
	buf := make([]byte, 0, 16+4*(len(m.CommonCaps)+len(m.ChannelCaps)))
	var fixed [10]byte
	binary.LittleEndian.PutUint32(fixed[0:4], m.SessionID)
	fixed[4] = byte(m.ChannelType)
	fixed[5] = m.ChannelID
	binary.LittleEndian.PutUint32(fixed[6:10], uint32(len(m.CommonCaps)))
	buf = append(buf, fixed[:]...)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(m.ChannelCaps)))
	buf = append(buf, n[:]...)
	for _, w := range m.CommonCaps {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		buf = append(buf, b[:]...)
	}
	for _, w := range m.ChannelCaps {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		buf = append(buf, b[:]...)
	}
	return buf
}

// ReadMessage decodes a link Message body of the given size from r.
func ReadMessage(r io.Reader, size uint32) (Message, error) {
	if size < 14 {
		return Message{}, protoerr.NewLinkError("read link message", fmt.Errorf("size %d too small", size))
	}
	fixed := make([]byte, 14)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return Message{}, protoerr.NewLinkError("read link message fixed fields", err)
	}
	m := Message{
		SessionID:   binary.LittleEndian.Uint32(fixed[0:4]),
		ChannelType: ChannelType(fixed[4]),
		ChannelID:   fixed[5],
	}
	numCommon := binary.LittleEndian.Uint32(fixed[6:10])
	numChannel := binary.LittleEndian.Uint32(fixed[10:14])

	rest := int64(size) - 14
	if rest != int64(4*(numCommon+numChannel)) {
		return Message{}, protoerr.NewLinkError("read link message", fmt.Errorf("caps length mismatch"))
	}
	m.CommonCaps = make([]uint32, numCommon)
	if err := readCapsWords(r, m.CommonCaps); err != nil {
		return Message{}, err
	}
	m.ChannelCaps = make([]uint32, numChannel)
	if err := readCapsWords(r, m.ChannelCaps); err != nil {
		return Message{}, err
	}
	return m, nil
}

func readCapsWords(r io.Reader, dst []uint32) error {
	for i := range dst {
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return protoerr.NewLinkError("read caps word", err)
		}
		dst[i] = binary.LittleEndian.Uint32(b[:])
	}
	return nil
}

// ReadReply decodes the server's link Reply body of the given size from r.
func ReadReply(r io.Reader, size uint32) (Reply, error) {
	const fixedLen = 4 + 4 + 4 + PubKeyBytes
	if size < fixedLen {
		return Reply{}, protoerr.NewLinkError("read link reply", fmt.Errorf("size %d too small", size))
	}
	fixed := make([]byte, 12)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return Reply{}, protoerr.NewLinkError("read link reply fixed fields", err)
	}
	var rep Reply
	rep.Error = binary.LittleEndian.Uint32(fixed[0:4])
	numCommon := binary.LittleEndian.Uint32(fixed[4:8])
	numChannel := binary.LittleEndian.Uint32(fixed[8:12])

	rest := int64(size) - 12 - PubKeyBytes
	if rest != int64(4*(numCommon+numChannel)) {
		return Reply{}, protoerr.NewLinkError("read link reply", fmt.Errorf("caps length mismatch"))
	}
	rep.CommonCaps = make([]uint32, numCommon)
	if err := readCapsWords(r, rep.CommonCaps); err != nil {
		return Reply{}, err
	}
	rep.ChannelCaps = make([]uint32, numChannel)
	if err := readCapsWords(r, rep.ChannelCaps); err != nil {
		return Reply{}, err
	}
	if _, err := io.ReadFull(r, rep.PubKey[:]); err != nil {
		return Reply{}, protoerr.NewLinkError("read pub key", err)
	}
	return rep, nil
}

// EncodeReply serializes a Reply — used by tests standing in for a server.
func EncodeReply(rep Reply) []byte {
	buf := make([]byte, 0, 12+4*(len(rep.CommonCaps)+len(rep.ChannelCaps))+PubKeyBytes)
	var fixed [12]byte
	binary.LittleEndian.PutUint32(fixed[0:4], rep.Error)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(len(rep.CommonCaps)))
	binary.LittleEndian.PutUint32(fixed[8:12], uint32(len(rep.ChannelCaps)))
	buf = append(buf, fixed[:]...)
	for _, w := range rep.CommonCaps {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		buf = append(buf, b[:]...)
	}
	for _, w := range rep.ChannelCaps {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		buf = append(buf, b[:]...)
	}
	buf = append(buf, rep.PubKey[:]...)
	return buf
}
