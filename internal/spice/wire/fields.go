package wire

import (
	"encoding/binary"
	"fmt"

	protoerr "github.com/sprice/spice-client/internal/errors"
)

// FieldReader walks a payload slice field-by-field over an in-memory buffer,
// since mini-header payloads are already fully read into memory by ReadFrame.
type FieldReader struct {
	buf []byte
	off int
}

// NewFieldReader wraps buf for sequential little-endian field extraction.
func NewFieldReader(buf []byte) *FieldReader { return &FieldReader{buf: buf} }

// Remaining returns the number of unread bytes.
func (f *FieldReader) Remaining() int { return len(f.buf) - f.off }

// Bytes returns a slice over the next n bytes without copying, advancing the
// cursor. Returns an error if fewer than n bytes remain.
func (f *FieldReader) Bytes(n int) ([]byte, error) {
	if f.Remaining() < n {
		return nil, protoerr.NewWireError("field read", fmt.Errorf("need %d bytes, have %d", n, f.Remaining()))
	}
	b := f.buf[f.off : f.off+n]
	f.off += n
	return b, nil
}

// U32 reads one little-endian uint32.
func (f *FieldReader) U32() (uint32, error) {
	b, err := f.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U16 reads one little-endian uint16.
func (f *FieldReader) U16() (uint16, error) {
	b, err := f.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U8 reads one byte.
func (f *FieldReader) U8() (uint8, error) {
	b, err := f.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I32 reads one little-endian signed int32.
func (f *FieldReader) I32() (int32, error) {
	v, err := f.U32()
	return int32(v), err
}

// U64 reads one little-endian uint64 (used by the agent header's opaque
// field, §4.8).
func (f *FieldReader) U64() (uint64, error) {
	b, err := f.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// FieldWriter appends little-endian fields into a growing byte buffer.
type FieldWriter struct {
	buf []byte
}

// NewFieldWriter creates an empty writer, optionally pre-sizing its backing
// array via cap.
func NewFieldWriter(cap int) *FieldWriter {
	return &FieldWriter{buf: make([]byte, 0, cap)}
}

func (f *FieldWriter) PutU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *FieldWriter) PutU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *FieldWriter) PutU8(v uint8) {
	f.buf = append(f.buf, v)
}

func (f *FieldWriter) PutU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *FieldWriter) PutBytes(b []byte) {
	f.buf = append(f.buf, b...)
}

// Bytes returns the accumulated buffer.
func (f *FieldWriter) Bytes() []byte { return f.buf }
