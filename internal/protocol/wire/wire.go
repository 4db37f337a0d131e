// Package wire holds the big-endian primitives shared by the variant codec
// and packet framing.
package wire

import (
	"encoding/binary"
	"errors"
)

// NullLength marks a null byte array or string in a length prefix.
const NullLength uint32 = 0xFFFFFFFF

var ErrTruncated = errors.New("wire: truncated input")

// Writer accumulates encoded bytes. The zero value is ready to use.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteInt8(v int8)   { w.WriteUint8(uint8(v)) }
func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }
func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteBytes writes a uint32 length prefix followed by b. A nil slice is
// written as an empty array, not as null.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteNullBytes writes the null length sentinel with no payload.
func (w *Writer) WriteNullBytes() {
	w.WriteUint32(NullLength)
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the encoded bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader is a read cursor over a caller-owned buffer. Failed reads leave the
// cursor where it was.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// PeekUint32 returns the next uint32 without advancing.
func (r *Reader) PeekUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint32(r.buf[r.off : r.off+4]), nil
}

// ReadBytes reads a uint32 length N and then exactly N bytes. The null
// sentinel yields a nil slice. The returned slice is a copy.
func (r *Reader) ReadBytes() ([]byte, error) {
	start := r.off
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if n == NullLength {
		return nil, nil
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.off = start
		return nil, ErrTruncated
	}
	b, _ := r.next(int(n))
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Rewind moves the cursor back to off, which must come from Offset.
func (r *Reader) Rewind(off int) {
	if off >= 0 && off <= r.off {
		r.off = off
	}
}
