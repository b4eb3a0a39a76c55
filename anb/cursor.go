package anb

import (
	"encoding/binary"
	"io"
	"math"
)

// Reader reads little-endian primitives from an in-memory container.
// Offsets handed to Seek and returned by Offset are relative to base, the
// position of the YCSN header inside the buffer.
type Reader struct {
	buf  []byte
	base int64
	pos  int64
}

func NewReader(buf []byte, base int64) *Reader {
	return &Reader{buf: buf, base: base, pos: base}
}

// At returns a new reader positioned at offset, sharing the same buffer.
// Offsets past the end yield a reader whose every read fails.
func (r *Reader) At(offset uint64) *Reader {
	pos := int64(-1)
	if offset <= uint64(len(r.buf)) {
		pos = r.base + int64(offset)
	}
	return &Reader{buf: r.buf, base: r.base, pos: pos}
}

func (r *Reader) Seek(offset uint64) error {
	if offset > uint64(len(r.buf)) || r.base+int64(offset) > int64(len(r.buf)) {
		return io.ErrUnexpectedEOF
	}
	r.pos = r.base + int64(offset)
	return nil
}

// Offset returns the current position relative to base.
func (r *Reader) Offset() uint64 {
	if r.pos < r.base {
		return 0
	}
	return uint64(r.pos - r.base)
}

// Len returns the number of addressable bytes after base.
func (r *Reader) Len() uint64 {
	return uint64(int64(len(r.buf)) - r.base)
}

// Remaining returns the number of bytes left after the current position.
func (r *Reader) Remaining() uint64 {
	if r.pos < 0 || r.pos > int64(len(r.buf)) {
		return 0
	}
	return uint64(int64(len(r.buf)) - r.pos)
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || r.pos < 0 || r.pos > int64(len(r.buf)) || int64(n) > int64(len(r.buf))-r.pos {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+int64(n)]
	r.pos += int64(n)
	return b, nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Writer appends little-endian primitives to a growing buffer. Anything
// written before the writer was created (the preamble) is not counted by
// Offset.
type Writer struct {
	buf  []byte
	base int
}

func NewWriter(preamble []byte, sizeHint int) *Writer {
	buf := make([]byte, 0, len(preamble)+sizeHint)
	buf = append(buf, preamble...)
	return &Writer{buf: buf, base: len(preamble)}
}

func (w *Writer) Offset() uint64 {
	return uint64(len(w.buf) - w.base)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) WriteZeros(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// Pad writes zero bytes until Offset is a multiple of align.
func (w *Writer) Pad(align uint64) {
	if align <= 1 {
		return
	}
	if rem := w.Offset() % align; rem != 0 {
		w.WriteZeros(int(align - rem))
	}
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
