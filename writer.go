package dyncodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

type WriterPro interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
	Flush() error
}

// Writer provides a buffered writer that simplifies writing binary data.
// It wraps bufio.Writer for efficiency and tracks the first error that occurs.
// After an error, all subsequent write operations become no-ops.
type Writer struct {
	w     WriterPro
	count int64 // total bytes written
	err   error // first error encountered. Subsequent writes become no-ops.
	depth int
	order binary.ByteOrder
}

// NewWriterSize creates a new Writer with a specified buffer size.
func NewWriterSize(w io.Writer, size int) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}

	switch bw := w.(type) {
	// Nested writers share the outer buffer and leave flushing to it.
	case *Writer:
		return &Writer{w: bw.w, depth: bw.depth + 1, order: bw.order}, nil
	case *bufio.Writer:
		return &Writer{w: bw, depth: 1, order: Order}, nil

	// underlying is a buf so we don't need buffering
	case *BytesWriter:
		return &Writer{w: bw, order: Order}, nil
	case *bytes.Buffer:
		return &Writer{w: &bytesBufferWriterAdapter{bw}, order: Order}, nil
	}

	return &Writer{w: bufio.NewWriterSize(w, size), order: Order}, nil
}

// NewWriter creates a new Writer with a default buffer size.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterSize(w, defaultBufferSize)
}

type bytesBufferWriterAdapter struct{ *bytes.Buffer }

func (w *bytesBufferWriterAdapter) Flush() error { return nil }

// WithByteOrder allows setting a custom byte order and returns
// the configured for chaining.
func (w *Writer) WithByteOrder(order binary.ByteOrder) *Writer {
	w.order = order
	return w
}

// Write implements the io.Writer interface.
func (w *Writer) Write(buf []byte) (int, error) {
	if len(buf) == 0 || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(buf)
	if n < 0 {
		n, err = 0, ErrInvalidWrite
	}
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

// setError records the first non-nil error.
// This preserves the root cause of a failure chain instead of a later,
// less relevant error.
func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Fail latches err unless an earlier error is already recorded.
func (w *Writer) Fail(err error) { w.setError(err) }

// Result flushes the buffer and returns the final count and error state.
func (w *Writer) Result() (int64, error) {
	w.Flush()
	return w.count, w.err
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	// Only the outermost writer should be responsible for the final flush.
	if w.depth > 0 || w.err != nil {
		return w.err
	}
	err := w.w.Flush()
	w.setError(err)
	return err
}

// WriteBytes writes raw bytes with no length prefix.
func (w *Writer) WriteBytes(buf []byte) {
	_, _ = w.Write(buf)
}

// WriteLen writes a sequence, map, string or byte length prefix.
func (w *Writer) WriteLen(n int) {
	w.WriteUint64(uint64(n))
}

// WriteString writes a length-prefixed UTF-8 payload.
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	w.WriteLen(len(s))
	if s == "" || w.err != nil {
		return
	}
	n, err := w.w.WriteString(s)
	w.count += int64(n)
	w.setError(err)
}

// WriteByteSlice writes a length-prefixed raw byte payload.
func (w *Writer) WriteByteSlice(b []byte) {
	w.WriteLen(len(b))
	w.WriteBytes(b)
}

// --- Primitive Write Operations ---

func (w *Writer) WriteByte(v byte) error {
	if w.err != nil {
		return w.err
	}
	err := w.w.WriteByte(v)
	if err == nil {
		w.count++
	} else {
		w.err = err
	}
	return err
}

func (w *Writer) WriteBool(v bool) {
	if v {
		_ = w.WriteByte(1)
	} else {
		_ = w.WriteByte(0)
	}
}

// WriteTag writes a one-byte presence tag.
func (w *Writer) WriteTag(present bool) { w.WriteBool(present) }

func (w *Writer) WriteUint8(v uint8) { _ = w.WriteByte(v) }

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	w.order.PutUint16(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	w.order.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	w.order.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint128(v U128) {
	if w.err != nil {
		return
	}
	var buf [16]byte
	if isLittleEndian(w.order) {
		w.order.PutUint64(buf[:8], v.Lo)
		w.order.PutUint64(buf[8:], v.Hi)
	} else {
		w.order.PutUint64(buf[:8], v.Hi)
		w.order.PutUint64(buf[8:], v.Lo)
	}
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteInt8(v int8)       { _ = w.WriteByte(uint8(v)) }
func (w *Writer) WriteInt16(v int16)     { w.WriteUint16(uint16(v)) }
func (w *Writer) WriteInt32(v int32)     { w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64)     { w.WriteUint64(uint64(v)) }
func (w *Writer) WriteInt128(v I128)     { w.WriteUint128(U128{Hi: uint64(v.Hi), Lo: v.Lo}) }
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }
func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// WriteChar writes c as its UTF-8 bytes. Invalid runes become U+FFFD.
func (w *Writer) WriteChar(c rune) {
	if w.err != nil {
		return
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], c)
	_, _ = w.Write(buf[:n])
}
