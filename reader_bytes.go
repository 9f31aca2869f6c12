package dyncodec

import "io"

// BytesReader is an io.Reader that read from a pre-allocated byte slice.
type BytesReader struct {
	B []byte // source slice
	N int    // current read position
}

var _ source = (*BytesReader)(nil)

// NewBytesReader creates a new BytesReader.
func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{B: b}
}

// Read implements the [io.Reader] interface.
func (r *BytesReader) Read(p []byte) (int, error) {
	if r.N >= len(r.B) {
		return 0, io.EOF
	}
	n := copy(p, r.B[r.N:])
	r.N += n
	return n, nil
}

// ReadByte implements the [io.ByteReader] interface.
func (r *BytesReader) ReadByte() (byte, error) {
	if r.N >= len(r.B) {
		return 0, io.EOF
	}
	b := r.B[r.N]
	r.N++
	return b, nil
}

// Peek returns the next n bytes without advancing the reader. The slice
// aliases the underlying buffer.
func (r *BytesReader) Peek(n int) ([]byte, error) {
	rest := r.B[min(r.N, len(r.B)):]
	if len(rest) < n {
		return rest, io.EOF
	}
	return rest[:n], nil
}

// Remaining returns the number of unread bytes.
func (r *BytesReader) Remaining() int64 { return int64(r.Available()) }

// Reset rewinds to the start so the same bytes can be decoded again.
func (r *BytesReader) Reset() { r.N = 0 }

// Available returns the number of bytes available for reading.
func (r *BytesReader) Available() int {
	length := len(r.B) - r.N
	if length <= 0 {
		return 0
	}
	return length
}
