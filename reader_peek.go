package dyncodec

import (
	"io"
)

// PeekableReader is a reader that allows peeking ahead at the underlying data stream.
// Unlike bufio it never reads more from R than a caller has asked to see, so the
// bytes after a decoded value stay in R.
type PeekableReader struct {
	R io.Reader // The underlying reader.
	B []byte    // The buffer for peeked data.
}

var _ source = (*PeekableReader)(nil)

// PeekReader returns a PeekableReader. If the given reader is already a
// PeekableReader, it is returned directly.
func PeekReader(r io.Reader) *PeekableReader {
	if pr, ok := r.(*PeekableReader); ok {
		return pr
	}
	return &PeekableReader{R: r}
}

// Peek returns the next n bytes without advancing the reader.
func (r *PeekableReader) Peek(n int) ([]byte, error) {
	// If the buffer already contains enough bytes, return them.
	if len(r.B) >= n {
		return r.B[:n], nil
	}

	// Read more data from the underlying reader to satisfy the peek request.
	i := len(r.B)
	r.B = append(r.B, make([]byte, n-i)...)

	var err error
	for i < n {
		read, er := r.R.Read(r.B[i:])
		i += read
		if er != nil {
			err = er
			break
		}
	}
	// Trim the buffer to the actual number of bytes read.
	r.B = r.B[:i]
	return r.B, err
}

// Read reads data into p. It first reads from the peeked buffer and then
// from the underlying reader if necessary.
func (r *PeekableReader) Read(p []byte) (n int, err error) {
	n = copy(p, r.B)
	if len(p) <= len(r.B) {
		r.B = r.B[n:]
		return n, nil
	}
	// The entire buffer is consumed.
	r.B = nil
	read, err := r.R.Read(p[n:])
	n += read
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

// ReadByte implements the io.ByteReader interface.
func (r *PeekableReader) ReadByte() (byte, error) {
	if len(r.B) == 0 {
		if br, ok := r.R.(io.ByteReader); ok {
			return br.ReadByte()
		}
	}
	b, err := r.Peek(1)
	if len(b) == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	c := b[0]
	r.B = r.B[1:]
	return c, nil
}

// Remaining reports the unread byte count when the underlying reader knows it.
func (r *PeekableReader) Remaining() int64 {
	if rs, ok := r.R.(interface{ Remaining() int64 }); ok {
		if n := rs.Remaining(); n >= 0 {
			return n + int64(len(r.B))
		}
	}
	return -1
}
