package dyncodec

import (
	"bufio"
	"bytes"
	"io"
)

// source is the byte cursor a Reader consumes. Remaining returns -1 when the
// number of unread bytes is unknown.
type source interface {
	io.Reader
	io.ByteReader
	Remaining() int64
	Peek(n int) ([]byte, error)
}

type (
	bytesReaderAdapter       struct{ *bytes.Reader }
	bytesBufferReaderAdapter struct{ *bytes.Buffer }
	bufioReaderAdapter       struct{ *bufio.Reader }
)

func (r *bytesReaderAdapter) Remaining() int64       { return int64(r.Len()) }
func (r *bytesBufferReaderAdapter) Remaining() int64 { return int64(r.Len()) }
func (r *bufioReaderAdapter) Remaining() int64       { return -1 }

// Peek reads ahead through ReadAt so the reader position is untouched.
func (r *bytesReaderAdapter) Peek(n int) ([]byte, error) {
	pos := r.Size() - int64(r.Len())
	buf := make([]byte, min(n, r.Len()))
	read, err := r.ReadAt(buf, pos)
	if read < n && err == nil {
		err = io.EOF
	}
	return buf[:read], err
}

// Peek returns a view of the unread part of the buffer.
func (r *bytesBufferReaderAdapter) Peek(n int) ([]byte, error) {
	b := r.Bytes()
	if len(b) < n {
		return b, io.EOF
	}
	return b[:n], nil
}

// limitedSource caps the bytes a single decode may consume. Reads past the
// cap behave as if the input ended there.
type limitedSource struct {
	src source
	n   int64 // bytes left under the cap
}

func limitSource(src source, n int64) source {
	if n <= 0 {
		return src
	}
	return &limitedSource{src: src, n: n}
}

func (l *limitedSource) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.src.Read(p)
	l.n -= int64(n)
	return n, err
}

func (l *limitedSource) ReadByte() (byte, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	b, err := l.src.ReadByte()
	if err == nil {
		l.n--
	}
	return b, err
}

func (l *limitedSource) Peek(n int) ([]byte, error) {
	if int64(n) > l.n {
		b, err := l.src.Peek(int(l.n))
		if err == nil {
			err = io.EOF
		}
		return b, err
	}
	return l.src.Peek(n)
}

func (l *limitedSource) Remaining() int64 {
	if rem := l.src.Remaining(); rem >= 0 && rem < l.n {
		return rem
	}
	return l.n
}
