package dyncodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

const defaultBufferSize = 4096

// Reader is a decoding cursor over wire-encoded bytes.
// It tracks the first error; subsequent reads become no-ops.
type Reader struct {
	r     source
	count int64 // total bytes read
	err   error // first error encountered.
	order binary.ByteOrder
}

// NewReaderSize creates a new Reader. size is the bufio buffer size used when
// r offers neither buffering nor io.ByteReader.
func NewReaderSize(r io.Reader, size int) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}

	switch reader := r.(type) {
	// Share the cursor of an existing Reader.
	case *Reader:
		return &Reader{r: reader.r, order: reader.order}, nil

	case source:
		return &Reader{r: reader, order: Order}, nil
	case *bufio.Reader:
		return &Reader{r: &bufioReaderAdapter{Reader: reader}, order: Order}, nil
	case *bytes.Reader:
		return &Reader{r: &bytesReaderAdapter{reader}, order: Order}, nil
	case *bytes.Buffer:
		return &Reader{r: &bytesBufferReaderAdapter{Buffer: reader}, order: Order}, nil

	// A byte-wise reader is cheap enough to consume directly, and doing so
	// leaves the bytes after the value unread.
	case io.ByteReader:
		return &Reader{r: PeekReader(r), order: Order}, nil
	}

	if size < 16 {
		return nil, ErrSizeTooSmall
	}

	return &Reader{r: &bufioReaderAdapter{Reader: bufio.NewReaderSize(r, size)}, order: Order}, nil
}

// NewReader creates a new Reader with a default buffer size.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, defaultBufferSize)
}

// WithByteOrder allows setting a custom byte order and returns
// the configured for chaining.
func (r *Reader) WithByteOrder(order binary.ByteOrder) *Reader {
	r.order = order
	return r
}

// WithLimit caps the bytes this Reader may consume from now on.
func (r *Reader) WithLimit(n int64) *Reader {
	r.r = limitSource(r.r, n)
	return r
}

func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }

// Remaining returns the number of unread bytes, or -1 when unknown.
func (r *Reader) Remaining() int64 { return r.r.Remaining() }

// Read implements io.Reader over the same cursor, so a Reader can be handed
// to NewReader to start a nested read. A clean end of input is io.EOF and is
// not latched.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	if err == io.EOF {
		return n, err
	}
	r.setError(err)
	return n, r.err
}

// AtEOF reports whether the input is cleanly exhausted, without consuming anything.
func (r *Reader) AtEOF() bool {
	if r.err != nil {
		return false
	}
	if rem := r.r.Remaining(); rem >= 0 {
		return rem == 0
	}
	b, err := r.r.Peek(1)
	return len(b) == 0 && err == io.EOF
}

// setError records the first non-nil error, translating source failures
// into the decode error taxonomy.
func (r *Reader) setError(err error) {
	if r.err != nil || err == nil {
		return
	}
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		r.err = ErrUnexpectedEOF
	case isDecodeFailure(err):
		r.err = err
	default:
		r.err = fmt.Errorf("%w: %w", ErrIO, err)
	}
}

// Fail latches err unless an earlier error is already recorded.
func (r *Reader) Fail(err error) { r.setError(err) }

func isDecodeFailure(err error) bool {
	for _, target := range []error{ErrUnexpectedEOF, ErrLengthOverflow, ErrInvalidDiscriminant, ErrInvalidBool, ErrInvalidUTF8, ErrDuplicateKey, ErrIO, ErrNotSelfDescribing} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// readFull is an internal helper to read an exact number of bytes into buf.
func (r *Reader) readFull(buf []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, buf)
	r.count += int64(n)
	if err != nil {
		r.setError(err)
		return false
	}
	return true
}

// ReadBytes reads n bytes and returns a new byte slice. Large payloads are
// read in chunks so a bogus length cannot force a huge allocation up front.
func (r *Reader) ReadBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n <= 0 {
		return []byte{}
	}
	if n <= CHUNK_SIZE || r.r.Remaining() >= int64(n) {
		buf := make([]byte, n)
		if !r.readFull(buf) {
			return nil
		}
		return buf
	}

	var buf bytes.Buffer
	buf.Grow(CHUNK_SIZE)
	read, err := io.CopyN(&buf, r.r, int64(n))
	r.count += read
	if err != nil {
		r.setError(err)
		return nil
	}
	return buf.Bytes()
}

// maxZeroWidthLen caps sequences whose elements occupy no bytes at all. No
// amount of input bounds such a length, so it is bounded here.
const maxZeroWidthLen = 1 << 16

// unknownWidth tells ReadLen that the element width is not known.
const unknownWidth = -1

// ReadLen reads a length prefix for a sequence whose elements occupy at least
// minElem bytes each, rejecting lengths the remaining input cannot hold.
// A minElem of 0 means the elements are zero-width, and the length may not
// exceed maxZeroWidthLen. unknownWidth checks only that the length fits int.
func (r *Reader) ReadLen(dest *int, minElem int) {
	var n uint64
	r.ReadUint64(&n)
	if r.err != nil {
		return
	}
	if !fitsInt(n) {
		r.setError(fmt.Errorf("%w: %d does not fit in int", ErrLengthOverflow, n))
		return
	}
	length := int(n)
	switch {
	case minElem == 0:
		if length > maxZeroWidthLen {
			r.setError(fmt.Errorf("%w: %d zero-width elements, at most %d allowed", ErrLengthOverflow, length, maxZeroWidthLen))
			return
		}
	case minElem > 0:
		if rem := r.r.Remaining(); rem >= 0 {
			if mulOverflows(length, minElem) || int64(length*minElem) > rem {
				r.setError(fmt.Errorf("%w: %d elements need at least %d bytes, %d remain", ErrLengthOverflow, length, uint64(length)*uint64(minElem), rem))
				return
			}
		}
	}
	*dest = length
}

// ReadString reads a length-prefixed UTF-8 payload.
func (r *Reader) ReadString(dest *string) {
	var n int
	r.ReadLen(&n, 1)
	buf := r.ReadBytes(n)
	if r.err != nil {
		return
	}
	if !utf8.Valid(buf) {
		r.setError(fmt.Errorf("%w: string of %d bytes", ErrInvalidUTF8, n))
		return
	}
	*dest = string(buf)
}

// ReadByteSlice reads a length-prefixed raw byte payload.
func (r *Reader) ReadByteSlice(dest *[]byte) {
	var n int
	r.ReadLen(&n, 1)
	buf := r.ReadBytes(n)
	if r.err == nil {
		*dest = buf
	}
}

// --- Primitive Read Operations ---

func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	b, err := r.r.ReadByte()
	if err == nil {
		r.count++
	} else {
		r.setError(err)
	}
	return b, r.err
}

func (r *Reader) ReadBool(dest *bool) {
	b, err := r.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case 0:
		*dest = false
	case 1:
		*dest = true
	default:
		r.setError(fmt.Errorf("%w: 0x%02x", ErrInvalidBool, b))
	}
}

// ReadTag reads a one-byte presence tag; anything but 0 or 1 is rejected.
func (r *Reader) ReadTag(dest *bool) {
	b, err := r.ReadByte()
	if err != nil {
		return
	}
	if b > 1 {
		r.setError(fmt.Errorf("%w: option tag %d", ErrInvalidDiscriminant, b))
		return
	}
	*dest = b == 1
}

func (r *Reader) ReadUint8(dest *uint8) {
	if b, err := r.ReadByte(); err == nil {
		*dest = b
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	var buf [2]byte
	if r.readFull(buf[:]) {
		*dest = r.order.Uint16(buf[:])
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	var buf [4]byte
	if r.readFull(buf[:]) {
		*dest = r.order.Uint32(buf[:])
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	var buf [8]byte
	if r.readFull(buf[:]) {
		*dest = r.order.Uint64(buf[:])
	}
}

func (r *Reader) ReadUint128(dest *U128) {
	var buf [16]byte
	if !r.readFull(buf[:]) {
		return
	}
	if isLittleEndian(r.order) {
		dest.Lo, dest.Hi = r.order.Uint64(buf[:8]), r.order.Uint64(buf[8:])
	} else {
		dest.Hi, dest.Lo = r.order.Uint64(buf[:8]), r.order.Uint64(buf[8:])
	}
}

func (r *Reader) ReadInt8(dest *int8) {
	if b, err := r.ReadByte(); err == nil {
		*dest = int8(b)
	}
}

func (r *Reader) ReadInt16(dest *int16) {
	var v uint16
	r.ReadUint16(&v)
	if r.err == nil {
		*dest = int16(v)
	}
}

func (r *Reader) ReadInt32(dest *int32) {
	var v uint32
	r.ReadUint32(&v)
	if r.err == nil {
		*dest = int32(v)
	}
}

func (r *Reader) ReadInt64(dest *int64) {
	var v uint64
	r.ReadUint64(&v)
	if r.err == nil {
		*dest = int64(v)
	}
}

func (r *Reader) ReadInt128(dest *I128) {
	var v U128
	r.ReadUint128(&v)
	if r.err == nil {
		dest.Hi, dest.Lo = int64(v.Hi), v.Lo
	}
}

func (r *Reader) ReadFloat32(dest *float32) {
	var v uint32
	r.ReadUint32(&v)
	if r.err == nil {
		*dest = math.Float32frombits(v)
	}
}

func (r *Reader) ReadFloat64(dest *float64) {
	var v uint64
	r.ReadUint64(&v)
	if r.err == nil {
		*dest = math.Float64frombits(v)
	}
}

// ReadChar reads a single UTF-8 encoded scalar value (1 to 4 bytes).
func (r *Reader) ReadChar(dest *rune) {
	first, err := r.ReadByte()
	if err != nil {
		return
	}
	width := utf8Width(first)
	if width == 0 {
		r.setError(fmt.Errorf("%w: leading byte 0x%02x", ErrInvalidUTF8, first))
		return
	}
	var buf [utf8.UTFMax]byte
	buf[0] = first
	if width > 1 && !r.readFull(buf[1:width]) {
		return
	}
	c, size := utf8.DecodeRune(buf[:width])
	if c == utf8.RuneError && size <= 1 || size != width {
		r.setError(fmt.Errorf("%w: char % x", ErrInvalidUTF8, buf[:width]))
		return
	}
	*dest = c
}

func utf8Width(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

func isLittleEndian(order binary.ByteOrder) bool {
	return order.Uint16([]byte{1, 0}) == 1
}
