package dyncodec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with an nil interface
	ErrNilIO = errors.New("dyncodec: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrSizeTooSmall indicates a size conflict with bufio
	ErrSizeTooSmall = errors.New("dyncodec: NewReaderSize with a size smaller than 16 conflict with bufio")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("dyncodec: writer returned invalid count from Write")

	// ErrDiscardNegative indicates a Discard operation was attempted with a negative byte count.
	ErrDiscardNegative = errors.New("dyncodec: cannot discard negative number of bytes")

	// ErrTruncatedData indicates that fewer bytes were produced than the value's size.
	ErrTruncatedData = errors.New("dyncodec: truncated data")
)

// Decode failures. Every error returned by a decode call wraps exactly one of these.
var (
	// ErrUnexpectedEOF indicates the input ended before a required read completed.
	ErrUnexpectedEOF = errors.New("dyncodec: unexpected end of input")

	// ErrLengthOverflow indicates a length prefix that the remaining input,
	// the configured limit or the platform int cannot satisfy.
	ErrLengthOverflow = errors.New("dyncodec: length prefix overflows input")

	// ErrInvalidDiscriminant indicates an option tag or enum index out of range.
	ErrInvalidDiscriminant = errors.New("dyncodec: invalid discriminant")

	// ErrInvalidBool indicates a bool byte other than 0 or 1.
	ErrInvalidBool = errors.New("dyncodec: invalid bool encoding")

	// ErrInvalidUTF8 indicates a string or char payload that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("dyncodec: invalid utf-8")

	// ErrDuplicateKey indicates a map payload holding the same key twice.
	ErrDuplicateKey = errors.New("dyncodec: duplicate map key")

	// ErrIO wraps a failure reported by the underlying byte source.
	ErrIO = errors.New("dyncodec: i/o failure")

	// ErrNotSelfDescribing is returned when a type asks the wire decoder for a
	// value whose shape the bytes cannot tell (DecodeAny).
	ErrNotSelfDescribing = errors.New("dyncodec: wire format is not self-describing")
)

var (
	// ErrUnsupported is matched by every *UnsupportedError.
	ErrUnsupported = errors.New("dyncodec: unsupported shape")

	// ErrSchemaMismatch indicates a schema whose fingerprint differs from the expected one.
	ErrSchemaMismatch = errors.New("dyncodec: schema fingerprint mismatch")

	// ErrInvalidSchema indicates a structurally malformed schema.
	ErrInvalidSchema = errors.New("dyncodec: invalid schema")

	// ErrValueMismatch is matched by every *MismatchError.
	ErrValueMismatch = errors.New("dyncodec: value does not match schema")
)

// DecodeError reports where in the value tree a decode failed.
type DecodeError struct {
	Path   string // dotted field path, "" at the root
	Offset int64  // bytes consumed before the failure
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v (offset %d)", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at %s (offset %d)", e.Err, e.Path, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedError is returned by the recorder when description logic asks
// for a shape the schema model cannot express.
type UnsupportedError struct {
	Kind string
	Path string
}

func (e *UnsupportedError) Error() string {
	if e.Path == "" {
		return "dyncodec: unsupported shape " + e.Kind
	}
	return "dyncodec: unsupported shape " + e.Kind + " at " + e.Path
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// MismatchError is returned when a Value cannot be encoded under a schema.
type MismatchError struct {
	Path string
	Want Kind
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dyncodec: value mismatch at %s: want %s, got %s", pathOrRoot(e.Path), e.Want, e.Got)
}

func (e *MismatchError) Is(target error) bool { return target == ErrValueMismatch }

func pathOrRoot(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}

// fieldPath tracks the position inside a value tree for error messages.
type fieldPath []string

func (p fieldPath) String() string { return strings.Join(p, ".") }

func (p *fieldPath) push(name string) { *p = append(*p, name) }

func (p *fieldPath) pop() { *p = (*p)[:len(*p)-1] }
