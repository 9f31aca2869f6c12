package dyncodec

import (
	"encoding/binary"
	"io"
	"math"

	"golang.org/x/exp/constraints"
)

var (
	BE = binary.BigEndian
	LE = binary.LittleEndian
	// Order is the default wire byte order.
	Order binary.ByteOrder = LE
)

const BUFFER_SIZE = 4096

var discard [BUFFER_SIZE]byte

// Ptr returns a pointer to a copy of v, for building optional fields inline.
func Ptr[T any](v T) *T { return &v }

// Discard skips n bytes of r, such as a header in front of the values.
func Discard(r io.Reader, n int64) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, ErrDiscardNegative
	}
	if n <= BUFFER_SIZE {
		skip, err := io.ReadFull(r, discard[:n])
		return int64(skip), err
	}
	return io.CopyN(io.Discard, r, n)
}

// fitsInt reports whether n can be used as a Go int length.
func fitsInt[T constraints.Unsigned](n T) bool { return uint64(n) <= math.MaxInt }

// mulOverflows reports whether a*b does not fit in an int.
func mulOverflows[T ~int | ~int64](a, b T) bool {
	if a == 0 || b == 0 {
		return false
	}
	return a > T(math.MaxInt)/b
}
