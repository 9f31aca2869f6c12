package dyncodec

import (
	"encoding/binary"
	"io"
)

// Config carries the wire options shared by encoding and decoding. The zero
// value is little-endian with no limit.
type Config struct {
	// ByteOrder of every fixed-width number and length prefix.
	ByteOrder binary.ByteOrder
	// Limit caps the bytes one decode may consume. 0 means no limit.
	Limit int64
}

// DefaultConfig is used by the package-level functions.
var DefaultConfig = Config{ByteOrder: LE}

func (c Config) WithByteOrder(order binary.ByteOrder) Config {
	c.ByteOrder = order
	return c
}

func (c Config) WithLimit(n int64) Config {
	c.Limit = n
	return c
}

func (c Config) order() binary.ByteOrder {
	if c.ByteOrder == nil {
		return Order
	}
	return c.ByteOrder
}

// newReader wraps r in a Reader configured for one decode.
func (c Config) newReader(r io.Reader) (*Reader, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	return rd.WithByteOrder(c.order()).WithLimit(c.Limit), nil
}

func (c Config) newWriter(w io.Writer) (*Writer, error) {
	wr, err := NewWriter(w)
	if err != nil {
		return nil, err
	}
	return wr.WithByteOrder(c.order()), nil
}
