package dyncodec

import (
	"encoding"
	"errors"
	"io"
)

// Sizer is an interface for types that can report their binary size.
// This is useful for pre-allocating buffers before encoding.
type Sizer interface {
	// Size returns the size of the type in bytes when binary encoded.
	Size() int
}

// Marshaler defines the core methods for encoding an object into a byte stream.
type Marshaler interface {
	encoding.BinaryMarshaler // Method: MarshalBinary() ([]byte, error)
	io.WriterTo              // Method: WriteTo(writer io.Writer) (int64, error)

	// MarshalTo encodes the object into a pre-allocated buffer, returning an
	// error (io.ErrShortWrite) if the buffer is too small.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler defines the core methods for decoding a byte stream into an object.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler // Method: UnmarshalBinary(data []byte) error
	io.ReaderFrom              // Method: ReadFrom(r io.Reader) (int64, error)
}

// Codec aggregates all binary serialization and deserialization interfaces.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}

// ErrNoSchema is returned by Dynamic when its Schema is unset.
var ErrNoSchema = errors.New("dyncodec: dynamic value has no schema")

// Dynamic pairs a value tree with the schema that lays it out on the wire,
// which makes it a Codec like any statically typed value.
//
// Decoding replaces Value and keeps Schema. The zero Config is little-endian
// with no limit.
type Dynamic struct {
	Schema *Schema
	Value  Value
	Config Config
}

var _ Codec = (*Dynamic)(nil)

// Size returns the encoded size, or 0 when Value does not fit Schema.
func (d *Dynamic) Size() int {
	n, _ := d.size()
	return n
}

func (d *Dynamic) size() (int, error) {
	if d.Schema == nil {
		return 0, ErrNoSchema
	}
	if err := d.Schema.Validate(); err != nil {
		return 0, err
	}
	w, _ := NewWriter(io.Discard)
	w.WithByteOrder(d.Config.order())
	if err := (&dynamicEncoder{w: w}).encode(d.Schema, d.Value); err != nil {
		return 0, err
	}
	n, err := w.Result()
	return int(n), err
}

// MarshalBinary reports a value that does not fit Schema before allocating.
func (d *Dynamic) MarshalBinary() ([]byte, error) {
	if _, err := d.size(); err != nil {
		return nil, err
	}
	return MarshalBinaryGeneric(d)
}

func (d *Dynamic) WriteTo(w io.Writer) (int64, error) {
	if d.Schema == nil {
		return 0, ErrNoSchema
	}
	cw := &countingWriter{w: w}
	err := d.Config.EncodeDynamic(cw, d.Schema, d.Value)
	return cw.n, err
}

func (d *Dynamic) UnmarshalBinary(data []byte) error {
	if d.Schema == nil {
		return ErrNoSchema
	}
	v, err := d.Config.DecodeDynamic(d.Schema, NewBytesReader(data))
	if err != nil {
		return err
	}
	d.Value = v
	return nil
}

// --- Boilerplate implementations ---

func (d *Dynamic) MarshalTo(buf []byte) (int, error)   { return MarshalToGeneric(d, buf) }
func (d *Dynamic) ReadFrom(r io.Reader) (int64, error) { return ReadFromGeneric(d, r) }
func (d *Dynamic) String() string                      { return FormatValue(d.Value) }

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
