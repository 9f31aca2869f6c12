package dyncodec

import (
	"errors"
	"io"
	"iter"
)

// Stream decodes values of one schema written back to back, as a log or a
// file of records would hold them.
type Stream struct {
	schema *Schema
	r      *Reader
	limit  int64 // per value
	n      int
	err    error
}

// NewStream returns a Stream reading schema-shaped values from r.
func NewStream(schema *Schema, r io.Reader) (*Stream, error) {
	return DefaultConfig.NewStream(schema, r)
}

// NewStream applies c.Limit to each value separately.
func (c Config) NewStream(schema *Schema, r io.Reader) (*Stream, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	rd.WithByteOrder(c.order())
	return &Stream{schema: schema, r: rd, limit: c.Limit}, nil
}

// Next decodes the next value. It returns io.EOF when the input ends on a
// value boundary; input that ends inside a value fails with ErrUnexpectedEOF.
// After the first error every call returns it again.
func (s *Stream) Next() (Value, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.r.AtEOF() {
		s.err = io.EOF
		return nil, s.err
	}

	// One Reader per value so the limit and the error latch are per value.
	rd, _ := NewReader(s.r)
	rd.WithLimit(s.limit)
	base := s.r.count
	v, err := decodeDynamic(rd, s.schema)
	s.r.count += rd.count
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Offset += base
		}
		s.err = err
		return nil, err
	}
	s.n++
	return v, nil
}

// All decodes every remaining value. On failure it returns the values
// decoded before the bad one together with the error.
func (s *Stream) All() ([]Value, error) {
	var out []Value
	for {
		v, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// Values iterates the remaining values. A failure is yielded once with a nil
// value and ends the iteration; a clean end of input is not yielded.
func (s *Stream) Values() iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		for {
			v, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Count returns how many values have been decoded.
func (s *Stream) Count() int { return s.n }

// Offset returns how many bytes have been consumed.
func (s *Stream) Offset() int64 { return s.r.count }
