package dyncodec

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// ErrNotPointer is returned when Unmarshal or Decode is given something other
// than a non-nil pointer.
var ErrNotPointer = errors.New("dyncodec: decode target must be a non-nil pointer")

// wireDecoder is the Decoder that reads wire bytes. Unlike the recorder it
// runs seq, map and option callbacks as many times as the bytes say.
type wireDecoder struct {
	r       *Reader
	path    fieldPath
	failure error
}

var _ Decoder = (*wireDecoder)(nil)

func newWireDecoder(r *Reader) *wireDecoder { return &wireDecoder{r: r} }

// check turns the reader's latched error into a *DecodeError carrying the
// position of the first failure.
func (d *wireDecoder) check() error {
	if d.r.err == nil {
		return nil
	}
	if d.failure == nil {
		d.failure = &DecodeError{Path: d.path.String(), Offset: d.r.count, Err: d.r.err}
	}
	return d.failure
}

// finish settles the result of a whole decode. A read failure wins even when
// hand-written description logic dropped it.
func (d *wireDecoder) finish(err error) error {
	if err == nil {
		return d.check()
	}
	return err
}

func (d *wireDecoder) DecodeBool() (bool, error) {
	var v bool
	d.r.ReadBool(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeInt8() (int8, error) {
	var v int8
	d.r.ReadInt8(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeInt16() (int16, error) {
	var v int16
	d.r.ReadInt16(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeInt32() (int32, error) {
	var v int32
	d.r.ReadInt32(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeInt64() (int64, error) {
	var v int64
	d.r.ReadInt64(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeInt128() (I128, error) {
	var v I128
	d.r.ReadInt128(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeUint8() (uint8, error) {
	var v uint8
	d.r.ReadUint8(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeUint16() (uint16, error) {
	var v uint16
	d.r.ReadUint16(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeUint32() (uint32, error) {
	var v uint32
	d.r.ReadUint32(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeUint64() (uint64, error) {
	var v uint64
	d.r.ReadUint64(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeUint128() (U128, error) {
	var v U128
	d.r.ReadUint128(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeFloat32() (float32, error) {
	var v float32
	d.r.ReadFloat32(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeFloat64() (float64, error) {
	var v float64
	d.r.ReadFloat64(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeChar() (rune, error) {
	var v rune
	d.r.ReadChar(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeUnit() error { return d.check() }

func (d *wireDecoder) DecodeStr() (string, error) {
	var v string
	d.r.ReadString(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeString() (string, error) { return d.DecodeStr() }

func (d *wireDecoder) DecodeBytes() ([]byte, error) {
	var v []byte
	d.r.ReadByteSlice(&v)
	return v, d.check()
}

func (d *wireDecoder) DecodeByteBuf() ([]byte, error) { return d.DecodeBytes() }

// DecodeSeq cannot know the element width of an arbitrary Go type, so only
// the int range of the length is checked up front.
func (d *wireDecoder) DecodeSeq(elem func(d Decoder) error) error {
	return d.seq(unknownWidth, elem)
}

// seq reads a length prefix, rejecting lengths that cannot fit in what is
// left of the input when every element needs at least minElem bytes.
func (d *wireDecoder) seq(minElem int, elem func(d Decoder) error) error {
	var n int
	d.r.ReadLen(&n, minElem)
	if err := d.check(); err != nil {
		return err
	}
	return d.repeat(n, func() error { return elem(d) })
}

func (d *wireDecoder) DecodeMap(entry func(key, value Decoder) error) error {
	return d.mapEntries(unknownWidth, entry)
}

func (d *wireDecoder) mapEntries(minEntry int, entry func(key, value Decoder) error) error {
	var n int
	d.r.ReadLen(&n, minEntry)
	if err := d.check(); err != nil {
		return err
	}
	return d.repeat(n, func() error { return entry(d, d) })
}

// repeat runs each n times under its index. Elements of unknown width that
// turn out to read nothing get the same cap as known zero-width ones.
func (d *wireDecoder) repeat(n int, each func() error) error {
	start := d.r.count
	for i := 0; i < n; i++ {
		if i == maxZeroWidthLen && d.r.count == start {
			d.r.Fail(fmt.Errorf("%w: %d zero-width elements, at most %d allowed", ErrLengthOverflow, n, maxZeroWidthLen))
			return d.check()
		}
		d.path.push(strconv.Itoa(i))
		err := each()
		d.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *wireDecoder) DecodeOption(some func(d Decoder) error) error {
	var present bool
	d.r.ReadTag(&present)
	if err := d.check(); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return some(d)
}

func (d *wireDecoder) DecodeStruct(_ string, fields []string, field func(i int, d Decoder) error) error {
	for i, name := range fields {
		d.path.push(name)
		err := field(i, d)
		d.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *wireDecoder) DecodeTuple(n int, elem func(i int, d Decoder) error) error {
	for i := 0; i < n; i++ {
		d.path.push(strconv.Itoa(i))
		err := elem(i, d)
		d.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *wireDecoder) DecodeEnum(name string, variants []string, variant func(i int, d Decoder) error) error {
	var idx uint32
	d.r.ReadUint32(&idx)
	if err := d.check(); err != nil {
		return err
	}
	if uint64(idx) >= uint64(len(variants)) {
		d.r.Fail(fmt.Errorf("%w: %s has no variant %d", ErrInvalidDiscriminant, name, idx))
		return d.check()
	}
	d.path.push(variants[idx])
	defer d.path.pop()
	return variant(int(idx), d)
}

func (d *wireDecoder) DecodeAny() (any, error) {
	d.r.Fail(ErrNotSelfDescribing)
	return nil, d.check()
}

// Unmarshal decodes data into the Go value v points to, using the same
// description v's type records as its schema. Trailing bytes are ignored.
func Unmarshal(data []byte, v any) error {
	return DefaultConfig.Unmarshal(data, v)
}

func (c Config) Unmarshal(data []byte, v any) error {
	return c.Decode(NewBytesReader(data), v)
}

// Decode reads one value into v from r.
func Decode(r io.Reader, v any) error {
	return DefaultConfig.Decode(r, v)
}

func (c Config) Decode(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: got %T", ErrNotPointer, v)
	}
	rd, err := c.newReader(r)
	if err != nil {
		return err
	}
	d := newWireDecoder(rd)
	return d.finish(describeValue(d, rv.Elem()))
}
