package dyncodec

import (
	"reflect"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
)

// maxRecordDepth bounds nesting while recording. Only a self-referential type
// gets this deep, and a schema tree cannot express one.
const maxRecordDepth = 128

// recorder is a Decoder that reads nothing. Every call writes down the shape
// it asks for and hands back a placeholder, so a type's description logic
// runs to completion and leaves its schema behind.
type recorder struct {
	schema *Schema
	path   fieldPath
	depth  int
}

var _ Decoder = (*recorder)(nil)

func (r *recorder) unsupported(kind string) error {
	return &UnsupportedError{Kind: kind, Path: r.path.String()}
}

// put records the shape of this position. A position holds one value.
func (r *recorder) put(s *Schema) error {
	if r.schema != nil {
		return r.unsupported("several values at one position")
	}
	r.schema = s
	return nil
}

func (r *recorder) leaf(kind Kind) error { return r.put(Prim(kind)) }

// child records one nested position with a fresh recorder.
func (r *recorder) child(step string, describe func(d Decoder) error) (*Schema, error) {
	if r.schema != nil {
		return nil, r.unsupported("several values at one position")
	}
	if r.depth >= maxRecordDepth {
		return nil, r.unsupported("recursive type")
	}
	c := &recorder{path: append(slices.Clip(r.path), step), depth: r.depth + 1}
	if err := describe(c); err != nil {
		return nil, err
	}
	if c.schema == nil {
		return nil, c.unsupported("empty value")
	}
	return c.schema, nil
}

func (r *recorder) DecodeBool() (bool, error)       { return false, r.leaf(KindBool) }
func (r *recorder) DecodeInt8() (int8, error)       { return 0, r.leaf(KindI8) }
func (r *recorder) DecodeInt16() (int16, error)     { return 0, r.leaf(KindI16) }
func (r *recorder) DecodeInt32() (int32, error)     { return 0, r.leaf(KindI32) }
func (r *recorder) DecodeInt64() (int64, error)     { return 0, r.leaf(KindI64) }
func (r *recorder) DecodeInt128() (I128, error)     { return I128{}, r.leaf(KindI128) }
func (r *recorder) DecodeUint8() (uint8, error)     { return 0, r.leaf(KindU8) }
func (r *recorder) DecodeUint16() (uint16, error)   { return 0, r.leaf(KindU16) }
func (r *recorder) DecodeUint32() (uint32, error)   { return 0, r.leaf(KindU32) }
func (r *recorder) DecodeUint64() (uint64, error)   { return 0, r.leaf(KindU64) }
func (r *recorder) DecodeUint128() (U128, error)    { return U128{}, r.leaf(KindU128) }
func (r *recorder) DecodeFloat32() (float32, error) { return 0, r.leaf(KindF32) }
func (r *recorder) DecodeFloat64() (float64, error) { return 0, r.leaf(KindF64) }
func (r *recorder) DecodeChar() (rune, error)       { return 0, r.leaf(KindChar) }
func (r *recorder) DecodeUnit() error               { return r.leaf(KindUnit) }
func (r *recorder) DecodeStr() (string, error)      { return "", r.leaf(KindStr) }
func (r *recorder) DecodeString() (string, error)   { return "", r.leaf(KindString) }
func (r *recorder) DecodeBytes() ([]byte, error)    { return nil, r.leaf(KindBytes) }
func (r *recorder) DecodeByteBuf() ([]byte, error)  { return nil, r.leaf(KindByteBuf) }

// DecodeSeq describes the element once; every element shares that shape.
func (r *recorder) DecodeSeq(elem func(d Decoder) error) error {
	s, err := r.child("[]", elem)
	if err != nil {
		return err
	}
	return r.put(SeqOf(s))
}

// DecodeMap hands entry a separate recorder for the key and for the value.
func (r *recorder) DecodeMap(entry func(key, value Decoder) error) error {
	if r.schema != nil {
		return r.unsupported("several values at one position")
	}
	if r.depth >= maxRecordDepth {
		return r.unsupported("recursive type")
	}
	key := &recorder{path: append(slices.Clip(r.path), "<key>"), depth: r.depth + 1}
	value := &recorder{path: append(slices.Clip(r.path), "[]"), depth: r.depth + 1}
	if err := entry(key, value); err != nil {
		return err
	}
	if key.schema == nil {
		return key.unsupported("empty value")
	}
	if value.schema == nil {
		return value.unsupported("empty value")
	}
	return r.put(MapOf(key.schema, value.schema))
}

// DecodeOption always runs some, so the payload shape is known even though
// the placeholder value is absent.
func (r *recorder) DecodeOption(some func(d Decoder) error) error {
	s, err := r.child("[]", some)
	if err != nil {
		return err
	}
	return r.put(OptionOf(s))
}

func (r *recorder) DecodeStruct(name string, fields []string, field func(i int, d Decoder) error) error {
	if r.schema != nil {
		return r.unsupported("several values at one position")
	}
	out := make([]Field, 0, len(fields))
	for i, fname := range fields {
		s, err := r.child(fname, func(d Decoder) error { return field(i, d) })
		if err != nil {
			return err
		}
		out = append(out, F(fname, s))
	}
	return r.put(StructOf(name, out...))
}

func (r *recorder) DecodeTuple(int, func(int, Decoder) error) error { return r.unsupported("tuple") }

func (r *recorder) DecodeEnum(string, []string, func(int, Decoder) error) error {
	return r.unsupported("enum")
}

func (r *recorder) DecodeAny() (any, error) { return nil, r.unsupported("any") }

// schemaCache holds the recorded schema of every reflected type. Callers get
// clones, so the cached trees are never handed out.
var schemaCache = xsync.NewMap[reflect.Type, *Schema]()

// RecordSchema records the schema of T without needing a value of T.
func RecordSchema[T any]() (*Schema, error) {
	return RecordType(reflect.TypeFor[T]())
}

// RecordType records the schema of t. A pointer type records as an option of
// its element.
func RecordType(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, &UnsupportedError{Kind: "nil type"}
	}
	if s, ok := schemaCache.Load(t); ok {
		return s.Clone(), nil
	}
	s, err := record(func(d Decoder) error {
		return describeValue(d, reflect.New(t).Elem())
	})
	if err != nil {
		return nil, err
	}
	schemaCache.Store(t, s)
	return s.Clone(), nil
}

// RecordDescriber records the schema of a hand-written description. The
// result is not cached.
func RecordDescriber(v Describer) (*Schema, error) {
	return record(v.DescribeWire)
}

func record(describe func(d Decoder) error) (*Schema, error) {
	r := &recorder{}
	if err := describe(r); err != nil {
		return nil, err
	}
	if r.schema == nil {
		return nil, r.unsupported("empty value")
	}
	if err := r.schema.Validate(); err != nil {
		return nil, err
	}
	return r.schema, nil
}
