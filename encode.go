package dyncodec

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strconv"
)

// Marshal encodes v in the layout its recorded schema describes.
func Marshal(v any) ([]byte, error) {
	return DefaultConfig.Marshal(v)
}

func (c Config) Marshal(v any) ([]byte, error) {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bytesBufPool.Put(buf)

	if err := c.Encode(buf, v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Encode writes v to w.
func Encode(w io.Writer, v any) error {
	return DefaultConfig.Encode(w, v)
}

func (c Config) Encode(w io.Writer, v any) error {
	wr, err := c.newWriter(w)
	if err != nil {
		return err
	}
	if err := encodeValue(wr, reflect.ValueOf(v)); err != nil {
		return err
	}
	_, err = wr.Result()
	return err
}

// encodeValue mirrors describeValue: every branch writes exactly what the
// matching describe branch reads.
func encodeValue(w *Writer, v reflect.Value) error {
	if !v.IsValid() {
		return &UnsupportedError{Kind: "nil value"}
	}
	t := v.Type()
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(wireEncoderType) {
		if !v.CanAddr() {
			p := reflect.New(t)
			p.Elem().Set(v)
			v = p.Elem()
		}
		if err := v.Addr().Interface().(WireEncoder).EncodeWire(w); err != nil {
			return err
		}
		return w.Err()
	}

	switch t {
	case charType:
		w.WriteChar(rune(v.Int()))
		return w.Err()
	case strType:
		w.WriteString(v.String())
		return w.Err()
	case bytesType:
		w.WriteByteSlice(v.Bytes())
		return w.Err()
	case unitType:
		return w.Err()
	case i128Type:
		w.WriteInt128(v.Interface().(I128))
		return w.Err()
	case u128Type:
		w.WriteUint128(v.Interface().(U128))
		return w.Err()
	}

	switch t.Kind() {
	case reflect.Bool:
		w.WriteBool(v.Bool())
	case reflect.Int8:
		w.WriteInt8(int8(v.Int()))
	case reflect.Int16:
		w.WriteInt16(int16(v.Int()))
	case reflect.Int32:
		w.WriteInt32(int32(v.Int()))
	case reflect.Int64, reflect.Int:
		w.WriteInt64(v.Int())
	case reflect.Uint8:
		w.WriteUint8(uint8(v.Uint()))
	case reflect.Uint16:
		w.WriteUint16(uint16(v.Uint()))
	case reflect.Uint32:
		w.WriteUint32(uint32(v.Uint()))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		w.WriteUint64(v.Uint())
	case reflect.Float32:
		w.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		w.WriteFloat64(v.Float())
	case reflect.String:
		w.WriteString(v.String())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !hasCustomShape(t.Elem()) {
			w.WriteByteSlice(v.Bytes())
			break
		}
		w.WriteLen(v.Len())
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(w, v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(w, v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		keys := v.MapKeys()
		slices.SortFunc(keys, compareKeys)
		w.WriteLen(len(keys))
		for _, k := range keys {
			if err := encodeValue(w, k); err != nil {
				return err
			}
			if err := encodeValue(w, v.MapIndex(k)); err != nil {
				return err
			}
		}
	case reflect.Pointer:
		w.WriteTag(!v.IsNil())
		if !v.IsNil() {
			return encodeValue(w, v.Elem())
		}
	case reflect.Struct:
		info := structInfoFor(t)
		for _, i := range info.fields {
			if err := encodeValue(w, v.Field(i)); err != nil {
				return err
			}
		}
	default:
		return &UnsupportedError{Kind: t.Kind().String()}
	}
	return w.Err()
}

// compareKeys orders map keys so that encoding a map is deterministic.
func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Bool:
		return cmp.Compare(boolInt(a.Bool()), boolInt(b.Bool()))
	}
	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EncodeDynamic writes value in the layout schema describes. It is the
// inverse of DecodeDynamic: map entries are written in sorted key order with
// each key parsed back into the schema's key kind.
func EncodeDynamic(w io.Writer, schema *Schema, value Value) error {
	return DefaultConfig.EncodeDynamic(w, schema, value)
}

func (c Config) EncodeDynamic(w io.Writer, schema *Schema, value Value) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	wr, err := c.newWriter(w)
	if err != nil {
		return err
	}
	e := &dynamicEncoder{w: wr}
	if err := e.encode(schema, value); err != nil {
		return err
	}
	_, err = wr.Result()
	return err
}

type dynamicEncoder struct {
	w    *Writer
	path fieldPath
}

func (e *dynamicEncoder) mismatch(want Kind, got Value) error {
	name := "nil"
	if got != nil {
		name = got.Kind().String()
	}
	return &MismatchError{Path: e.path.String(), Want: want, Got: name}
}

// as asserts that v has the Go type the schema kind decodes to.
func as[T Value](e *dynamicEncoder, want Kind, v Value) (T, error) {
	x, ok := v.(T)
	if !ok {
		var zero T
		return zero, e.mismatch(want, v)
	}
	return x, nil
}

func (e *dynamicEncoder) encode(s *Schema, v Value) error {
	w := e.w
	switch s.Kind {
	case KindBool:
		x, err := as[Bool](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteBool(bool(x))
	case KindI8:
		x, err := as[I8](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteInt8(int8(x))
	case KindI16:
		x, err := as[I16](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteInt16(int16(x))
	case KindI32:
		x, err := as[I32](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteInt32(int32(x))
	case KindI64:
		x, err := as[I64](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteInt64(int64(x))
	case KindI128:
		x, err := as[I128](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteInt128(x)
	case KindU8:
		x, err := as[U8](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteUint8(uint8(x))
	case KindU16:
		x, err := as[U16](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteUint16(uint16(x))
	case KindU32:
		x, err := as[U32](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteUint32(uint32(x))
	case KindU64:
		x, err := as[U64](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteUint64(uint64(x))
	case KindU128:
		x, err := as[U128](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteUint128(x)
	case KindF32:
		x, err := as[F32](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteFloat32(float32(x))
	case KindF64:
		x, err := as[F64](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteFloat64(float64(x))
	case KindChar:
		x, err := as[Char](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteChar(rune(x))
	case KindUnit:
		if _, err := as[Unit](e, s.Kind, v); err != nil {
			return err
		}
	case KindStr:
		x, err := as[Str](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteString(string(x))
	case KindString:
		x, err := as[String](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteString(string(x))
	case KindBytes:
		x, err := as[Bytes](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteByteSlice(x)
	case KindByteBuf:
		x, err := as[ByteBuf](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteByteSlice(x)
	case KindSeq:
		x, err := as[Seq](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteLen(len(x))
		for i, elem := range x {
			e.path.push(strconv.Itoa(i))
			err := e.encode(s.Elem, elem)
			e.path.pop()
			if err != nil {
				return err
			}
		}
	case KindMap:
		x, err := as[Map](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteLen(len(x))
		for _, k := range x.Keys() {
			e.path.push(k)
			key, err := parseKey(s.Key.Kind, k)
			if err != nil {
				err = &MismatchError{Path: e.path.String(), Want: s.Key.Kind, Got: fmt.Sprintf("key %q", k)}
			} else if err = e.encode(s.Key, key); err == nil {
				err = e.encode(s.Elem, x[k])
			}
			e.path.pop()
			if err != nil {
				return err
			}
		}
	case KindOption:
		x, err := as[Option](e, s.Kind, v)
		if err != nil {
			return err
		}
		w.WriteTag(x.IsSome())
		if x.IsSome() {
			return e.encode(s.Elem, x.Value)
		}
	case KindStruct:
		x, err := as[Struct](e, s.Kind, v)
		if err != nil {
			return err
		}
		if len(x.Fields) != len(s.Fields) {
			return &MismatchError{Path: e.path.String(), Want: s.Kind, Got: fmt.Sprintf("struct %s with %d fields", x.Name, len(x.Fields))}
		}
		for i, f := range s.Fields {
			if x.Fields[i].Name != f.Name {
				return &MismatchError{Path: e.path.String(), Want: s.Kind, Got: fmt.Sprintf("field %q in place of %q", x.Fields[i].Name, f.Name)}
			}
			e.path.push(f.Name)
			err := e.encode(f.Schema, x.Fields[i].Value)
			e.path.pop()
			if err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidSchema, s.Kind)
	}
	return w.Err()
}
