package dyncodec

import (
	"fmt"
	"io"
)

// DecodeDynamic decodes one value shaped like schema from r. The bytes are
// not checked against the schema: a schema that did not produce them yields
// either an error or a well-formed but meaningless value. Pair it with a
// Fingerprint check (DecodeChecked) when the schema travels separately.
//
// Bytes after the value are left unread when r is a BytesReader, a
// bytes.Reader, a bytes.Buffer, a bufio.Reader or any io.ByteReader.
func DecodeDynamic(schema *Schema, r io.Reader) (Value, error) {
	return DefaultConfig.DecodeDynamic(schema, r)
}

func (c Config) DecodeDynamic(schema *Schema, r io.Reader) (Value, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	rd, err := c.newReader(r)
	if err != nil {
		return nil, err
	}
	return decodeDynamic(rd, schema)
}

// DecodeChecked refuses to decode unless schema has the fingerprint the
// producer of the bytes recorded.
func DecodeChecked(schema *Schema, want Fingerprint, r io.Reader) (Value, error) {
	return DefaultConfig.DecodeChecked(schema, want, r)
}

func (c Config) DecodeChecked(schema *Schema, want Fingerprint, r io.Reader) (Value, error) {
	if got := schema.Fingerprint(); got != want {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrSchemaMismatch, got, want)
	}
	return c.DecodeDynamic(schema, r)
}

func decodeDynamic(rd *Reader, schema *Schema) (Value, error) {
	d := newWireDecoder(rd)
	v, err := d.replay(schema)
	if err = d.finish(err); err != nil {
		return nil, err
	}
	return v, nil
}

// replay walks s and issues, in schema order, the same decode calls the
// type that recorded s would issue.
func (d *wireDecoder) replay(s *Schema) (Value, error) {
	switch s.Kind {
	case KindBool:
		v, err := d.DecodeBool()
		return Bool(v), err
	case KindI8:
		v, err := d.DecodeInt8()
		return I8(v), err
	case KindI16:
		v, err := d.DecodeInt16()
		return I16(v), err
	case KindI32:
		v, err := d.DecodeInt32()
		return I32(v), err
	case KindI64:
		v, err := d.DecodeInt64()
		return I64(v), err
	case KindI128:
		return d.DecodeInt128()
	case KindU8:
		v, err := d.DecodeUint8()
		return U8(v), err
	case KindU16:
		v, err := d.DecodeUint16()
		return U16(v), err
	case KindU32:
		v, err := d.DecodeUint32()
		return U32(v), err
	case KindU64:
		v, err := d.DecodeUint64()
		return U64(v), err
	case KindU128:
		return d.DecodeUint128()
	case KindF32:
		v, err := d.DecodeFloat32()
		return F32(v), err
	case KindF64:
		v, err := d.DecodeFloat64()
		return F64(v), err
	case KindChar:
		v, err := d.DecodeChar()
		return Char(v), err
	case KindUnit:
		return Unit{}, d.DecodeUnit()
	case KindStr:
		v, err := d.DecodeStr()
		return Str(v), err
	case KindString:
		v, err := d.DecodeString()
		return String(v), err
	case KindBytes:
		v, err := d.DecodeBytes()
		return Bytes(v), err
	case KindByteBuf:
		v, err := d.DecodeByteBuf()
		return ByteBuf(v), err

	case KindSeq:
		out := Seq{}
		err := d.seq(s.Elem.MinSize(), func(Decoder) error {
			v, err := d.replay(s.Elem)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		return out, err
	case KindMap:
		out := Map{}
		err := d.mapEntries(s.Key.MinSize()+s.Elem.MinSize(), func(_, _ Decoder) error {
			k, err := d.replay(s.Key)
			if err != nil {
				return err
			}
			key := keyString(k)
			if _, dup := out[key]; dup {
				d.r.Fail(fmt.Errorf("%w: %s", ErrDuplicateKey, key))
				return d.check()
			}
			v, err := d.replay(s.Elem)
			if err != nil {
				return err
			}
			out[key] = v
			return nil
		})
		return out, err
	case KindOption:
		var out Option
		err := d.DecodeOption(func(Decoder) error {
			v, err := d.replay(s.Elem)
			out.Value = v
			return err
		})
		return out, err
	case KindStruct:
		out := Struct{Name: s.Name, Fields: make([]FieldValue, len(s.Fields))}
		names := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			names[i] = f.Name
		}
		err := d.DecodeStruct(s.Name, names, func(i int, _ Decoder) error {
			v, err := d.replay(s.Fields[i].Schema)
			out.Fields[i] = FieldValue{Name: names[i], Value: v}
			return err
		})
		return out, err
	}
	return nil, fmt.Errorf("%w: unknown kind %s", ErrInvalidSchema, s.Kind)
}
