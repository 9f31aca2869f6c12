package dyncodec

import (
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is a decoded value tree. The concrete types below are the only
// implementations; each owns its children exclusively.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Str     string
	String  string
	I8      int8
	U8      uint8
	I16     int16
	U16     uint16
	I32     int32
	U32     uint32
	I64     int64
	U64     uint64
	F32     float32
	F64     float64
	Bool    bool
	Char    rune
	Unit    struct{}
	Bytes   []byte
	ByteBuf []byte
	Seq     []Value
	Map     map[string]Value
)

// I128 is a signed 128-bit integer in two's complement halves.
type I128 struct {
	Hi int64
	Lo uint64
}

// U128 is an unsigned 128-bit integer.
type U128 struct {
	Hi uint64
	Lo uint64
}

// Option is absent when Value is nil.
type Option struct {
	Value Value
}

// Struct is a decoded struct; Fields keep the schema's order.
type Struct struct {
	Name   string
	Fields []FieldValue
}

// FieldValue is one named member of a Struct.
type FieldValue struct {
	Name  string
	Value Value
}

func (Str) Kind() Kind     { return KindStr }
func (String) Kind() Kind  { return KindString }
func (I8) Kind() Kind      { return KindI8 }
func (U8) Kind() Kind      { return KindU8 }
func (I16) Kind() Kind     { return KindI16 }
func (U16) Kind() Kind     { return KindU16 }
func (I32) Kind() Kind     { return KindI32 }
func (U32) Kind() Kind     { return KindU32 }
func (I64) Kind() Kind     { return KindI64 }
func (U64) Kind() Kind     { return KindU64 }
func (I128) Kind() Kind    { return KindI128 }
func (U128) Kind() Kind    { return KindU128 }
func (F32) Kind() Kind     { return KindF32 }
func (F64) Kind() Kind     { return KindF64 }
func (Bool) Kind() Kind    { return KindBool }
func (Char) Kind() Kind    { return KindChar }
func (Unit) Kind() Kind    { return KindUnit }
func (Bytes) Kind() Kind   { return KindBytes }
func (ByteBuf) Kind() Kind { return KindByteBuf }
func (Seq) Kind() Kind     { return KindSeq }
func (Map) Kind() Kind     { return KindMap }
func (Option) Kind() Kind  { return KindOption }
func (Struct) Kind() Kind  { return KindStruct }

func (Str) isValue()     {}
func (String) isValue()  {}
func (I8) isValue()      {}
func (U8) isValue()      {}
func (I16) isValue()     {}
func (U16) isValue()     {}
func (I32) isValue()     {}
func (U32) isValue()     {}
func (I64) isValue()     {}
func (U64) isValue()     {}
func (I128) isValue()    {}
func (U128) isValue()    {}
func (F32) isValue()     {}
func (F64) isValue()     {}
func (Bool) isValue()    {}
func (Char) isValue()    {}
func (Unit) isValue()    {}
func (Bytes) isValue()   {}
func (ByteBuf) isValue() {}
func (Seq) isValue()     {}
func (Map) isValue()     {}
func (Option) isValue()  {}
func (Struct) isValue()  {}

// Some wraps v as a present option.
func Some(v Value) Option { return Option{Value: v} }

// None returns an absent option.
func None() Option { return Option{} }

// IsSome reports whether the option holds a value.
func (o Option) IsSome() bool { return o.Value != nil }

// Field returns the named field's value.
func (s Struct) Field(name string) (Value, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order.
func (s Struct) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Keys returns the map keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Lookup walks struct field names, map keys and seq indices. Options are
// looked through; an absent option ends the walk unsuccessfully.
func Lookup(v Value, path ...string) (Value, bool) {
	for _, step := range path {
		if o, ok := v.(Option); ok {
			if !o.IsSome() {
				return nil, false
			}
			v = o.Value
		}
		switch cur := v.(type) {
		case Struct:
			next, ok := cur.Field(step)
			if !ok {
				return nil, false
			}
			v = next
		case Map:
			next, ok := cur[step]
			if !ok {
				return nil, false
			}
			v = next
		case Seq:
			i, err := strconv.Atoi(step)
			if err != nil || i < 0 || i >= len(cur) {
				return nil, false
			}
			v = cur[i]
		default:
			return nil, false
		}
	}
	return v, v != nil
}

// I128FromInt64 sign-extends v.
func I128FromInt64(v int64) I128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return I128{Hi: hi, Lo: uint64(v)}
}

// U128FromUint64 zero-extends v.
func U128FromUint64(v uint64) U128 { return U128{Lo: v} }

var (
	two64   = new(big.Int).Lsh(big.NewInt(1), 64)
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	bigZero = big.NewInt(0)
	mask64  = new(big.Int).SetUint64(^uint64(0))
)

// Big returns v as a big.Int.
func (v U128) Big() *big.Int {
	b := new(big.Int).SetUint64(v.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(v.Lo))
}

// Big returns v as a big.Int.
func (v I128) Big() *big.Int {
	b := U128{Hi: uint64(v.Hi), Lo: v.Lo}.Big()
	if v.Hi < 0 {
		b.Sub(b, new(big.Int).Lsh(two64, 64))
	}
	return b
}

func (v U128) String() string { return v.Big().String() }
func (v I128) String() string { return v.Big().String() }

// ParseU128 parses a base-10 unsigned 128-bit integer.
func ParseU128(s string) (U128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Cmp(bigZero) < 0 || b.Cmp(maxU128) > 0 {
		return U128{}, fmt.Errorf("invalid u128 %q", s)
	}
	return U128{Hi: new(big.Int).Rsh(b, 64).Uint64(), Lo: new(big.Int).And(b, mask64).Uint64()}, nil
}

// ParseI128 parses a base-10 signed 128-bit integer.
func ParseI128(s string) (I128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Cmp(minI128) < 0 || b.Cmp(maxI128) > 0 {
		return I128{}, fmt.Errorf("invalid i128 %q", s)
	}
	if b.Sign() < 0 {
		b.Add(b, new(big.Int).Lsh(two64, 64))
	}
	return I128{Hi: int64(new(big.Int).Rsh(b, 64).Uint64()), Lo: new(big.Int).And(b, mask64).Uint64()}, nil
}

// keyString renders a decoded map key. Scalars use a canonical text form
// that parseKey can read back; composites fall back to FormatValue.
func keyString(v Value) string {
	switch k := v.(type) {
	case Str:
		return string(k)
	case String:
		return string(k)
	case Char:
		return string(rune(k))
	case Bool:
		return strconv.FormatBool(bool(k))
	case I8:
		return strconv.FormatInt(int64(k), 10)
	case I16:
		return strconv.FormatInt(int64(k), 10)
	case I32:
		return strconv.FormatInt(int64(k), 10)
	case I64:
		return strconv.FormatInt(int64(k), 10)
	case U8:
		return strconv.FormatUint(uint64(k), 10)
	case U16:
		return strconv.FormatUint(uint64(k), 10)
	case U32:
		return strconv.FormatUint(uint64(k), 10)
	case U64:
		return strconv.FormatUint(uint64(k), 10)
	case I128:
		return k.String()
	case U128:
		return k.String()
	case F32:
		return strconv.FormatFloat(float64(k), 'g', -1, 32)
	case F64:
		return strconv.FormatFloat(float64(k), 'g', -1, 64)
	case Unit:
		return "()"
	}
	return FormatValue(v)
}

// parseKey reads a map key produced by keyString back as a value of kind.
func parseKey(kind Kind, s string) (Value, error) {
	switch kind {
	case KindStr:
		return Str(s), nil
	case KindString:
		return String(s), nil
	case KindChar:
		c, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) || c == utf8.RuneError && size == 1 {
			return nil, fmt.Errorf("invalid char key %q", s)
		}
		return Char(c), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		return Bool(b), err
	case KindI8, KindI16, KindI32, KindI64:
		n, err := strconv.ParseInt(s, 10, fixedWidths[kind]*8)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindI8:
			return I8(n), nil
		case KindI16:
			return I16(n), nil
		case KindI32:
			return I32(n), nil
		}
		return I64(n), nil
	case KindU8, KindU16, KindU32, KindU64:
		n, err := strconv.ParseUint(s, 10, fixedWidths[kind]*8)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindU8:
			return U8(n), nil
		case KindU16:
			return U16(n), nil
		case KindU32:
			return U32(n), nil
		}
		return U64(n), nil
	case KindI128:
		return ParseI128(s)
	case KindU128:
		return ParseU128(s)
	case KindF32:
		f, err := strconv.ParseFloat(s, 32)
		return F32(f), err
	case KindF64:
		f, err := strconv.ParseFloat(s, 64)
		return F64(f), err
	case KindUnit:
		if s != "()" {
			return nil, fmt.Errorf("invalid unit key %q", s)
		}
		return Unit{}, nil
	}
	return nil, fmt.Errorf("map keys of kind %s cannot be re-encoded", kind)
}

// FormatValue renders v on one line, e.g. `A{a: 99, b: B{c: 23480}}`.
func FormatValue(v Value) string {
	var b strings.Builder
	formatValue(&b, v)
	return b.String()
}

func formatValue(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("<nil>")
	case Str:
		b.WriteString(strconv.Quote(string(x)))
	case String:
		b.WriteString(strconv.Quote(string(x)))
	case Char:
		b.WriteString(strconv.QuoteRune(rune(x)))
	case Unit:
		b.WriteString("()")
	case Bytes:
		fmt.Fprintf(b, "b%q", []byte(x))
	case ByteBuf:
		fmt.Fprintf(b, "b%q", []byte(x))
	case Seq:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			formatValue(b, e)
		}
		b.WriteByte(']')
	case Map:
		b.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			formatValue(b, x[k])
		}
		b.WriteByte('}')
	case Option:
		if !x.IsSome() {
			b.WriteString("None")
			return
		}
		b.WriteString("Some(")
		formatValue(b, x.Value)
		b.WriteByte(')')
	case Struct:
		b.WriteString(x.Name)
		b.WriteByte('{')
		for i, f := range x.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			formatValue(b, f.Value)
		}
		b.WriteByte('}')
	default:
		fmt.Fprint(b, x)
	}
}
