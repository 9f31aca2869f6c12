package dyncodec

import (
	"fmt"
	"strings"
)

// Kind identifies a Schema or Value variant. The numeric values are part of
// the persisted schema format; new kinds are only ever appended.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindStr
	KindSeq
	KindMap
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindI128
	KindU128
	KindF32
	KindF64
	KindBool
	KindChar
	KindUnit
	KindBytes
	KindOption
	KindByteBuf
	KindString
	KindStruct
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindStr:     "str",
	KindSeq:     "seq",
	KindMap:     "map",
	KindI8:      "i8",
	KindU8:      "u8",
	KindI16:     "i16",
	KindU16:     "u16",
	KindI32:     "i32",
	KindU32:     "u32",
	KindI64:     "i64",
	KindU64:     "u64",
	KindI128:    "i128",
	KindU128:    "u128",
	KindF32:     "f32",
	KindF64:     "f64",
	KindBool:    "bool",
	KindChar:    "char",
	KindUnit:    "unit",
	KindBytes:   "bytes",
	KindOption:  "option",
	KindByteBuf: "bytebuf",
	KindString:  "string",
	KindStruct:  "struct",
}

// fixedWidths holds the wire width of every kind whose width never varies.
var fixedWidths = map[Kind]int{
	KindI8: 1, KindU8: 1, KindBool: 1,
	KindI16: 2, KindU16: 2,
	KindI32: 4, KindU32: 4, KindF32: 4,
	KindI64: 8, KindU64: 8, KindF64: 8,
	KindI128: 16, KindU128: 16,
	KindUnit: 0,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindInvalid {
			return Kind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: unknown kind %q", ErrInvalidSchema, name)
}

func (k Kind) MarshalText() ([]byte, error) {
	if k == KindInvalid || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: cannot encode %s", ErrInvalidSchema, k)
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsPrimitive reports whether k has no nested shape.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindSeq, KindMap, KindOption, KindStruct, KindInvalid:
		return false
	}
	return int(k) < len(kindNames)
}

// Schema describes the wire shape of one value. A Schema is never mutated
// after it is built, so one value may serve any number of concurrent decodes.
type Schema struct {
	Kind Kind `json:"kind" yaml:"kind" cbor:"1,keyasint"`
	// Name is the struct name.
	Name string `json:"name,omitempty" yaml:"name,omitempty" cbor:"2,keyasint,omitempty"`
	// Fields are the struct fields in emission order, which is the only
	// thing that lines bytes up with fields.
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty" cbor:"3,keyasint,omitempty"`
	// Key is the map key shape.
	Key *Schema `json:"key,omitempty" yaml:"key,omitempty" cbor:"4,keyasint,omitempty"`
	// Elem is the seq element, option payload or map value shape.
	Elem *Schema `json:"elem,omitempty" yaml:"elem,omitempty" cbor:"5,keyasint,omitempty"`
}

// Field is one named struct member.
type Field struct {
	Name   string  `json:"name" yaml:"name" cbor:"1,keyasint"`
	Schema *Schema `json:"schema" yaml:"schema" cbor:"2,keyasint"`
}

// Prim returns the schema of a primitive kind.
func Prim(kind Kind) *Schema { return &Schema{Kind: kind} }

func SeqOf(elem *Schema) *Schema          { return &Schema{Kind: KindSeq, Elem: elem} }
func MapOf(key, value *Schema) *Schema    { return &Schema{Kind: KindMap, Key: key, Elem: value} }
func OptionOf(elem *Schema) *Schema       { return &Schema{Kind: KindOption, Elem: elem} }
func F(name string, schema *Schema) Field { return Field{Name: name, Schema: schema} }

// StructOf returns a struct schema with fields in the given order.
func StructOf(name string, fields ...Field) *Schema {
	return &Schema{Kind: KindStruct, Name: name, Fields: fields}
}

// Field returns the named field's schema and its position.
func (s *Schema) Field(name string) (*Schema, int) {
	for i, f := range s.Fields {
		if f.Name == name {
			return f.Schema, i
		}
	}
	return nil, -1
}

// Equal reports whether two schemas describe the same shape.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Kind != o.Kind || s.Name != o.Name || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i].Name != o.Fields[i].Name || !s.Fields[i].Schema.Equal(o.Fields[i].Schema) {
			return false
		}
	}
	return s.Key.Equal(o.Key) && s.Elem.Equal(o.Elem)
}

// Clone returns a deep copy.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := &Schema{Kind: s.Kind, Name: s.Name, Key: s.Key.Clone(), Elem: s.Elem.Clone()}
	if s.Fields != nil {
		c.Fields = make([]Field, len(s.Fields))
		for i, f := range s.Fields {
			c.Fields[i] = Field{Name: f.Name, Schema: f.Schema.Clone()}
		}
	}
	return c
}

// MinSize returns the fewest wire bytes a value of this shape can occupy.
func (s *Schema) MinSize() int {
	if n, ok := fixedWidths[s.Kind]; ok {
		return n
	}
	switch s.Kind {
	case KindChar, KindOption:
		return 1
	case KindStruct:
		total := 0
		for _, f := range s.Fields {
			total += f.Schema.MinSize()
		}
		return total
	default:
		// Everything else starts with a u64 length.
		return 8
	}
}

// Validate checks that the schema is well formed: composites carry their
// nested shapes, primitives carry none, and struct field names are unique.
func (s *Schema) Validate() error {
	var path fieldPath
	return s.validate(&path)
}

func (s *Schema) validate(path *fieldPath) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidSchema, pathOrRoot(path.String()), fmt.Sprintf(format, args...))
	}
	if s == nil {
		return fail("missing schema")
	}
	switch {
	case s.Kind.IsPrimitive():
		if s.Key != nil || s.Elem != nil || len(s.Fields) > 0 || s.Name != "" {
			return fail("%s carries a nested shape", s.Kind)
		}
		return nil
	case s.Kind == KindSeq || s.Kind == KindOption:
		if s.Key != nil || len(s.Fields) > 0 {
			return fail("%s carries a key or fields", s.Kind)
		}
		path.push("[]")
		defer path.pop()
		return s.Elem.validate(path)
	case s.Kind == KindMap:
		if len(s.Fields) > 0 {
			return fail("map carries fields")
		}
		path.push("<key>")
		err := s.Key.validate(path)
		path.pop()
		if err != nil {
			return err
		}
		path.push("[]")
		defer path.pop()
		return s.Elem.validate(path)
	case s.Kind == KindStruct:
		if s.Key != nil || s.Elem != nil {
			return fail("struct carries a key or element")
		}
		seen := make(map[string]struct{}, len(s.Fields))
		for _, f := range s.Fields {
			if f.Name == "" {
				return fail("struct %s has an unnamed field", s.Name)
			}
			if _, dup := seen[f.Name]; dup {
				return fail("struct %s repeats field %q", s.Name, f.Name)
			}
			seen[f.Name] = struct{}{}
			path.push(f.Name)
			err := f.Schema.validate(path)
			path.pop()
			if err != nil {
				return err
			}
		}
		return nil
	}
	return fail("unknown kind %s", s.Kind)
}

// String renders the schema compactly, e.g. "A{a: i32, b: B{c: i32}}".
func (s *Schema) String() string {
	var b strings.Builder
	s.format(&b)
	return b.String()
}

func (s *Schema) format(b *strings.Builder) {
	if s == nil {
		b.WriteString("<nil>")
		return
	}
	switch s.Kind {
	case KindSeq, KindOption:
		b.WriteString(s.Kind.String())
		b.WriteByte('<')
		s.Elem.format(b)
		b.WriteByte('>')
	case KindMap:
		b.WriteString("map<")
		s.Key.format(b)
		b.WriteString(", ")
		s.Elem.format(b)
		b.WriteByte('>')
	case KindStruct:
		b.WriteString(s.Name)
		b.WriteByte('{')
		for i, f := range s.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Schema.format(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString(s.Kind.String())
	}
}
