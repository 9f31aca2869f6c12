package dyncodec

import "fmt"

// Shared fixtures.

type B struct {
	C int32 `wire:"c"`
}

type A struct {
	A int32 `wire:"a"`
	B B     `wire:"b"`
}

var abSchema = StructOf("A",
	F("a", Prim(KindI32)),
	F("b", StructOf("B", F("c", Prim(KindI32)))),
)

// abBytes is A{a: 99, b: B{c: 23480}} in the default little-endian layout.
var abBytes = []byte{
	0x63, 0x00, 0x00, 0x00, // a = 99
	0xB8, 0x5B, 0x00, 0x00, // b.c = 23480
}

var abValue = Struct{Name: "A", Fields: []FieldValue{
	{Name: "a", Value: I32(99)},
	{Name: "b", Value: Struct{Name: "B", Fields: []FieldValue{
		{Name: "c", Value: I32(23480)},
	}}},
}}

type Everything struct {
	Flag    bool
	I8      int8
	I16     int16
	I32     int32
	I64     int64
	Int     int
	U8      uint8
	U16     uint16
	U32     uint32
	U64     uint64
	Uint    uint
	F32     float32
	F64     float64
	Big     I128
	UBig    U128
	Letter  Char
	Name    string
	Label   Str
	Raw     []byte
	Blob    Bytes
	Nothing Unit
	Tags    []string
	Scores  map[string]int32
	ByID    map[uint16]bool
	Parent  *A
	Missing *A
	Skipped string `wire:"-"`
	hidden  int
}

func everythingSchema() *Schema {
	a := StructOf("A", F("a", Prim(KindI32)), F("b", StructOf("B", F("c", Prim(KindI32)))))
	return StructOf("Everything",
		F("Flag", Prim(KindBool)),
		F("I8", Prim(KindI8)),
		F("I16", Prim(KindI16)),
		F("I32", Prim(KindI32)),
		F("I64", Prim(KindI64)),
		F("Int", Prim(KindI64)),
		F("U8", Prim(KindU8)),
		F("U16", Prim(KindU16)),
		F("U32", Prim(KindU32)),
		F("U64", Prim(KindU64)),
		F("Uint", Prim(KindU64)),
		F("F32", Prim(KindF32)),
		F("F64", Prim(KindF64)),
		F("Big", Prim(KindI128)),
		F("UBig", Prim(KindU128)),
		F("Letter", Prim(KindChar)),
		F("Name", Prim(KindString)),
		F("Label", Prim(KindStr)),
		F("Raw", Prim(KindByteBuf)),
		F("Blob", Prim(KindBytes)),
		F("Nothing", Prim(KindUnit)),
		F("Tags", SeqOf(Prim(KindString))),
		F("Scores", MapOf(Prim(KindString), Prim(KindI32))),
		F("ByID", MapOf(Prim(KindU16), Prim(KindBool))),
		F("Parent", OptionOf(a)),
		F("Missing", OptionOf(a.Clone())),
	)
}

func everythingFixture() Everything {
	return Everything{
		Flag:    true,
		I8:      -8,
		I16:     -1600,
		I32:     -320000,
		I64:     -64,
		Int:     42,
		U8:      8,
		U16:     1600,
		U32:     320000,
		U64:     1 << 40,
		Uint:    7,
		F32:     1.5,
		F64:     -2.25,
		Big:     I128FromInt64(-5),
		UBig:    U128{Hi: 1, Lo: 2},
		Letter:  'é',
		Name:    "owned",
		Label:   "borrowed",
		Raw:     []byte{1, 2, 3},
		Blob:    Bytes("blob"),
		Tags:    []string{"x", "y"},
		Scores:  map[string]int32{"b": 2, "a": 1},
		ByID:    map[uint16]bool{7: true, 3: false},
		Parent:  &A{A: 99, B: B{C: 23480}},
		Skipped: "never on the wire",
		hidden:  1,
	}
}

func everythingValue() Value {
	return Struct{Name: "Everything", Fields: []FieldValue{
		{Name: "Flag", Value: Bool(true)},
		{Name: "I8", Value: I8(-8)},
		{Name: "I16", Value: I16(-1600)},
		{Name: "I32", Value: I32(-320000)},
		{Name: "I64", Value: I64(-64)},
		{Name: "Int", Value: I64(42)},
		{Name: "U8", Value: U8(8)},
		{Name: "U16", Value: U16(1600)},
		{Name: "U32", Value: U32(320000)},
		{Name: "U64", Value: U64(1 << 40)},
		{Name: "Uint", Value: U64(7)},
		{Name: "F32", Value: F32(1.5)},
		{Name: "F64", Value: F64(-2.25)},
		{Name: "Big", Value: I128FromInt64(-5)},
		{Name: "UBig", Value: U128{Hi: 1, Lo: 2}},
		{Name: "Letter", Value: Char('é')},
		{Name: "Name", Value: String("owned")},
		{Name: "Label", Value: Str("borrowed")},
		{Name: "Raw", Value: ByteBuf{1, 2, 3}},
		{Name: "Blob", Value: Bytes("blob")},
		{Name: "Nothing", Value: Unit{}},
		{Name: "Tags", Value: Seq{String("x"), String("y")}},
		{Name: "Scores", Value: Map{"a": I32(1), "b": I32(2)}},
		{Name: "ByID", Value: Map{"3": Bool(false), "7": Bool(true)}},
		{Name: "Parent", Value: Some(abValue)},
		{Name: "Missing", Value: None()},
	}}
}

// point describes and encodes itself instead of going through reflection.
type point struct {
	x, y int32
}

func (p *point) DescribeWire(d Decoder) error {
	return d.DecodeStruct("Point", []string{"x", "y"}, func(i int, d Decoder) error {
		v, err := d.DecodeInt32()
		if i == 0 {
			p.x = v
		} else {
			p.y = v
		}
		return err
	})
}

func (p *point) EncodeWire(w *Writer) error {
	w.WriteInt32(p.x)
	w.WriteInt32(p.y)
	return w.Err()
}

// color is a u32-indexed enum, which the schema model cannot hold.
type color uint8

var colorNames = []string{"red", "green", "blue"}

func (c *color) DescribeWire(d Decoder) error {
	return d.DecodeEnum("Color", colorNames, func(i int, d Decoder) error {
		*c = color(i)
		return d.DecodeUnit()
	})
}

func (c *color) EncodeWire(w *Writer) error {
	w.WriteUint32(uint32(*c))
	return w.Err()
}

func (c color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// describeFunc adapts a function into a Describer.
type describeFunc func(d Decoder) error

func (f describeFunc) DescribeWire(d Decoder) error { return f(d) }
