package dyncodec

// Decoder is what a type's description logic talks to. The same logic runs
// against the wire decoder, which fills the type from bytes, and against the
// recorder, which returns placeholders and writes down every call instead.
//
// Each callback describes exactly one value with the Decoder it is handed.
// Implementations decide how often a callback runs: the wire decoder runs it
// once per element on the wire, the recorder runs it once.
type Decoder interface {
	DecodeBool() (bool, error)
	DecodeInt8() (int8, error)
	DecodeInt16() (int16, error)
	DecodeInt32() (int32, error)
	DecodeInt64() (int64, error)
	DecodeInt128() (I128, error)
	DecodeUint8() (uint8, error)
	DecodeUint16() (uint16, error)
	DecodeUint32() (uint32, error)
	DecodeUint64() (uint64, error)
	DecodeUint128() (U128, error)
	DecodeFloat32() (float32, error)
	DecodeFloat64() (float64, error)
	DecodeChar() (rune, error)
	DecodeUnit() error

	// DecodeStr and DecodeString read the same bytes; they differ only in the
	// schema kind they record.
	DecodeStr() (string, error)
	DecodeString() (string, error)
	// DecodeBytes and DecodeByteBuf likewise.
	DecodeBytes() ([]byte, error)
	DecodeByteBuf() ([]byte, error)

	// DecodeSeq describes a homogeneous, length-prefixed sequence.
	DecodeSeq(elem func(d Decoder) error) error
	// DecodeMap describes a length-prefixed map. entry must describe the key
	// with key and then the value with value.
	DecodeMap(entry func(key, value Decoder) error) error
	// DecodeOption describes a tagged optional value. some runs only when the
	// value is present.
	DecodeOption(some func(d Decoder) error) error
	// DecodeStruct describes a struct whose fields are visited in the order
	// given by fields; field(i, d) describes fields[i].
	DecodeStruct(name string, fields []string, field func(i int, d Decoder) error) error

	// DecodeTuple describes n values back to back with no length prefix.
	DecodeTuple(n int, elem func(i int, d Decoder) error) error
	// DecodeEnum describes a u32 variant index followed by that variant's payload.
	DecodeEnum(name string, variants []string, variant func(i int, d Decoder) error) error
	// DecodeAny asks for a value of unknown shape.
	DecodeAny() (any, error)
}

// Describer is implemented by types that describe their own wire shape.
// DescribeWire is called on a zero value when recording a schema, so it must
// not depend on the receiver's current contents.
type Describer interface {
	DescribeWire(d Decoder) error
}

// WireEncoder is the encoding counterpart of Describer: a type implementing
// both must emit exactly the values its DescribeWire describes.
type WireEncoder interface {
	EncodeWire(w *Writer) error
}
