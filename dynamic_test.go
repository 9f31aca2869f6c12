package dyncodec

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DynamicTestSuite struct {
	suite.Suite
}

func (s *DynamicTestSuite) TestNestedStruct() {
	schema, err := RecordSchema[A]()
	s.Require().NoError(err)

	v, err := DecodeDynamic(schema, NewBytesReader(abBytes))
	s.Require().NoError(err)
	s.Assert().Empty(cmp.Diff(abValue, v))

	c, ok := Lookup(v, "b", "c")
	s.Require().True(ok)
	s.Assert().Equal(I32(23480), c)
}

// The bytes carry no names, so field order alone decides what lands where.
func (s *DynamicTestSuite) TestFieldOrderDecidesLayout() {
	swapped := StructOf("A",
		F("b", StructOf("B", F("c", Prim(KindI32)))),
		F("a", Prim(KindI32)),
	)
	v, err := DecodeDynamic(swapped, NewBytesReader(abBytes))
	s.Require().NoError(err)

	c, _ := Lookup(v, "b", "c")
	a, _ := Lookup(v, "a")
	s.Assert().Equal(I32(99), c)
	s.Assert().Equal(I32(23480), a)
}

func (s *DynamicTestSuite) TestEveryKindMatchesStaticEncoding() {
	schema, err := RecordSchema[Everything]()
	s.Require().NoError(err)
	data, err := Marshal(everythingFixture())
	s.Require().NoError(err)

	v, err := DecodeDynamic(schema, bytes.NewReader(data))
	s.Require().NoError(err)
	s.Assert().Empty(cmp.Diff(everythingValue(), v))

	var buf bytes.Buffer
	s.Require().NoError(EncodeDynamic(&buf, schema, v))
	s.Assert().Equal(data, buf.Bytes(), "re-encoding the decoded tree must reproduce the input")
}

func (s *DynamicTestSuite) TestPrimitives() {
	cases := []struct {
		name   string
		schema *Schema
		data   []byte
		want   Value
	}{
		{"Bool", Prim(KindBool), []byte{1}, Bool(true)},
		{"I8", Prim(KindI8), []byte{0xFF}, I8(-1)},
		{"U16", Prim(KindU16), []byte{0x34, 0x12}, U16(0x1234)},
		{"I64", Prim(KindI64), []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, I64(-2)},
		{"U128", Prim(KindU128), []byte{2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, U128{Hi: 1, Lo: 2}},
		{"F64", Prim(KindF64), []byte{0, 0, 0, 0, 0, 0, 0xF8, 0x3F}, F64(1.5)},
		{"Char", Prim(KindChar), []byte{0xE2, 0x82, 0xAC}, Char('€')},
		{"Unit", Prim(KindUnit), nil, Unit{}},
		{"Str", Prim(KindStr), []byte{2, 0, 0, 0, 0, 0, 0, 0, 'h', 'i'}, Str("hi")},
		{"EmptyString", Prim(KindString), []byte{0, 0, 0, 0, 0, 0, 0, 0}, String("")},
		{"Bytes", Prim(KindBytes), []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xFF}, Bytes{0xFF}},
		{"EmptySeq", SeqOf(Prim(KindU64)), []byte{0, 0, 0, 0, 0, 0, 0, 0}, Seq{}},
		{"Seq", SeqOf(Prim(KindU8)), []byte{2, 0, 0, 0, 0, 0, 0, 0, 7, 9}, Seq{U8(7), U8(9)}},
		{"None", OptionOf(Prim(KindU8)), []byte{0}, None()},
		{"Some", OptionOf(Prim(KindU8)), []byte{1, 5}, Some(U8(5))},
		{"Map", MapOf(Prim(KindI8), Prim(KindBool)), []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xFE, 1}, Map{"-2": Bool(true)}},
		{"EmptyStruct", StructOf("Empty"), nil, Struct{Name: "Empty", Fields: []FieldValue{}}},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			v, err := DecodeDynamic(tc.schema, NewBytesReader(tc.data))
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tc.want, v))
		})
	}
}

func (s *DynamicTestSuite) TestTruncation() {
	for n := 0; n < len(abBytes); n++ {
		v, err := DecodeDynamic(abSchema, NewBytesReader(abBytes[:n]))
		s.Assert().Nil(v, "prefix of %d bytes", n)
		s.Assert().ErrorIs(err, ErrUnexpectedEOF, "prefix of %d bytes", n)
	}

	_, err := DecodeDynamic(abSchema, NewBytesReader(abBytes[:6]))
	var de *DecodeError
	s.Require().True(errors.As(err, &de))
	s.Assert().Equal("b.c", de.Path)
	s.Assert().Equal(int64(6), de.Offset)
}

func (s *DynamicTestSuite) TestInvalidEncodings() {
	cases := []struct {
		name   string
		schema *Schema
		data   []byte
		target error
		path   string
	}{
		{"OptionTag", OptionOf(Prim(KindU8)), []byte{2, 0}, ErrInvalidDiscriminant, ""},
		{"Bool", StructOf("S", F("ok", Prim(KindBool))), []byte{2}, ErrInvalidBool, "ok"},
		{"StringUTF8", Prim(KindString), []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xFF}, ErrInvalidUTF8, ""},
		{"Surrogate", Prim(KindChar), []byte{0xED, 0xA0, 0x80}, ErrInvalidUTF8, ""},
		{"SeqElement", SeqOf(Prim(KindBool)), []byte{2, 0, 0, 0, 0, 0, 0, 0, 1, 3}, ErrInvalidBool, "1"},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			_, err := DecodeDynamic(tc.schema, NewBytesReader(tc.data))
			require.ErrorIs(t, err, tc.target)
			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tc.path, de.Path)
		})
	}
}

func (s *DynamicTestSuite) TestLengthOverflow() {
	s.T().Run("ExceedsRemaining", func(t *testing.T) {
		// 5 u32 elements need 20 bytes, only 4 follow.
		data := []byte{5, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4}
		_, err := DecodeDynamic(SeqOf(Prim(KindU32)), NewBytesReader(data))
		assert.ErrorIs(t, err, ErrLengthOverflow)
	})
	s.T().Run("MapEntries", func(t *testing.T) {
		data := []byte{0xFF, 0xFF, 0, 0, 0, 0, 0, 0}
		_, err := DecodeDynamic(MapOf(Prim(KindU8), Prim(KindU8)), bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrLengthOverflow)
	})
	s.T().Run("ExceedsInt", func(t *testing.T) {
		data := []byte{0, 0, 0, 0, 0, 0, 0, 0x80}
		_, err := DecodeDynamic(Prim(KindByteBuf), NewBytesReader(data))
		assert.ErrorIs(t, err, ErrLengthOverflow)
	})
	s.T().Run("ExceedsLimit", func(t *testing.T) {
		data := append([]byte{100, 0, 0, 0, 0, 0, 0, 0}, make([]byte, 100)...)
		_, err := DefaultConfig.WithLimit(50).DecodeDynamic(Prim(KindByteBuf), NewBytesReader(data))
		assert.ErrorIs(t, err, ErrLengthOverflow)

		v, err := DefaultConfig.WithLimit(108).DecodeDynamic(Prim(KindByteBuf), NewBytesReader(data))
		require.NoError(t, err)
		assert.Len(t, v, 100)
	})
}

func (s *DynamicTestSuite) TestZeroWidthLengths() {
	huge := []byte{0, 0, 0, 0, 0, 1, 0, 0} // 2^40

	for name, schema := range map[string]*Schema{
		"Unit":        SeqOf(Prim(KindUnit)),
		"EmptyStruct": SeqOf(StructOf("E")),
		"UnitMap":     MapOf(Prim(KindUnit), StructOf("E", F("u", Prim(KindUnit)))),
	} {
		_, err := DefaultConfig.WithLimit(64).DecodeDynamic(schema, NewBytesReader(huge))
		s.Assert().ErrorIs(err, ErrLengthOverflow, name)
		_, err = DecodeDynamic(schema, plainReader{bytes.NewReader(huge)})
		s.Assert().ErrorIs(err, ErrLengthOverflow, name)
	}

	v, err := DecodeDynamic(SeqOf(Prim(KindUnit)), NewBytesReader([]byte{3, 0, 0, 0, 0, 0, 0, 0}))
	s.Require().NoError(err)
	s.Assert().Equal(Seq{Unit{}, Unit{}, Unit{}}, v)

	// Go element types have no known width up front; the cap still applies.
	var units []Unit
	s.Assert().ErrorIs(Unmarshal(huge, &units), ErrLengthOverflow)
	s.Require().NoError(Unmarshal([]byte{2, 0, 0, 0, 0, 0, 0, 0}, &units))
	s.Assert().Len(units, 2)
}

func (s *DynamicTestSuite) TestDuplicateMapKeys() {
	data := []byte{2, 0, 0, 0, 0, 0, 0, 0, 1, 10, 1, 20}
	_, err := DecodeDynamic(MapOf(Prim(KindU8), Prim(KindU8)), NewBytesReader(data))
	s.Require().ErrorIs(err, ErrDuplicateKey)

	var de *DecodeError
	s.Require().True(errors.As(err, &de))
	s.Assert().Equal("1", de.Path)
	s.Assert().Equal(int64(11), de.Offset)

	data[10] = 2
	v, err := DecodeDynamic(MapOf(Prim(KindU8), Prim(KindU8)), NewBytesReader(data))
	s.Require().NoError(err)
	s.Assert().Equal(Map{"1": U8(10), "2": U8(20)}, v)
}

func (s *DynamicTestSuite) TestSourceFailure() {
	boom := errors.New("disk on fire")
	_, err := DecodeDynamic(abSchema, iotest.ErrReader(boom))
	s.Assert().ErrorIs(err, ErrIO)
	s.Assert().ErrorIs(err, boom)
}

func (s *DynamicTestSuite) TestTrailingBytesStayUnread() {
	src := bytes.NewReader(append(bytes.Clone(abBytes), 0xAA, 0xBB))
	v, err := DecodeDynamic(abSchema, src)
	s.Require().NoError(err)
	s.Assert().Empty(cmp.Diff(abValue, v))
	s.Assert().Equal(2, src.Len())

	rest, err := io.ReadAll(src)
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0xAA, 0xBB}, rest)
}

func (s *DynamicTestSuite) TestBigEndian() {
	be := DefaultConfig.WithByteOrder(BE)
	data := []byte{0, 0, 0, 0x63, 0, 0, 0x5B, 0xB8}
	v, err := be.DecodeDynamic(abSchema, NewBytesReader(data))
	s.Require().NoError(err)
	s.Assert().Empty(cmp.Diff(abValue, v))

	encoded, err := be.Marshal(A{A: 99, B: B{C: 23480}})
	s.Require().NoError(err)
	s.Assert().Equal(data, encoded)
}

func (s *DynamicTestSuite) TestInvalidSchema() {
	_, err := DecodeDynamic(&Schema{Kind: KindSeq}, NewBytesReader(nil))
	s.Assert().ErrorIs(err, ErrInvalidSchema)
	_, err = DecodeDynamic(nil, NewBytesReader(nil))
	s.Assert().ErrorIs(err, ErrInvalidSchema)
	_, err = DecodeDynamic(abSchema, nil)
	s.Assert().ErrorIs(err, ErrNilIO)
}

func (s *DynamicTestSuite) TestDecodeChecked() {
	fp := abSchema.Fingerprint()
	v, err := DecodeChecked(abSchema, fp, NewBytesReader(abBytes))
	s.Require().NoError(err)
	s.Assert().Empty(cmp.Diff(abValue, v))

	other := StructOf("A", F("a", Prim(KindI64)))
	_, err = DecodeChecked(other, fp, NewBytesReader(abBytes))
	s.Assert().ErrorIs(err, ErrSchemaMismatch)
}

func (s *DynamicTestSuite) TestConcurrentDecodesShareSchema() {
	schema, err := RecordSchema[Everything]()
	s.Require().NoError(err)
	data, err := Marshal(everythingFixture())
	s.Require().NoError(err)

	errs := make(chan error, 16)
	for range cap(errs) {
		go func() {
			v, err := DecodeDynamic(schema, NewBytesReader(data))
			if err == nil && !cmp.Equal(everythingValue(), v) {
				err = errors.New("decoded value differs")
			}
			errs <- err
		}()
	}
	for range cap(errs) {
		s.Assert().NoError(<-errs)
	}
}

func TestDynamic(t *testing.T) {
	suite.Run(t, new(DynamicTestSuite))
}
