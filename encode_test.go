package dyncodec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EncodeTestSuite struct {
	suite.Suite
}

func (s *EncodeTestSuite) TestNestedStruct() {
	data, err := Marshal(A{A: 99, B: B{C: 23480}})
	s.Require().NoError(err)
	s.Assert().Equal(abBytes, data)

	var got A
	s.Require().NoError(Unmarshal(data, &got))
	s.Assert().Equal(A{A: 99, B: B{C: 23480}}, got)
}

func (s *EncodeTestSuite) TestEveryKindRoundTrip() {
	data, err := Marshal(everythingFixture())
	s.Require().NoError(err)

	var got Everything
	s.Require().NoError(Unmarshal(data, &got))

	want := everythingFixture()
	want.Skipped = ""
	want.hidden = 0
	s.Assert().Equal(want, got)
}

func (s *EncodeTestSuite) TestSkippedFieldsKeepTheirValue() {
	data, err := Marshal(everythingFixture())
	s.Require().NoError(err)

	got := Everything{Skipped: "kept", hidden: 3}
	s.Require().NoError(Unmarshal(data, &got))
	s.Assert().Equal("kept", got.Skipped)
	s.Assert().Equal(3, got.hidden)
}

func (s *EncodeTestSuite) TestDescriberTypes() {
	data, err := Marshal(point{x: 1, y: -2})
	s.Require().NoError(err)
	s.Assert().Equal([]byte{1, 0, 0, 0, 0xFE, 0xFF, 0xFF, 0xFF}, data)

	var p point
	s.Require().NoError(Unmarshal(data, &p))
	s.Assert().Equal(point{x: 1, y: -2}, p)

	data, err = Marshal(color(2))
	s.Require().NoError(err)
	s.Assert().Equal([]byte{2, 0, 0, 0}, data)

	var c color
	s.Require().NoError(Unmarshal(data, &c))
	s.Assert().Equal("blue", c.String())

	err = Unmarshal([]byte{5, 0, 0, 0}, &c)
	s.Assert().ErrorIs(err, ErrInvalidDiscriminant)
}

func (s *EncodeTestSuite) TestPointerIsOption() {
	data, err := Marshal(Ptr(int16(-1)))
	s.Require().NoError(err)
	s.Assert().Equal([]byte{1, 0xFF, 0xFF}, data)

	data, err = Marshal((*int16)(nil))
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0}, data)

	var p *int16
	s.Require().NoError(Unmarshal([]byte{1, 7, 0}, &p))
	s.Require().NotNil(p)
	s.Assert().Equal(int16(7), *p)
}

func (s *EncodeTestSuite) TestMapKeysAreSorted() {
	m := map[int32]string{10: "a", -1: "b", 2: "c"}
	first, err := Marshal(m)
	s.Require().NoError(err)
	for range 10 {
		again, err := Marshal(m)
		s.Require().NoError(err)
		s.Require().Equal(first, again)
	}
	// The smallest key comes right after the length prefix.
	s.Assert().Equal([]byte{0xFF, 0xFF, 0xFF, 0xFF}, first[8:12])

	var back map[int32]string
	s.Require().NoError(Unmarshal(first, &back))
	s.Assert().Equal(m, back)
}

func (s *EncodeTestSuite) TestErrors() {
	type withAny struct {
		X any
	}

	s.T().Run("NotPointer", func(t *testing.T) {
		assert.ErrorIs(t, Unmarshal(abBytes, A{}), ErrNotPointer)
		assert.ErrorIs(t, Unmarshal(abBytes, (*A)(nil)), ErrNotPointer)
	})
	s.T().Run("NotSelfDescribing", func(t *testing.T) {
		var v withAny
		err := Unmarshal(abBytes, &v)
		require.ErrorIs(t, err, ErrNotSelfDescribing)
		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "X", de.Path)
	})
	s.T().Run("UnsupportedEncode", func(t *testing.T) {
		_, err := Marshal(withAny{X: 1})
		assert.ErrorIs(t, err, ErrUnsupported)
		_, err = Marshal(nil)
		assert.ErrorIs(t, err, ErrUnsupported)
	})
	s.T().Run("Truncated", func(t *testing.T) {
		var v A
		err := Unmarshal(abBytes[:5], &v)
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})
}

func (s *EncodeTestSuite) TestEncodeDynamicRoundTrip() {
	schema := everythingSchema()
	var buf bytes.Buffer
	s.Require().NoError(EncodeDynamic(&buf, schema, everythingValue()))

	var got Everything
	s.Require().NoError(Unmarshal(buf.Bytes(), &got))
	s.Assert().Equal(int32(-320000), got.I32)
	s.Assert().Equal(map[uint16]bool{3: false, 7: true}, got.ByID)
	s.Require().NotNil(got.Parent)
	s.Assert().Equal(int32(23480), got.Parent.B.C)
	s.Assert().Nil(got.Missing)
}

func (s *EncodeTestSuite) TestEncodeDynamicMismatch() {
	cases := []struct {
		name   string
		schema *Schema
		value  Value
		path   string
	}{
		{"WrongKind", abSchema, Struct{Name: "A", Fields: []FieldValue{
			{Name: "a", Value: I64(1)},
			{Name: "b", Value: Struct{Name: "B", Fields: []FieldValue{{Name: "c", Value: I32(2)}}}},
		}}, "a"},
		{"NestedWrongKind", abSchema, Struct{Name: "A", Fields: []FieldValue{
			{Name: "a", Value: I32(1)},
			{Name: "b", Value: Struct{Name: "B", Fields: []FieldValue{{Name: "c", Value: String("x")}}}},
		}}, "b.c"},
		{"MissingField", abSchema, Struct{Name: "A", Fields: []FieldValue{{Name: "a", Value: I32(1)}}}, ""},
		{"RenamedField", StructOf("S", F("x", Prim(KindU8))), Struct{Name: "S", Fields: []FieldValue{{Name: "y", Value: U8(1)}}}, ""},
		{"NilValue", Prim(KindU8), nil, ""},
		{"BadKey", MapOf(Prim(KindU16), Prim(KindBool)), Map{"x": Bool(true)}, "x"},
		{"KeyOutOfRange", MapOf(Prim(KindU8), Prim(KindBool)), Map{"300": Bool(true)}, "300"},
		{"SeqElement", SeqOf(Prim(KindU8)), Seq{U8(1), U16(2)}, "1"},
		{"OptionPayload", OptionOf(Prim(KindU8)), Some(Bool(true)), ""},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			err := EncodeDynamic(&bytes.Buffer{}, tc.schema, tc.value)
			require.ErrorIs(t, err, ErrValueMismatch)
			var me *MismatchError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tc.path, me.Path)
		})
	}
}

func TestEncode(t *testing.T) {
	suite.Run(t, new(EncodeTestSuite))
}
