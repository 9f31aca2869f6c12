package dyncodec

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLookup(t *testing.T) {
	v := everythingValue()

	got, ok := Lookup(v, "Parent", "b", "c")
	require.True(t, ok)
	assert.Equal(t, I32(23480), got)

	got, ok = Lookup(v, "Tags", "1")
	require.True(t, ok)
	assert.Equal(t, String("y"), got)

	got, ok = Lookup(v, "Scores", "b")
	require.True(t, ok)
	assert.Equal(t, I32(2), got)

	got, ok = Lookup(v)
	require.True(t, ok)
	assert.Equal(t, v, got)

	for _, path := range [][]string{
		{"Missing", "a"},
		{"Tags", "5"},
		{"Tags", "-1"},
		{"Tags", "x"},
		{"Scores", "z"},
		{"Nope"},
		{"I8", "deeper"},
	} {
		_, ok := Lookup(v, path...)
		assert.False(t, ok, "%v", path)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "A{a: 99, b: B{c: 23480}}", FormatValue(abValue))

	v := Seq{
		Str("x"), Char('é'), Bytes("hi"), None(), Some(U8(1)), Unit{},
		Map{"k": Bool(true), "j": F64(0.5)}, I128FromInt64(-3), nil,
	}
	assert.Equal(t, `["x", 'é', b"hi", None, Some(1), (), {"j": 0.5, "k": true}, -3, <nil>]`, FormatValue(v))
}

func TestMapKeysRoundTrip(t *testing.T) {
	keys := []Value{
		Str("plain"), String(""), Char('é'), Bool(false),
		I8(math.MinInt8), I16(-300), I32(math.MaxInt32), I64(math.MinInt64),
		U8(math.MaxUint8), U16(7), U32(math.MaxUint32), U64(math.MaxUint64),
		I128{Hi: math.MinInt64}, U128{Hi: math.MaxUint64, Lo: math.MaxUint64},
		F32(1.5), F64(-0.25), Unit{},
	}
	for _, key := range keys {
		text := keyString(key)
		back, err := parseKey(key.Kind(), text)
		require.NoError(t, err, "%s %q", key.Kind(), text)
		assert.Equal(t, key, back, "%s %q", key.Kind(), text)
	}

	for kind, text := range map[Kind]string{
		KindChar: "ab",
		KindI8:   "128",
		KindU16:  "-1",
		KindBool: "maybe",
		KindUnit: "unit",
		KindU128: "-1",
	} {
		_, err := parseKey(kind, text)
		assert.Error(t, err, "%s %q", kind, text)
	}
	_, err := parseKey(KindStruct, "x")
	assert.Error(t, err)
}

func TestWideIntegers(t *testing.T) {
	assert.Equal(t, "-5", I128FromInt64(-5).String())
	assert.Equal(t, "18446744073709551618", U128{Hi: 1, Lo: 2}.String())
	assert.Equal(t, "42", U128FromUint64(42).String())

	minI128 := "-170141183460469231731687303715884105728"
	v, err := ParseI128(minI128)
	require.NoError(t, err)
	assert.Equal(t, I128{Hi: math.MinInt64}, v)
	assert.Equal(t, minI128, v.String())

	maxU128 := "340282366920938463463374607431768211455"
	u, err := ParseU128(maxU128)
	require.NoError(t, err)
	assert.Equal(t, U128{Hi: math.MaxUint64, Lo: math.MaxUint64}, u)
	assert.Equal(t, maxU128, u.Big().String())

	_, err = ParseU128("340282366920938463463374607431768211456")
	assert.Error(t, err)
	_, err = ParseI128("170141183460469231731687303715884105728")
	assert.Error(t, err)
	_, err = ParseI128("12x")
	assert.Error(t, err)
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(abValue)
	require.NoError(t, err)
	assert.Equal(t, `{"a":99,"b":{"c":23480}}`, string(data))

	data, err = json.Marshal(everythingValue())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Flag": true, "I8": -8, "I16": -1600, "I32": -320000, "I64": -64, "Int": 42,
		"U8": 8, "U16": 1600, "U32": 320000, "U64": 1099511627776, "Uint": 7,
		"F32": 1.5, "F64": -2.25,
		"Big": "-5", "UBig": "18446744073709551618",
		"Letter": "é", "Name": "owned", "Label": "borrowed",
		"Raw": "AQID", "Blob": "YmxvYg==", "Nothing": null,
		"Tags": ["x", "y"],
		"Scores": {"a": 1, "b": 2},
		"ByID": {"3": false, "7": true},
		"Parent": {"a": 99, "b": {"c": 23480}},
		"Missing": null
	}`, string(data))
}

func TestValueYAML(t *testing.T) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	require.NoError(t, enc.Encode(YAMLNode(abValue)))
	require.NoError(t, enc.Close())
	assert.Equal(t, "a: 99\nb:\n  c: 23480\n", buf.String())

	out, err := yaml.Marshal(everythingValue())
	require.NoError(t, err)

	// Past 64 bits the tag has to stay, and Go's int cannot hold the value.
	wide := "UBig: !!int 18446744073709551618\n"
	require.Contains(t, string(out), wide)
	out = bytes.Replace(out, []byte(wide), nil, 1)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, -5, back["Big"])
	assert.Equal(t, "é", back["Letter"])
	assert.Equal(t, "\x01\x02\x03", back["Raw"])
	assert.Equal(t, 1.5, back["F32"])
	assert.Nil(t, back["Missing"])
	assert.Nil(t, back["Nothing"])
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, back["Scores"])
	assert.Equal(t, []any{"x", "y"}, back["Tags"])
}

func TestYAMLFloats(t *testing.T) {
	assert.Equal(t, "2.0", YAMLNode(F64(2)).Value)
	assert.Equal(t, "1e+21", YAMLNode(F64(1e21)).Value)
	assert.Equal(t, ".nan", YAMLNode(F32(float32(math.NaN()))).Value)
	assert.Equal(t, "-.inf", YAMLNode(F64(math.Inf(-1))).Value)
}
