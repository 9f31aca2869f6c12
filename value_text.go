package dyncodec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// JSON and YAML forms are for people and tools reading decoded values; they
// are not parsed back. Struct fields keep schema order, 128-bit integers
// become decimal strings in JSON and unit and absent options become null.

func (s Struct) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := marshalJSONValue(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o Option) MarshalJSON() ([]byte, error) { return marshalJSONValue(o.Value) }
func (c Char) MarshalJSON() ([]byte, error)   { return json.Marshal(string(rune(c))) }
func (v I128) MarshalJSON() ([]byte, error)   { return json.Marshal(v.String()) }
func (v U128) MarshalJSON() ([]byte, error)   { return json.Marshal(v.String()) }
func (Unit) MarshalJSON() ([]byte, error)     { return []byte("null"), nil }

func marshalJSONValue(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (s Struct) MarshalYAML() (any, error)  { return YAMLNode(s), nil }
func (o Option) MarshalYAML() (any, error)  { return YAMLNode(o), nil }
func (c Char) MarshalYAML() (any, error)    { return YAMLNode(c), nil }
func (v I128) MarshalYAML() (any, error)    { return YAMLNode(v), nil }
func (v U128) MarshalYAML() (any, error)    { return YAMLNode(v), nil }
func (Unit) MarshalYAML() (any, error)      { return YAMLNode(Unit{}), nil }
func (b Bytes) MarshalYAML() (any, error)   { return YAMLNode(b), nil }
func (b ByteBuf) MarshalYAML() (any, error) { return YAMLNode(b), nil }

// YAMLNode builds the YAML tree of v. Mappings keep struct field order and
// sort map keys.
func YAMLNode(v Value) *yaml.Node {
	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}
	switch x := v.(type) {
	case nil, Unit:
		return scalar("!!null", "null")
	case Option:
		return YAMLNode(x.Value)
	case Bool:
		return scalar("!!bool", strconv.FormatBool(bool(x)))
	case Str:
		return scalar("!!str", string(x))
	case String:
		return scalar("!!str", string(x))
	case Char:
		return scalar("!!str", string(rune(x)))
	case Bytes:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(x))
	case ByteBuf:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(x))
	case F32:
		return scalar("!!float", yamlFloat(float64(x), 32))
	case F64:
		return scalar("!!float", yamlFloat(float64(x), 64))
	case I8, I16, I32, I64, U8, U16, U32, U64, I128, U128:
		return scalar("!!int", keyString(x))
	case Seq:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			n.Content = append(n.Content, YAMLNode(e))
		}
		return n
	case Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range x.Keys() {
			n.Content = append(n.Content, scalar("!!str", k), YAMLNode(x[k]))
		}
		return n
	case Struct:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range x.Fields {
			n.Content = append(n.Content, scalar("!!str", f.Name), YAMLNode(f.Value))
		}
		return n
	}
	return scalar("!!str", FormatValue(v))
}

func yamlFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0" // keep it from resolving as !!int
	}
	return s
}
