package dyncodec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
)

// Schemas and envelopes are stored as CBOR with Core Deterministic Encoding
// (RFC 8949 §4.2), so one schema always produces the same bytes. Kinds and
// fingerprints go through their text forms.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("dyncodec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("dyncodec: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalSchema encodes s as CBOR.
func MarshalSchema(s *Schema) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(s)
}

// UnmarshalSchema decodes and validates a schema written by MarshalSchema.
func UnmarshalSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// UnmarshalSchemaJSON decodes and validates a JSON schema. Comments and
// trailing commas are allowed, so hand-written schema files can be annotated.
func UnmarshalSchemaJSON(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Envelope stores a payload beside the schema that decodes it, so the reader
// needs nothing but the envelope.
type Envelope struct {
	Fingerprint Fingerprint `cbor:"1,keyasint" json:"fingerprint"`
	Schema      *Schema     `cbor:"2,keyasint" json:"schema"`
	Payload     []byte      `cbor:"3,keyasint" json:"payload"`
	// BigEndian marks a payload written with big-endian byte order.
	BigEndian bool `cbor:"4,keyasint,omitempty" json:"big_endian,omitempty"`
}

// Seal wraps an encoded payload with its schema.
func Seal(schema *Schema, payload []byte) ([]byte, error) {
	return DefaultConfig.Seal(schema, payload)
}

// Seal records c's byte order in the envelope.
func (c Config) Seal(schema *Schema, payload []byte) ([]byte, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(&Envelope{
		Fingerprint: schema.Fingerprint(),
		Schema:      schema,
		Payload:     payload,
		BigEndian:   !isLittleEndian(c.order()),
	})
}

// ParseEnvelope decodes an envelope and checks that its schema is valid and
// matches the recorded fingerprint. The payload is not decoded.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := decMode.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if err := e.Schema.Validate(); err != nil {
		return nil, err
	}
	if got := e.Schema.Fingerprint(); got != e.Fingerprint {
		return nil, fmt.Errorf("%w: envelope says %s, schema hashes to %s", ErrSchemaMismatch, e.Fingerprint, got)
	}
	return &e, nil
}

// Config returns the decode options the payload was written with.
func (e *Envelope) Config() Config {
	if e.BigEndian {
		return DefaultConfig.WithByteOrder(BE)
	}
	return DefaultConfig
}

// Open decodes the payload.
func (e *Envelope) Open() (Value, error) {
	return e.Config().DecodeDynamic(e.Schema, NewBytesReader(e.Payload))
}

// OpenEnvelope parses data and decodes its payload.
func OpenEnvelope(data []byte) (*Envelope, Value, error) {
	e, err := ParseEnvelope(data)
	if err != nil {
		return nil, nil, err
	}
	v, err := e.Open()
	if err != nil {
		return nil, nil, err
	}
	return e, v, nil
}
