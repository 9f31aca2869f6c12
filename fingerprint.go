package dyncodec

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Fingerprint identifies a schema shape. Two valid schemas share a
// fingerprint exactly when they are Equal.
type Fingerprint [32]byte

// fingerprintKey is the ASCII domain name zero-padded to the 32 bytes a
// BLAKE3 keyed hash takes. Changing it changes every fingerprint.
var fingerprintKey = [32]byte{
	'o', 'y', '3', 'o', '.', 'd', 'y', 'n', 'c', 'o', 'd', 'e', 'c', '.',
	's', 'c', 'h', 'e', 'm', 'a',
}

// Fingerprint hashes the canonical little-endian encoding of s.
func (s *Schema) Fingerprint() Fingerprint {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("dyncodec: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	w, _ := NewWriter(hasher)
	w.WithByteOrder(LE)
	writeCanonical(w, s)
	w.Flush()

	var fp Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp
}

// writeCanonical writes kind, name, fields, key and elem in a fixed order.
// Absent parts are written as a zero kind so no two shapes collide.
func writeCanonical(w *Writer, s *Schema) {
	if s == nil {
		w.WriteUint8(uint8(KindInvalid))
		return
	}
	w.WriteUint8(uint8(s.Kind))
	switch s.Kind {
	case KindStruct:
		w.WriteString(s.Name)
		w.WriteLen(len(s.Fields))
		for _, f := range s.Fields {
			w.WriteString(f.Name)
			writeCanonical(w, f.Schema)
		}
	case KindMap:
		writeCanonical(w, s.Key)
		writeCanonical(w, s.Elem)
	case KindSeq, KindOption:
		writeCanonical(w, s.Elem)
	}
}

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

func (f Fingerprint) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFingerprint parses the 64-character hex form.
func ParseFingerprint(s string) (Fingerprint, error) {
	var fp Fingerprint
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fp, fmt.Errorf("parsing schema fingerprint: %w", err)
	}
	if len(decoded) != len(fp) {
		return fp, fmt.Errorf("schema fingerprint is %d bytes, want %d", len(decoded), len(fp))
	}
	copy(fp[:], decoded)
	return fp, nil
}
