package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ArrayDiscriminantLen is the width of an eight-byte discriminant.
const ArrayDiscriminantLen = 8

// MaxIncrementDiscriminant is the exclusive upper bound for ordinal-derived
// discriminants. Ordinals at or above it are rejected, never wrapped.
const MaxIncrementDiscriminant = 255

// Discriminant is the wire tag identifying an instruction.
// Only IncrementDiscriminant and ArrayDiscriminant implement it.
//
// A nil Discriminant is the "no explicit annotation" state produced while
// resolving a case; it never appears in a finished InstructionVariant.
type Discriminant interface {
	discriminant() // Sealed

	// Bytes returns the discriminant as it is written on the wire.
	Bytes() []byte
}

// IncrementDiscriminant is a single-byte tag, explicit or derived from the
// variant's ordinal position.
type IncrementDiscriminant struct {
	Value uint8
}

func (IncrementDiscriminant) discriminant() {}

// Bytes returns the single tag byte.
func (d IncrementDiscriminant) Bytes() []byte {
	return []byte{d.Value}
}

func (d IncrementDiscriminant) String() string {
	return fmt.Sprintf("u8(%d)", d.Value)
}

// MarshalJSON encodes the discriminant as {"type":"u8","value":n}.
func (d IncrementDiscriminant) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value uint8  `json:"value"`
	}{Type: "u8", Value: d.Value})
}

// ArrayDiscriminant is a fixed eight-byte tag, e.g. a hash-derived selector.
type ArrayDiscriminant struct {
	Value [ArrayDiscriminantLen]uint8
}

func (ArrayDiscriminant) discriminant() {}

// Bytes returns the eight tag bytes in declaration order.
func (d ArrayDiscriminant) Bytes() []byte {
	out := make([]byte, ArrayDiscriminantLen)
	copy(out, d.Value[:])
	return out
}

func (d ArrayDiscriminant) String() string {
	parts := make([]string, len(d.Value))
	for i, b := range d.Value {
		parts[i] = fmt.Sprintf("%d", b)
	}
	return "[u8;8](" + strings.Join(parts, ",") + ")"
}

// MarshalJSON encodes the discriminant as {"type":"[u8;8]","value":[...]}.
func (d ArrayDiscriminant) MarshalJSON() ([]byte, error) {
	values := make([]int, len(d.Value))
	for i, b := range d.Value {
		values[i] = int(b)
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value []int  `json:"value"`
	}{Type: "[u8;8]", Value: values})
}

// NewArrayDiscriminant builds an ArrayDiscriminant from exactly eight bytes.
func NewArrayDiscriminant(values []uint8) (ArrayDiscriminant, error) {
	var d ArrayDiscriminant
	if len(values) != ArrayDiscriminantLen {
		return d, fmt.Errorf("array discriminant requires %d bytes, got %d", ArrayDiscriminantLen, len(values))
	}
	copy(d.Value[:], values)
	return d, nil
}

// DiscriminantHex renders the wire bytes as lowercase hex, e.g. "0a" or
// "0a141e28323c4650". A nil discriminant renders as "".
func DiscriminantHex(d Discriminant) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%x", d.Bytes())
}
