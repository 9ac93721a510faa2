// Package idl renders instruction sets as a shank-style IDL document, the
// JSON description client generators consume.
package idl

import (
	"encoding/json"
	"fmt"
)

// Origin identifies the generator in the document metadata.
const Origin = "shank"

// IDL is the root document.
type IDL struct {
	Version      string        `json:"version" jsonschema:"description=Program version"`
	Name         string        `json:"name" jsonschema:"description=Program name in snake_case"`
	Instructions []Instruction `json:"instructions"`
	Metadata     Metadata      `json:"metadata"`
}

// Metadata describes where the document came from.
type Metadata struct {
	Origin  string `json:"origin"`
	Address string `json:"address,omitempty" jsonschema:"description=Base58 program id"`
}

// Instruction is one variant of an instruction enum.
type Instruction struct {
	Name                           string       `json:"name"`
	Accounts                       []Account    `json:"accounts"`
	Args                           []Arg        `json:"args"`
	Discriminant                   Discriminant `json:"discriminant"`
	DefaultOptionalAccounts        bool         `json:"defaultOptionalAccounts,omitempty"`
	LegacyOptionalAccountsStrategy bool         `json:"legacyOptionalAccountsStrategy,omitempty"`
}

// Account is an account an instruction expects, in order.
type Account struct {
	Name             string   `json:"name"`
	IsMut            bool     `json:"isMut"`
	IsSigner         bool     `json:"isSigner"`
	IsOptionalSigner bool     `json:"isOptionalSigner,omitempty"`
	IsOptional       bool     `json:"isOptional,omitempty"`
	Docs             []string `json:"docs,omitempty"`
}

// Arg is one serialized instruction argument.
type Arg struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Discriminant is the wire tag that selects the instruction.
type Discriminant struct {
	Type  string
	Value []int
}

// MarshalJSON writes a u8 tag as a number and an eight-byte tag as an array.
func (d Discriminant) MarshalJSON() ([]byte, error) {
	if len(d.Value) == 1 {
		return json.Marshal(struct {
			Type  string `json:"type"`
			Value int    `json:"value"`
		}{d.Type, d.Value[0]})
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value []int  `json:"value"`
	}{d.Type, d.Value})
}

// Type is an IDL type: a bare name such as "u64" or "publicKey", or a
// single-key object such as {"vec": "u8"} or {"defined": "DepositArgs"}.
type Type struct {
	// Kind is empty for bare names, otherwise the object key.
	Kind string
	// Name is the bare name, or the referenced type for Kind "defined".
	Name  string
	Elems []Type
	// Len is the element count of fixed-size arrays.
	Len int
}

// Type kinds.
const (
	KindVec      = "vec"
	KindOption   = "option"
	KindCOption  = "coption"
	KindArray    = "array"
	KindTuple    = "tuple"
	KindHashMap  = "hashMap"
	KindBTreeMap = "bTreeMap"
	KindHashSet  = "hashSet"
	KindBTreeSet = "bTreeSet"
	KindDefined  = "defined"
)

// MarshalJSON implements json.Marshaler.
func (t Type) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case "":
		return json.Marshal(t.Name)
	case KindDefined:
		return json.Marshal(map[string]string{KindDefined: t.Name})
	case KindVec, KindOption, KindCOption, KindHashSet, KindBTreeSet:
		if len(t.Elems) != 1 {
			return nil, fmt.Errorf("%s type needs 1 element type, got %d", t.Kind, len(t.Elems))
		}
		return json.Marshal(map[string]Type{t.Kind: t.Elems[0]})
	case KindArray:
		if len(t.Elems) != 1 {
			return nil, fmt.Errorf("array type needs 1 element type, got %d", len(t.Elems))
		}
		return json.Marshal(map[string][]any{KindArray: {t.Elems[0], t.Len}})
	case KindHashMap, KindBTreeMap:
		if len(t.Elems) != 2 {
			return nil, fmt.Errorf("%s type needs key and value types, got %d", t.Kind, len(t.Elems))
		}
		return json.Marshal(map[string][]Type{t.Kind: t.Elems})
	case KindTuple:
		return json.Marshal(map[string][]Type{KindTuple: t.Elems})
	default:
		return nil, fmt.Errorf("unknown type kind %q", t.Kind)
	}
}

func (t Type) String() string {
	data, err := t.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid %s>", t.Kind)
	}
	return string(data)
}
