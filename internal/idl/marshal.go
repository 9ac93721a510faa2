package idl

import (
	"bytes"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Marshal writes the document as indented JSON with a trailing newline.
// Output is deterministic for a given document.
func Marshal(doc *IDL) ([]byte, error) {
	return marshalIndent(doc)
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Schema returns the JSON Schema of the IDL document.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(IDL))
	s.Title = "shank IDL"
	return s
}

// MarshalSchema writes Schema as indented JSON with a trailing newline.
func MarshalSchema() ([]byte, error) {
	return marshalIndent(Schema())
}

// JSONSchema describes the string-or-object encoding of Type.
func (Type) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: `A bare type name such as "u64" or a single-key object such as {"vec": "u8"}`,
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "object"},
		},
	}
}

// JSONSchema describes Discriminant as encoded by MarshalJSON.
func (Discriminant) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{Type: "string", Enum: []any{"u8", "[u8;8]"}})
	props.Set("value", &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: json.Number("0"), Maximum: json.Number("255")},
			{Type: "array", Items: &jsonschema.Schema{Type: "integer", Minimum: json.Number("0"), Maximum: json.Number("255")}},
		},
	})
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"type", "value"},
	}
}
