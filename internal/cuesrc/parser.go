// Package cuesrc reads instruction enums declared in CUE.
//
// Each top-level struct carrying attributes is an enum and each of its
// regular fields a case. Annotations are CUE attributes written like their
// Rust counterparts:
//
//	Instruction: {
//		@derive(ShankInstruction)
//
//		CreateThing: {} @account(0, name="creator", sig) @discriminant(10)
//		Deposit: {amount: "u64", owner: "Pubkey"} @account(0, name="vault", mut)
//		Transfer: ["u64", "Option<Pubkey>"]
//	}
//
// A struct payload gives named fields, a list gives tuple fields; field types
// are strings holding the Rust type.
package cuesrc

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/fuzzyyeti/shank/internal/source"
)

// ParseFile reads and parses a CUE file.
func ParseFile(path string) ([]source.Enum, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(path, content)
}

// Parse compiles content and returns its enums in declaration order.
// Top-level fields that are not structs, or carry no attributes at all, are
// plain data and ignored.
func Parse(filename string, content []byte) ([]source.Enum, error) {
	// A context per call; cue.Context is not safe for concurrent use.
	v := cuecontext.New().CompileBytes(content, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	enums := []source.Enum{}
	for iter.Next() {
		ev := iter.Value()
		if ev.IncompleteKind() != cue.StructKind || len(attributes(ev)) == 0 {
			continue
		}
		e, err := parseEnum(iter.Label(), ev)
		if err != nil {
			return nil, err
		}
		enums = append(enums, e)
	}
	return enums, nil
}

func parseEnum(name string, v cue.Value) (source.Enum, error) {
	e := source.Enum{
		Name:  name,
		Attrs: attributes(v),
		Cases: []source.Case{},
		Pos:   position(v.Pos()),
	}

	iter, err := v.Fields()
	if err != nil {
		return source.Enum{}, formatCUEError(err)
	}
	for iter.Next() {
		c, err := parseCase(iter.Label(), iter.Value())
		if err != nil {
			return source.Enum{}, err
		}
		e.Cases = append(e.Cases, c)
	}
	return e, nil
}

func parseCase(name string, v cue.Value) (source.Case, error) {
	c := source.Case{
		Name:   name,
		Attrs:  attributes(v),
		Fields: []source.Field{},
		Pos:    position(v.Pos()),
	}

	switch v.IncompleteKind() {
	case cue.NullKind:
		// unit case
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return source.Case{}, formatCUEError(err)
		}
		for iter.Next() {
			typ, err := typeName(iter.Value())
			if err != nil {
				return source.Case{}, err
			}
			c.Fields = append(c.Fields, source.Field{Name: iter.Label(), Type: typ})
		}
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return source.Case{}, formatCUEError(err)
		}
		for iter.Next() {
			typ, err := typeName(iter.Value())
			if err != nil {
				return source.Case{}, err
			}
			c.Fields = append(c.Fields, source.Field{Type: typ})
		}
	default:
		return source.Case{}, &source.Error{
			Pos: c.Pos,
			Msg: fmt.Sprintf("case %s: payload must be a struct, a list or null, got %v", name, v.IncompleteKind()),
		}
	}
	return c, nil
}

// typeName reads a field type, which must be a concrete string.
func typeName(v cue.Value) (string, error) {
	s, err := v.String()
	if err != nil {
		return "", &source.Error{
			Pos: position(v.Pos()),
			Msg: fmt.Sprintf("field type must be a string such as \"u64\", got %v", v.IncompleteKind()),
		}
	}
	return s, nil
}

// attributes returns the attributes attached to a field and those declared
// inside its struct body.
func attributes(v cue.Value) []source.Annotation {
	pos := position(v.Pos())
	out := []source.Annotation{}
	for _, a := range v.Attributes(cue.FieldAttr | cue.DeclAttr) {
		out = append(out, source.Annotation{
			Name:   a.Name(),
			Tokens: "(" + a.Contents() + ")",
			Pos:    pos,
		})
	}
	return out
}

func position(p token.Pos) source.Pos {
	if !p.IsValid() {
		return source.Pos{}
	}
	return source.Pos{Filename: p.Filename(), Line: p.Line(), Column: p.Column()}
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &source.Error{Pos: position(positions[0]), Msg: first.Error()}
	}
	return first
}
