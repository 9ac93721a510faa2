package compiler

import (
	"fmt"

	"github.com/fuzzyyeti/shank/internal/ir"
	"github.com/fuzzyyeti/shank/internal/source"
)

// DiscriminantAttr is the annotation that sets a case's wire tag explicitly.
const DiscriminantAttr = "discriminant"

// ResolveDiscriminant interprets the discriminant annotation among a case's
// annotations.
//
// Only the first annotation named "discriminant" is considered; later ones
// are ignored. When there is none, ResolveDiscriminant returns (nil, nil): the
// case has no explicit tag and the caller falls back to DefaultDiscriminant.
//
// The payload must be a list of unsigned integer literals that fit in a u8.
// One literal gives an IncrementDiscriminant, eight give an ArrayDiscriminant
// in the order written. Any other count is an error.
func ResolveDiscriminant(annotations []source.Annotation) (ir.Discriminant, error) {
	found := source.Filter(annotations, DiscriminantAttr)
	if len(found) == 0 {
		return nil, nil
	}
	return parseDiscriminant(found[0])
}

func parseDiscriminant(a source.Annotation) (ir.Discriminant, error) {
	meta, err := a.Meta()
	if err != nil {
		return nil, &CompileError{
			Code:       ErrMalformedDiscriminant,
			Annotation: DiscriminantAttr,
			Message:    fmt.Sprintf("malformed discriminant annotation: %v", err),
			Pos:        a.Pos,
		}
	}
	if meta.Kind != source.MetaList {
		return nil, &CompileError{
			Code:       ErrInvalidDiscriminantForm,
			Annotation: DiscriminantAttr,
			Message:    "malformed discriminant annotation: requires a list of u8 values",
			Pos:        a.Pos,
		}
	}

	values := make([]uint8, 0, len(meta.Nested))
	for _, entry := range meta.Nested {
		if !entry.IsLit() || entry.Lit.Kind != source.LitInt {
			return nil, &CompileError{
				Code:       ErrMalformedDiscriminant,
				Annotation: DiscriminantAttr,
				Message:    fmt.Sprintf("malformed discriminant annotation: %s is not an integer literal in 0..=%d", entry, ir.MaxIncrementDiscriminant),
				Pos:        a.Pos,
			}
		}
		n, err := entry.Lit.Uint(8)
		if err != nil {
			return nil, &CompileError{
				Code:       ErrMalformedDiscriminant,
				Annotation: DiscriminantAttr,
				Message:    fmt.Sprintf("malformed discriminant annotation: %v (allowed 0..=%d)", err, ir.MaxIncrementDiscriminant),
				Pos:        a.Pos,
			}
		}
		values = append(values, uint8(n))
	}

	switch len(values) {
	case 1:
		return ir.IncrementDiscriminant{Value: values[0]}, nil
	case ir.ArrayDiscriminantLen:
		arr, err := ir.NewArrayDiscriminant(values)
		if err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, &CompileError{
			Code:       ErrDiscriminantArity,
			Annotation: DiscriminantAttr,
			Message:    fmt.Sprintf("discriminant annotation requires 1 or %d values, got %d", ir.ArrayDiscriminantLen, len(values)),
			Pos:        a.Pos,
		}
	}
}

// DefaultDiscriminant returns the implicit tag of a case without an explicit
// discriminant: its zero-based position among all cases of the enum. Ordinals
// of 255 and above do not fit and are rejected; tags never wrap.
func DefaultDiscriminant(variant string, ordinal int) (ir.Discriminant, error) {
	if ordinal < 0 || ordinal >= ir.MaxIncrementDiscriminant {
		return nil, &CompileError{
			Code:    ErrDiscriminantOverflow,
			Variant: variant,
			Message: fmt.Sprintf("implicit discriminant %d is out of range, ordinals must be < %d", ordinal, ir.MaxIncrementDiscriminant),
		}
	}
	return ir.IncrementDiscriminant{Value: uint8(ordinal)}, nil
}
