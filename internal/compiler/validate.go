package compiler

import (
	"bytes"
	"fmt"

	"github.com/fuzzyyeti/shank/internal/ir"
)

// Validation error codes (E300-E399). Unlike compile errors these are found
// after a successful build and reported all at once.
const (
	ErrUnsupportedIRType     = "E300" // unsupported IR type for validation
	ErrDiscriminantCollision = "E301" // two variants share a wire tag
	ErrDuplicateVariantName  = "E302" // two variants share a name
	ErrDuplicateAccountName  = "E303" // two accounts of a variant share a name
	ErrEmptyInstructionSet   = "E304" // instruction enum without variants
	ErrMissingVariantShape   = "E305" // variant built without fields or discriminant
	ErrDuplicateSetName      = "E306" // two instruction sets of one program share a name
)

// ValidationError represents a problem in a built instruction set.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a built instruction set for problems the build itself does
// not reject, such as two variants decoding from the same bytes.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch set := v.(type) {
	case *ir.InstructionSet:
		if set == nil {
			return []ValidationError{{Field: "type", Message: "nil instruction set", Code: ErrUnsupportedIRType}}
		}
		return validateInstructionSet(set)
	case ir.InstructionSet:
		return validateInstructionSet(&set)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateInstructionSet(set *ir.InstructionSet) []ValidationError {
	var errs []ValidationError

	// E304: an instruction enum needs at least one variant
	if len(set.Variants) == 0 {
		errs = append(errs, ValidationError{
			Field:   "variants",
			Message: fmt.Sprintf("instruction enum %s has no variants", set.Name),
			Code:    ErrEmptyInstructionSet,
		})
	}

	names := make(map[string]int)
	for i, v := range set.Variants {
		// E302: duplicate variant name
		if first, dup := names[v.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("variants[%d].name", i),
				Message: fmt.Sprintf("duplicate variant name %q, first declared at variants[%d]", v.Name, first),
				Code:    ErrDuplicateVariantName,
			})
		} else {
			names[v.Name] = i
		}

		// E305: incomplete variant
		if v.Discriminant == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("variants[%d].discriminant", i),
				Message: fmt.Sprintf("variant %q has no resolved discriminant", v.Name),
				Code:    ErrMissingVariantShape,
			})
		}
		if v.Fields == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("variants[%d].fields", i),
				Message: fmt.Sprintf("variant %q has no field shape", v.Name),
				Code:    ErrMissingVariantShape,
			})
		}

		errs = append(errs, validateAccounts(i, v)...)
	}

	errs = append(errs, validateDiscriminants(set.Variants)...)
	return errs
}

// validateAccounts reports accounts of one variant that share a name.
func validateAccounts(i int, v ir.InstructionVariant) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for j, acc := range v.Accounts {
		// E303: duplicate account name
		if seen[acc.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("variants[%d].accounts[%d].name", i, j),
				Message: fmt.Sprintf("duplicate account name %q in variant %q", acc.Name, v.Name),
				Code:    ErrDuplicateAccountName,
			})
		}
		seen[acc.Name] = true
	}
	return errs
}

// validateDiscriminants reports pairs of variants a decoder could not tell
// apart because their tags have identical bytes.
func validateDiscriminants(variants []ir.InstructionVariant) []ValidationError {
	var errs []ValidationError
	for j := range variants {
		b := variants[j].Discriminant
		if b == nil {
			continue
		}
		for i := 0; i < j; i++ {
			a := variants[i].Discriminant
			if a == nil || !collides(a, b) {
				continue
			}
			msg := fmt.Sprintf("variant %q discriminant %s collides with variant %q discriminant %s",
				variants[j].Name, b, variants[i].Name, a)
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("variants[%d].discriminant", j),
				Message: msg,
				Code:    ErrDiscriminantCollision,
			})
			break
		}
	}
	return errs
}

// collides reports whether two tags are the same wire bytes. Tags of
// different widths never collide.
func collides(a, b ir.Discriminant) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}
