package compiler

import (
	"errors"
	"fmt"

	"github.com/fuzzyyeti/shank/internal/source"
)

// Compile error codes (E200-E299). Every one of them aborts the build of the
// enclosing instruction enum.
const (
	ErrMalformedDiscriminant   = "E201" // non-literal or out-of-range discriminant entry
	ErrInvalidDiscriminantForm = "E202" // #[discriminant] used as a flag or name-value
	ErrDiscriminantArity       = "E203" // discriminant list is neither 1 nor 8 values
	ErrDiscriminantOverflow    = "E204" // implicit discriminant would exceed u8
	ErrDuplicateDiscriminant   = "E205" // strict mode: more than one discriminant annotation
	ErrMixedFieldLabels        = "E206" // strict mode: named and tuple fields mixed
	ErrInvalidAccount          = "E210" // malformed #[account] annotation
)

// CompileError is a build failure tied to one case of an instruction enum.
type CompileError struct {
	Code string
	// Variant is the case identifier; empty for enum-level failures.
	Variant string
	// Annotation is the annotation that caused the failure, if any.
	Annotation string
	Message    string
	Pos        source.Pos
}

func (e *CompileError) Error() string {
	msg := e.Message
	if e.Variant != "" {
		msg = fmt.Sprintf("variant %s: %s", e.Variant, msg)
	}
	if e.Annotation != "" {
		msg = fmt.Sprintf("#[%s] %s", e.Annotation, msg)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: [%s] %s", e.Pos, e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// CodeOf returns the code of the first CompileError in err's chain, or "".
func CodeOf(err error) string {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// withVariant fills in the case identifier and position on compile errors
// that do not carry them yet. Other errors pass through untouched.
func withVariant(err error, c source.Case) error {
	var ce *CompileError
	if !errors.As(err, &ce) {
		return err
	}
	if ce.Variant == "" {
		ce.Variant = c.Name
	}
	if !ce.Pos.IsValid() {
		ce.Pos = c.Pos
	}
	return err
}
