package compiler

import (
	"fmt"

	"github.com/fuzzyyeti/shank/internal/ir"
	"github.com/fuzzyyeti/shank/internal/source"
)

// AssembleFields classifies a case payload.
//
// The first field decides: if it carries a label the payload is NamedFields,
// otherwise UnnamedFields. Later fields are not checked against it, so an
// unlabelled field in a named payload keeps an empty name. With strict set, a
// mixed payload is rejected instead. A case without fields yields an empty
// UnnamedFields.
func AssembleFields(fields []source.Field, strict bool) (ir.Fields, error) {
	if len(fields) == 0 {
		return ir.UnnamedFields{}, nil
	}

	named := fields[0].Labelled()
	if strict {
		for i, f := range fields[1:] {
			if f.Labelled() != named {
				return nil, &CompileError{
					Code:    ErrMixedFieldLabels,
					Message: fmt.Sprintf("field %d mixes named and tuple fields", i+1),
				}
			}
		}
	}

	if named {
		out := make(ir.NamedFields, len(fields))
		for i, f := range fields {
			out[i] = ir.NamedField{Name: f.Name, Type: ir.TypeRef(f.Type)}
		}
		return out, nil
	}

	out := make(ir.UnnamedFields, len(fields))
	for i, f := range fields {
		out[i] = ir.TypeRef(f.Type)
	}
	return out, nil
}
