package compiler

import (
	"fmt"
	"strings"

	"github.com/fuzzyyeti/shank/internal/ir"
	"github.com/fuzzyyeti/shank/internal/source"
)

// DeriveMarker is the derive entry that marks an enum as an instruction enum.
const DeriveMarker = "ShankInstruction"

// Options tunes a build. The zero value reproduces shank's behavior.
type Options struct {
	// SkipGateCheck processes every enum, marked or not.
	SkipGateCheck bool
	// StrictDiscriminants rejects cases with more than one discriminant
	// annotation instead of using the first.
	StrictDiscriminants bool
	// StrictFields rejects payloads that mix named and tuple fields instead of
	// classifying them by the first field.
	StrictFields bool
}

// IsInstructionEnum reports whether e derives ShankInstruction, either by
// its bare name or by a qualified path ending in it.
func IsInstructionEnum(e source.Enum) bool {
	for _, a := range source.Filter(e.Attrs, "derive") {
		meta, err := a.Meta()
		if err != nil || meta.Kind != source.MetaList {
			continue
		}
		for _, entry := range meta.Nested {
			if entry.Meta == nil || entry.Meta.Kind != source.MetaPath {
				continue
			}
			path := entry.Meta.Path
			if path == DeriveMarker || strings.HasSuffix(path, "::"+DeriveMarker) {
				return true
			}
		}
	}
	return false
}

// CompileInstruction builds the instruction set of e if e is an instruction
// enum. Unmarked enums yield (nil, nil) unless opts.SkipGateCheck is set.
func CompileInstruction(e source.Enum, opts Options) (*ir.InstructionSet, error) {
	if !opts.SkipGateCheck && !IsInstructionEnum(e) {
		return nil, nil
	}
	return BuildInstructionSet(e, opts)
}

// BuildInstructionSet assembles every case of e in declaration order. The
// ordinal of a case is its index among all cases. The first failing case
// aborts the build; no partial set is returned.
func BuildInstructionSet(e source.Enum, opts Options) (*ir.InstructionSet, error) {
	variants := make([]ir.InstructionVariant, 0, len(e.Cases))
	for ordinal, c := range e.Cases {
		v, err := AssembleVariant(c, ordinal, opts)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return &ir.InstructionSet{Name: e.Name, Variants: variants}, nil
}

// AssembleVariant turns one case into an InstructionVariant. An explicit
// discriminant annotation wins; otherwise the tag is derived from ordinal.
func AssembleVariant(c source.Case, ordinal int, opts Options) (ir.InstructionVariant, error) {
	fields, err := AssembleFields(c.Fields, opts.StrictFields)
	if err != nil {
		return ir.InstructionVariant{}, withVariant(err, c)
	}

	accounts, err := ExtractAccounts(c.Attrs)
	if err != nil {
		return ir.InstructionVariant{}, withVariant(err, c)
	}

	strategies := ExtractStrategies(c.Attrs)

	if opts.StrictDiscriminants {
		if found := source.Filter(c.Attrs, DiscriminantAttr); len(found) > 1 {
			return ir.InstructionVariant{}, withVariant(&CompileError{
				Code:       ErrDuplicateDiscriminant,
				Annotation: DiscriminantAttr,
				Message:    fmt.Sprintf("%d discriminant annotations, at most one is allowed", len(found)),
				Pos:        found[1].Pos,
			}, c)
		}
	}

	disc, err := ResolveDiscriminant(c.Attrs)
	if err != nil {
		return ir.InstructionVariant{}, withVariant(err, c)
	}
	if disc == nil {
		disc, err = DefaultDiscriminant(c.Name, ordinal)
		if err != nil {
			return ir.InstructionVariant{}, withVariant(err, c)
		}
	}

	return ir.InstructionVariant{
		Name:         c.Name,
		Fields:       fields,
		Accounts:     accounts,
		Strategies:   strategies,
		Discriminant: disc,
	}, nil
}
