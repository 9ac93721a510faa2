package compiler

import (
	"github.com/fuzzyyeti/shank/internal/source"
)

func ann(name, tokens string) source.Annotation {
	return source.Annotation{Name: name, Tokens: tokens}
}

func disc(tokens string) source.Annotation {
	return ann(DiscriminantAttr, tokens)
}

func unitCase(name string, attrs ...source.Annotation) source.Case {
	return source.Case{Name: name, Attrs: attrs}
}

func instructionEnum(cases ...source.Case) source.Enum {
	return source.Enum{
		Name:  "Instruction",
		Attrs: []source.Annotation{ann("derive", "(ShankInstruction)")},
		Cases: cases,
	}
}
