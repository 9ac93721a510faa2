package idl

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/fuzzyyeti/shank/internal/ir"
)

// Program names the program the document describes.
type Program struct {
	Name    string
	Version string
	Address string
}

// Build renders the instruction sets of a program, in the order given, as one
// document. Variants keep their declaration order.
func Build(program Program, sets ...*ir.InstructionSet) (*IDL, error) {
	doc := &IDL{
		Version:      program.Version,
		Name:         program.Name,
		Instructions: []Instruction{},
		Metadata:     Metadata{Origin: Origin, Address: program.Address},
	}
	for _, set := range sets {
		for _, v := range set.Variants {
			ix, err := FromVariant(v)
			if err != nil {
				return nil, fmt.Errorf("%s::%s: %w", set.Name, v.Name, err)
			}
			doc.Instructions = append(doc.Instructions, ix)
		}
	}
	return doc, nil
}

// FromVariant renders one instruction.
func FromVariant(v ir.InstructionVariant) (Instruction, error) {
	ix := Instruction{
		Name:                           v.Name,
		Accounts:                       make([]Account, len(v.Accounts)),
		DefaultOptionalAccounts:        v.HasStrategy(ir.StrategyDefaultOptionalAccounts),
		LegacyOptionalAccountsStrategy: v.HasStrategy(ir.StrategyLegacyOptionalAccounts),
	}

	for i, a := range v.Accounts {
		acc := Account{
			Name:             CamelCase(a.Name),
			IsMut:            a.Writable,
			IsSigner:         a.Signer,
			IsOptionalSigner: a.OptionalSigner,
			IsOptional:       a.Optional,
		}
		if a.Desc != "" {
			acc.Docs = []string{a.Desc}
		}
		ix.Accounts[i] = acc
	}

	args, err := argsOf(v.Fields)
	if err != nil {
		return Instruction{}, err
	}
	ix.Args = args

	switch d := v.Discriminant.(type) {
	case ir.IncrementDiscriminant:
		ix.Discriminant = Discriminant{Type: "u8", Value: []int{int(d.Value)}}
	case ir.ArrayDiscriminant:
		values := make([]int, len(d.Value))
		for i, b := range d.Value {
			values[i] = int(b)
		}
		ix.Discriminant = Discriminant{Type: "[u8;8]", Value: values}
	default:
		return Instruction{}, fmt.Errorf("variant has no resolved discriminant")
	}
	return ix, nil
}

// argsOf names named fields after themselves. A lone tuple field of a defined
// type is named after that type; other tuple fields are arg0, arg1, ...
func argsOf(fields ir.Fields) ([]Arg, error) {
	args := []Arg{}
	switch f := fields.(type) {
	case ir.NamedFields:
		for i, nf := range f {
			t, err := ParseRustType(string(nf.Type))
			if err != nil {
				return nil, err
			}
			name := CamelCase(nf.Name)
			if name == "" {
				name = fmt.Sprintf("arg%d", i)
			}
			args = append(args, Arg{Name: name, Type: t})
		}
	case ir.UnnamedFields:
		for i, ref := range f {
			t, err := ParseRustType(string(ref))
			if err != nil {
				return nil, err
			}
			name := fmt.Sprintf("arg%d", i)
			if len(f) == 1 && t.Kind == KindDefined {
				name = lowerFirst(t.Name)
			}
			args = append(args, Arg{Name: name, Type: t})
		}
	default:
		return nil, fmt.Errorf("variant has no field shape")
	}
	return args, nil
}

// CamelCase converts snake_case to lowerCamelCase.
func CamelCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(lowerFirst(p))
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
