package idl

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

var primitives = map[string]string{
	"bool":   "bool",
	"u8":     "u8",
	"u16":    "u16",
	"u32":    "u32",
	"u64":    "u64",
	"u128":   "u128",
	"i8":     "i8",
	"i16":    "i16",
	"i32":    "i32",
	"i64":    "i64",
	"i128":   "i128",
	"f32":    "f32",
	"f64":    "f64",
	"usize":  "u64",
	"isize":  "i64",
	"String": "string",
	"str":    "string",
	"Pubkey": "publicKey",
}

// ParseRustType maps a Rust type as written in source to its IDL type.
//
// Containers map to their IDL counterparts (Vec<u8> is "bytes"), references
// and Box are transparent, and any other path becomes a defined type named
// by its last segment with generic arguments dropped.
func ParseRustType(text string) (Type, error) {
	p := newTypeParser(text)
	t, err := p.parseType()
	if err != nil {
		return Type{}, fmt.Errorf("type %q: %w", text, err)
	}
	if p.tok != scanner.EOF {
		return Type{}, fmt.Errorf("type %q: unexpected %q", text, p.text)
	}
	if len(p.scanErrs) > 0 {
		return Type{}, fmt.Errorf("type %q: %s", text, p.scanErrs[0])
	}
	return t, nil
}

type typeParser struct {
	s        scanner.Scanner
	tok      rune
	text     string
	scanErrs []string
}

func newTypeParser(text string) *typeParser {
	p := &typeParser{}
	p.s.Init(strings.NewReader(text))
	// Char scanning stays off so lifetimes ('a) come through as punctuation.
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts
	p.s.Error = func(_ *scanner.Scanner, msg string) {
		p.scanErrs = append(p.scanErrs, msg)
	}
	p.next()
	return p
}

func (p *typeParser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
}

func (p *typeParser) expect(tok rune) error {
	if p.tok != tok {
		return fmt.Errorf("expected %q, found %q", string(tok), p.text)
	}
	p.next()
	return nil
}

func (p *typeParser) parseType() (Type, error) {
	switch p.tok {
	case '&':
		p.next()
		if p.tok == '\'' {
			p.next()
			if p.tok != scanner.Ident {
				return Type{}, fmt.Errorf("expected lifetime name, found %q", p.text)
			}
			p.next()
		}
		if p.tok == scanner.Ident && p.text == "mut" {
			p.next()
		}
		return p.parseType()
	case '[':
		return p.parseArray()
	case '(':
		return p.parseTuple()
	case scanner.Ident:
		return p.parsePath()
	default:
		return Type{}, fmt.Errorf("unexpected %q", p.text)
	}
}

// parseArray handles [T; N] and slices [T].
func (p *typeParser) parseArray() (Type, error) {
	p.next() // [
	elem, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	if p.tok == ']' {
		p.next()
		return vecOf(elem), nil
	}
	if err := p.expect(';'); err != nil {
		return Type{}, err
	}
	if p.tok != scanner.Int {
		return Type{}, fmt.Errorf("array length must be an integer literal, found %q", p.text)
	}
	n, err := strconv.ParseUint(strings.ReplaceAll(p.text, "_", ""), 0, 31)
	if err != nil {
		return Type{}, fmt.Errorf("invalid array length %s", p.text)
	}
	p.next()
	if err := p.expect(']'); err != nil {
		return Type{}, err
	}
	return Type{Kind: KindArray, Elems: []Type{elem}, Len: int(n)}, nil
}

func (p *typeParser) parseTuple() (Type, error) {
	p.next() // (
	elems := []Type{}
	for p.tok != ')' {
		t, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		elems = append(elems, t)
		if p.tok == ',' {
			p.next()
			continue
		}
		if p.tok != ')' {
			return Type{}, fmt.Errorf("expected , or ) in tuple, found %q", p.text)
		}
	}
	p.next() // )
	if len(elems) == 0 {
		return Type{}, fmt.Errorf("unit type has no IDL representation")
	}
	return Type{Kind: KindTuple, Elems: elems}, nil
}

func (p *typeParser) parsePath() (Type, error) {
	name := p.text
	p.next()
	for p.tok == ':' {
		p.next()
		if err := p.expect(':'); err != nil {
			return Type{}, err
		}
		if p.tok != scanner.Ident {
			return Type{}, fmt.Errorf("expected identifier after ::, found %q", p.text)
		}
		name = p.text
		p.next()
	}

	var args []Type
	if p.tok == '<' {
		p.next()
		for p.tok != '>' {
			// Lifetime arguments carry no data.
			if p.tok == '\'' {
				p.next()
				p.next()
			} else {
				t, err := p.parseType()
				if err != nil {
					return Type{}, err
				}
				args = append(args, t)
			}
			if p.tok == ',' {
				p.next()
				continue
			}
			if p.tok != '>' {
				return Type{}, fmt.Errorf("expected , or > in generic arguments of %s, found %q", name, p.text)
			}
		}
		p.next() // >
	}

	return resolvePath(name, args)
}

func resolvePath(name string, args []Type) (Type, error) {
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d type argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "Vec":
		if err := arity(1); err != nil {
			return Type{}, err
		}
		return vecOf(args[0]), nil
	case "Option", "COption":
		if err := arity(1); err != nil {
			return Type{}, err
		}
		kind := KindOption
		if name == "COption" {
			kind = KindCOption
		}
		return Type{Kind: kind, Elems: args}, nil
	case "Box":
		if err := arity(1); err != nil {
			return Type{}, err
		}
		return args[0], nil
	case "HashMap", "BTreeMap":
		if err := arity(2); err != nil {
			return Type{}, err
		}
		kind := KindHashMap
		if name == "BTreeMap" {
			kind = KindBTreeMap
		}
		return Type{Kind: kind, Elems: args}, nil
	case "HashSet", "BTreeSet":
		if err := arity(1); err != nil {
			return Type{}, err
		}
		kind := KindHashSet
		if name == "BTreeSet" {
			kind = KindBTreeSet
		}
		return Type{Kind: kind, Elems: args}, nil
	}

	if prim, ok := primitives[name]; ok && len(args) == 0 {
		return Type{Name: prim}, nil
	}
	return Type{Kind: KindDefined, Name: name}, nil
}

func vecOf(elem Type) Type {
	if elem.Kind == "" && elem.Name == "u8" {
		return Type{Name: "bytes"}
	}
	return Type{Kind: KindVec, Elems: []Type{elem}}
}
