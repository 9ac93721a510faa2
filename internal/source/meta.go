package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"
)

// MetaKind is the syntactic form of an annotation.
type MetaKind int

const (
	// MetaPath is a bare flag: #[name]
	MetaPath MetaKind = iota
	// MetaList is an argument list: #[name(a, b = 1, 2)]
	MetaList
	// MetaNameValue is an assignment: #[name = lit]
	MetaNameValue
)

func (k MetaKind) String() string {
	switch k {
	case MetaPath:
		return "path"
	case MetaList:
		return "list"
	case MetaNameValue:
		return "name-value"
	default:
		return fmt.Sprintf("MetaKind(%d)", int(k))
	}
}

// LitKind is the kind of a literal token.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitStr
	LitChar
	LitBool
)

// Lit is a literal argument.
type Lit struct {
	Kind LitKind
	// Text is the token as written, including any integer suffix.
	Text string
	// Value is the unquoted string, or the integer digits without suffix or
	// _ separators.
	Value string
}

// Uint parses an integer literal into an unsigned value of the given bit size.
// Literals follow Rust rules: a lowercase 0x, 0o or 0b prefix selects the
// base, anything else is decimal (so 010 is ten), and _ separators are
// ignored.
func (l Lit) Uint(bitSize int) (uint64, error) {
	if l.Kind != LitInt {
		return 0, fmt.Errorf("%s is not an integer literal", l.Text)
	}
	digits, base := splitRadix(strings.ReplaceAll(l.Value, "_", ""))
	n, err := strconv.ParseUint(digits, base, bitSize)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%s is out of range for u%d", l.Text, bitSize)
		}
		return 0, fmt.Errorf("invalid integer literal %s", l.Text)
	}
	return n, nil
}

func splitRadix(s string) (string, int) {
	switch {
	case strings.HasPrefix(s, "0x"):
		return s[2:], 16
	case strings.HasPrefix(s, "0o"):
		return s[2:], 8
	case strings.HasPrefix(s, "0b"):
		return s[2:], 2
	}
	return s, 10
}

// splitIntSuffix splits an integer token into its digits and type suffix.
// The digits keep their radix prefix and separators.
func splitIntSuffix(tok string) (digits, suffix string) {
	_, base := splitRadix(tok)
	i := 0
	if base != 10 {
		i = 2
	}
	for ; i < len(tok); i++ {
		c := tok[i]
		if c != '_' && !isDigitOf(c, base) {
			break
		}
	}
	return tok[:i], tok[i:]
}

func isDigitOf(c byte, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 8:
		return '0' <= c && c <= '7'
	case 16:
		return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
	}
	return '0' <= c && c <= '9'
}

// NestedMeta is one entry of a MetaList: either a literal or a nested meta.
type NestedMeta struct {
	Lit  *Lit
	Meta *Meta
}

// IsLit reports whether the entry is a literal.
func (n NestedMeta) IsLit() bool {
	return n.Lit != nil
}

func (n NestedMeta) String() string {
	if n.Lit != nil {
		return n.Lit.Text
	}
	if n.Meta != nil {
		return n.Meta.String()
	}
	return ""
}

// Meta is a parsed annotation.
type Meta struct {
	Kind   MetaKind
	Path   string
	Value  Lit          // MetaNameValue only
	Nested []NestedMeta // MetaList only
}

func (m Meta) String() string {
	switch m.Kind {
	case MetaList:
		parts := make([]string, len(m.Nested))
		for i, n := range m.Nested {
			parts[i] = n.String()
		}
		return m.Path + "(" + strings.Join(parts, ", ") + ")"
	case MetaNameValue:
		return m.Path + " = " + m.Value.Text
	default:
		return m.Path
	}
}

// Meta parses the annotation's tokens.
func (a Annotation) Meta() (Meta, error) {
	return ParseMeta(a.Name + a.Tokens)
}

// ParseMeta parses annotation text of the form
//
//	path
//	path = literal
//	path ( [entry {, entry} [,]] )
//
// where entry is a literal or, recursively, a meta.
func ParseMeta(text string) (Meta, error) {
	p := newMetaParser(text)
	m, err := p.parseMeta()
	if err != nil {
		return Meta{}, err
	}
	if p.tok != scanner.EOF {
		return Meta{}, p.errorf("unexpected %s after %s", p.describe(), m.Path)
	}
	if len(p.scanErrs) > 0 {
		return Meta{}, fmt.Errorf("%s", p.scanErrs[0])
	}
	return m, nil
}

type metaParser struct {
	s        scanner.Scanner
	tok      rune
	text     string
	scanErrs []string
}

func newMetaParser(text string) *metaParser {
	p := &metaParser{}
	p.s.Init(strings.NewReader(text))
	// Numbers scan as identifier runs so that Rust literals such as 09, 0_10
	// and 10_u8 reach parseLit whole instead of tripping Go's lexer rules.
	p.s.Mode = scanner.ScanIdents | scanner.ScanChars | scanner.ScanStrings |
		scanner.ScanComments | scanner.SkipComments
	p.s.IsIdentRune = func(ch rune, _ int) bool {
		return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
	}
	p.s.Error = func(_ *scanner.Scanner, msg string) {
		p.scanErrs = append(p.scanErrs, msg)
	}
	p.next()
	return p
}

func (p *metaParser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
}

// number reports whether the current token is a numeric literal.
func (p *metaParser) number() bool {
	return p.tok == scanner.Ident && p.text != "" && '0' <= p.text[0] && p.text[0] <= '9'
}

func (p *metaParser) describe() string {
	switch {
	case p.tok == scanner.EOF:
		return "end of input"
	case p.number():
		return fmt.Sprintf("number %s", p.text)
	case p.tok == scanner.Ident:
		return fmt.Sprintf("identifier %q", p.text)
	default:
		return fmt.Sprintf("%q", p.text)
	}
}

func (p *metaParser) errorf(format string, args ...any) error {
	if len(p.scanErrs) > 0 {
		return fmt.Errorf("%s", p.scanErrs[0])
	}
	return fmt.Errorf(format, args...)
}

func (p *metaParser) parseMeta() (Meta, error) {
	path, err := p.parsePath()
	if err != nil {
		return Meta{}, err
	}

	switch p.tok {
	case '(':
		nested, err := p.parseList()
		if err != nil {
			return Meta{}, err
		}
		return Meta{Kind: MetaList, Path: path, Nested: nested}, nil
	case '=':
		p.next()
		lit, ok, err := p.parseLit()
		if err != nil {
			return Meta{}, err
		}
		if !ok {
			return Meta{}, p.errorf("expected literal after %s =, found %s", path, p.describe())
		}
		return Meta{Kind: MetaNameValue, Path: path, Value: lit}, nil
	default:
		return Meta{Kind: MetaPath, Path: path}, nil
	}
}

func (p *metaParser) parsePath() (string, error) {
	if p.tok != scanner.Ident || p.number() {
		return "", p.errorf("expected identifier, found %s", p.describe())
	}
	var b strings.Builder
	b.WriteString(p.text)
	p.next()
	for p.tok == ':' {
		p.next()
		if p.tok != ':' {
			return "", p.errorf("expected :: in path %s", b.String())
		}
		p.next()
		if p.tok != scanner.Ident || p.number() {
			return "", p.errorf("expected identifier after %s::, found %s", b.String(), p.describe())
		}
		b.WriteString("::")
		b.WriteString(p.text)
		p.next()
	}
	return b.String(), nil
}

func (p *metaParser) parseList() ([]NestedMeta, error) {
	p.next() // (
	nested := []NestedMeta{}
	for p.tok != ')' {
		entry, err := p.parseNested()
		if err != nil {
			return nil, err
		}
		nested = append(nested, entry)

		switch p.tok {
		case ',':
			p.next()
		case ')':
		default:
			return nil, p.errorf("expected , or ) in argument list, found %s", p.describe())
		}
	}
	p.next() // )
	return nested, nil
}

func (p *metaParser) parseNested() (NestedMeta, error) {
	lit, ok, err := p.parseLit()
	if err != nil {
		return NestedMeta{}, err
	}
	if ok {
		return NestedMeta{Lit: &lit}, nil
	}
	if p.tok != scanner.Ident {
		return NestedMeta{}, p.errorf("expected literal or identifier, found %s", p.describe())
	}
	m, err := p.parseMeta()
	if err != nil {
		return NestedMeta{}, err
	}
	if m.Kind == MetaPath && (m.Path == "true" || m.Path == "false") {
		return NestedMeta{Lit: &Lit{Kind: LitBool, Text: m.Path, Value: m.Path}}, nil
	}
	return NestedMeta{Meta: &m}, nil
}

// parseLit consumes a literal token if one is present.
func (p *metaParser) parseLit() (Lit, bool, error) {
	if p.number() {
		return p.parseNumber()
	}
	switch p.tok {
	case scanner.String:
		value, err := strconv.Unquote(p.text)
		if err != nil {
			return Lit{}, false, p.errorf("invalid string literal %s", p.text)
		}
		lit := Lit{Kind: LitStr, Text: p.text, Value: value}
		p.next()
		return lit, true, nil
	case scanner.Char:
		lit := Lit{Kind: LitChar, Text: p.text, Value: strings.Trim(p.text, "'")}
		p.next()
		return lit, true, nil
	}
	return Lit{}, false, nil
}

// parseNumber consumes an integer literal with its optional suffix, or a
// float literal of the form int.int.
func (p *metaParser) parseNumber() (Lit, bool, error) {
	text := p.text
	if p.s.Peek() == '.' {
		p.next() // .
		p.next()
		if p.number() {
			text += "." + p.text
			p.next()
		} else {
			text += "."
		}
		return Lit{Kind: LitFloat, Text: text, Value: text}, true, nil
	}

	digits, suffix := splitIntSuffix(text)
	if suffix != "" && !isIntSuffix(suffix) {
		return Lit{}, false, p.errorf("invalid suffix %q on integer literal %s", suffix, digits)
	}
	p.next()
	return Lit{Kind: LitInt, Text: text, Value: strings.ReplaceAll(digits, "_", "")}, true, nil
}

func isIntSuffix(s string) bool {
	switch s {
	case "u8", "u16", "u32", "u64", "u128", "usize",
		"i8", "i16", "i32", "i64", "i128", "isize":
		return true
	}
	return false
}
