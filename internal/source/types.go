package source

import "fmt"

// Pos is a position in an input file. Line and Column are 1-based; the zero
// value means "unknown".
type Pos struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// IsValid reports whether the position carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return p.Filename
	}
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Annotation is a tag attached to an enum or one of its cases, e.g.
// #[discriminant(10)] or @account(0, name="creator", sig).
type Annotation struct {
	// Name is the annotation path, e.g. "discriminant" or "derive".
	Name string
	// Tokens is everything after the name, verbatim: "" for a bare flag,
	// "(...)" for an argument list, "= lit" for a name-value form.
	Tokens string
	Pos    Pos
}

// Enum is an enumeration as read from source.
type Enum struct {
	Name  string
	Attrs []Annotation
	Cases []Case
	Pos   Pos
}

// Case is one alternative of an Enum, in declaration order.
type Case struct {
	Name   string
	Fields []Field
	Attrs  []Annotation
	Pos    Pos
}

// Field is one payload field of a case. Name is empty for tuple fields.
type Field struct {
	Name string
	Type string
}

// Labelled reports whether the field carries a name.
func (f Field) Labelled() bool {
	return f.Name != ""
}

// Filter returns the annotations named name, in source order.
func Filter(attrs []Annotation, name string) []Annotation {
	var out []Annotation
	for _, a := range attrs {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// Error is a failure reading an input file.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.IsValid() || e.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}
