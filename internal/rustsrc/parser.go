// Package rustsrc reads enums and their attributes out of Rust source files
// using Tree-sitter.
package rustsrc

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/fuzzyyeti/shank/internal/source"
)

// ParseFile reads and parses a Rust file.
func ParseFile(ctx context.Context, path string) ([]source.Enum, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(ctx, path, content)
}

// Parse returns every enum declared in content, at the top level or inside
// inline modules, in source order. Attributes are returned verbatim; nothing
// is interpreted here.
//
// A file with syntax errors is rejected as a whole.
func Parse(ctx context.Context, filename string, content []byte) ([]source.Enum, error) {
	// Parsers are not safe for concurrent use, so each call gets its own.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		return nil, &source.Error{
			Pos: position(filename, bad),
			Msg: "syntax error near " + quoteSnippet(bad.Content(content)),
		}
	}

	w := &walker{filename: filename, content: content}
	w.walkItems(root)
	return w.enums, nil
}

type walker struct {
	filename string
	content  []byte
	enums    []source.Enum
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.content)
}

// walkItems visits the items of a source file or module body. Outer
// attributes are siblings that precede the item they belong to.
func (w *walker) walkItems(parent *sitter.Node) {
	var pending []source.Annotation
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		switch child.Type() {
		case "attribute_item":
			if a, ok := w.attribute(child); ok {
				pending = append(pending, a)
			}
			continue
		case "line_comment", "block_comment":
			continue
		case "enum_item":
			w.enum(child, pending)
		case "mod_item":
			if body := child.ChildByFieldName("body"); body != nil {
				w.walkItems(body)
			}
		}
		pending = nil
	}
}

func (w *walker) enum(n *sitter.Node, attrs []source.Annotation) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	e := source.Enum{
		Name:  w.text(name),
		Attrs: attrs,
		Cases: []source.Case{},
		Pos:   position(w.filename, n),
	}
	if e.Attrs == nil {
		e.Attrs = []source.Annotation{}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		w.enums = append(w.enums, e)
		return
	}

	pending := []source.Annotation{}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "attribute_item":
			if a, ok := w.attribute(child); ok {
				pending = append(pending, a)
			}
		case "enum_variant":
			e.Cases = append(e.Cases, w.variant(child, pending))
			pending = []source.Annotation{}
		}
	}
	w.enums = append(w.enums, e)
}

func (w *walker) variant(n *sitter.Node, attrs []source.Annotation) source.Case {
	c := source.Case{
		Attrs:  attrs,
		Fields: []source.Field{},
		Pos:    position(w.filename, n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		c.Name = w.text(name)
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return c
	}

	switch body.Type() {
	case "field_declaration_list":
		for i := 0; i < int(body.NamedChildCount()); i++ {
			decl := body.NamedChild(i)
			if decl.Type() != "field_declaration" {
				continue
			}
			name, typ := decl.ChildByFieldName("name"), decl.ChildByFieldName("type")
			if name == nil || typ == nil {
				continue
			}
			c.Fields = append(c.Fields, source.Field{Name: w.text(name), Type: w.text(typ)})
		}
	case "ordered_field_declaration_list":
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			switch child.Type() {
			case "attribute_item", "visibility_modifier", "line_comment", "block_comment":
				continue
			}
			c.Fields = append(c.Fields, source.Field{Type: w.text(child)})
		}
	}
	return c
}

// attribute splits #[path args] into the path and the raw argument tokens.
func (w *walker) attribute(n *sitter.Node) (source.Annotation, bool) {
	var attr *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "attribute" {
			attr = c
			break
		}
	}
	if attr == nil || attr.NamedChildCount() == 0 {
		return source.Annotation{}, false
	}

	path := attr.NamedChild(0)
	tokens := strings.TrimSpace(string(w.content[path.EndByte():attr.EndByte()]))
	return source.Annotation{
		Name:   stripSpaces(w.text(path)),
		Tokens: tokens,
		Pos:    position(w.filename, n),
	}, true
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func position(filename string, n *sitter.Node) source.Pos {
	p := n.StartPoint()
	return source.Pos{Filename: filename, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsMissing() {
			return firstError(c)
		}
	}
	return n
}

func quoteSnippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return fmt.Sprintf("%q", s)
}
