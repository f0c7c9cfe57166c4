// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package richtext is the versioned document layer behind every rich-text
// field of a manuscript: immutable document trees, reversible steps,
// transactions, a JSON step codec, and markup parsing/rendering.
//
// Documents follow the ProseMirror/TipTap JSON shape (type, attrs, content,
// marks, text). Nodes are never modified after construction; an edit copies
// the nodes on the path from the root to the edited node and shares the rest.
package richtext

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Node types and marks of the manuscript schema.
const (
	TypeDoc       = "doc"
	TypeParagraph = "paragraph"
	TypeText      = "text"
	TypeCitation  = "citation"
	TypeFigure    = "figure"
	TypeCaption   = "caption"

	MarkItalic      = "italic"
	MarkBold        = "bold"
	MarkSuperscript = "superscript"
	MarkSubscript   = "subscript"
)

// Node is one element of a rich-text document tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Mark is inline formatting applied to a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// NewDoc returns a document node holding the given blocks.
func NewDoc(blocks ...*Node) *Node {
	return &Node{Type: TypeDoc, Content: normalize(blocks)}
}

// NewParagraph returns a paragraph holding the given inline nodes.
func NewParagraph(inline ...*Node) *Node {
	return &Node{Type: TypeParagraph, Content: normalize(inline)}
}

// NewText returns a text node with the given marks.
func NewText(text string, marks ...Mark) *Node {
	n := &Node{Type: TypeText, Text: text}
	if len(marks) > 0 {
		n.Marks = marks
	}
	return n
}

// NewCitation returns an inline citation pointing at one or more reference ids.
func NewCitation(label string, refIDs ...string) *Node {
	return &Node{
		Type: TypeCitation,
		Attrs: map[string]any{
			"rid":   strings.Join(refIDs, " "),
			"label": label,
		},
	}
}

// Attr returns the string value of an attribute, or "" if it is absent.
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	s, _ := n.Attrs[key].(string)
	return s
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n != nil && n.Type == TypeText
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.Content)
}

// Resolve returns the node at path p below n.
func (n *Node) Resolve(p Path) (*Node, error) {
	cur := n
	for depth, i := range p {
		if i < 0 || i >= cur.ChildCount() {
			return nil, fmt.Errorf("position %v: child %d out of range (node %s has %d children)", p[:depth+1], i, cur.Type, cur.ChildCount())
		}
		cur = cur.Content[i]
	}
	return cur, nil
}

// Equal reports whether two nodes are structurally equal. Empty and nil
// attribute maps and content slices compare equal.
func Equal(a, b *Node) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// TextContent concatenates the text of every text node below n.
// Citations contribute their label.
func TextContent(n *Node) string {
	var b strings.Builder
	Walk(n, func(_ Path, node *Node) bool {
		switch node.Type {
		case TypeText:
			b.WriteString(node.Text)
		case TypeCitation:
			b.WriteString(node.Attr("label"))
		}
		return true
	})
	return b.String()
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n *Node, fn func(p Path, node *Node) bool) {
	walk(n, nil, fn)
}

func walk(n *Node, p Path, fn func(Path, *Node) bool) {
	if n == nil {
		return
	}
	if !fn(p, n) {
		return
	}
	for i, child := range n.Content {
		walk(child, p.Child(i), fn)
	}
}

// withContent returns a shallow copy of n holding content.
func (n *Node) withContent(content []*Node) *Node {
	cp := *n
	cp.Content = normalize(content)
	return &cp
}

// withAttrs returns a shallow copy of n holding attrs.
func (n *Node) withAttrs(attrs map[string]any) *Node {
	cp := *n
	if len(attrs) == 0 {
		attrs = nil
	}
	cp.Attrs = attrs
	return &cp
}

// withText returns a shallow copy of text node n holding text.
func (n *Node) withText(text string) *Node {
	cp := *n
	cp.Text = text
	return &cp
}

// update rebuilds the nodes from n down to the node at p, replacing that node
// with the result of fn.
func update(n *Node, p Path, fn func(*Node) (*Node, error)) (*Node, error) {
	if len(p) == 0 {
		return fn(n)
	}
	i := p[0]
	if i < 0 || i >= n.ChildCount() {
		return nil, fmt.Errorf("child %d out of range (node %s has %d children)", i, n.Type, n.ChildCount())
	}
	child, err := update(n.Content[i], p[1:], fn)
	if err != nil {
		return nil, err
	}
	content := make([]*Node, len(n.Content))
	copy(content, n.Content)
	content[i] = child
	return n.withContent(content), nil
}

func normalize(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes
}
