// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"fmt"
	"slices"
)

// NodeSpec describes one node type of a schema.
type NodeSpec struct {
	// Tags are the markup element names parsed into this node type. The
	// first one is used when rendering.
	Tags []string

	// Content lists the node types allowed as children. Empty means the
	// node has no children.
	Content []string

	// Attrs lists the attributes copied from markup.
	Attrs []string

	// Fixed attributes are written when rendering. An element carrying a
	// different value for one of them is not parsed as this node type.
	Fixed map[string]string

	// Fill is the child type created when the node would otherwise be
	// empty, e.g. a paragraph inside an empty document.
	Fill string

	// LabelAttr, for inline atoms, names the attribute holding the
	// element's text content.
	LabelAttr string

	Inline bool
	Atom   bool
}

// MarkSpec describes one mark type of a schema.
type MarkSpec struct {
	Tags []string
}

// Schema is the set of node and mark types a document may contain.
type Schema struct {
	Name  string
	Nodes map[string]NodeSpec
	Marks map[string]MarkSpec
}

// DefaultSchema is the manuscript schema used for every rich-text field
// unless configured otherwise.
var DefaultSchema = &Schema{
	Name: "manuscript",
	Nodes: map[string]NodeSpec{
		TypeDoc:       {Content: []string{TypeParagraph, TypeFigure}, Fill: TypeParagraph},
		TypeParagraph: {Tags: []string{"p"}, Content: []string{TypeText, TypeCitation}},
		TypeText:      {Inline: true},
		TypeCitation: {
			Tags:      []string{"xref"},
			Attrs:     []string{"rid"},
			Fixed:     map[string]string{"ref-type": "bibr"},
			LabelAttr: "label",
			Inline:    true,
			Atom:      true,
		},
		TypeFigure:  {Tags: []string{"fig"}, Content: []string{TypeCaption}, Attrs: []string{"id"}},
		TypeCaption: {Tags: []string{"caption"}, Content: []string{TypeParagraph}, Fill: TypeParagraph},
	},
	Marks: map[string]MarkSpec{
		MarkItalic:      {Tags: []string{"italic", "i", "em"}},
		MarkBold:        {Tags: []string{"bold", "b", "strong"}},
		MarkSuperscript: {Tags: []string{"sup"}},
		MarkSubscript:   {Tags: []string{"sub"}},
	},
}

// PlainSchema allows paragraphs of unformatted text only.
var PlainSchema = &Schema{
	Name: "plain",
	Nodes: map[string]NodeSpec{
		TypeDoc:       {Content: []string{TypeParagraph}, Fill: TypeParagraph},
		TypeParagraph: {Tags: []string{"p"}, Content: []string{TypeText}},
		TypeText:      {Inline: true},
	},
}

// SchemaByName returns a built-in schema. The empty name selects
// DefaultSchema.
func SchemaByName(name string) (*Schema, error) {
	switch name {
	case "", DefaultSchema.Name:
		return DefaultSchema, nil
	case PlainSchema.Name:
		return PlainSchema, nil
	default:
		return nil, fmt.Errorf("unknown schema %q", name)
	}
}

// Allows reports whether a node of type parent may hold a child of type child.
func (s *Schema) Allows(parent, child string) bool {
	spec, ok := s.Nodes[parent]
	return ok && slices.Contains(spec.Content, child)
}

// Validate checks that n and every node below it use known node and mark
// types and respect the content rules.
func (s *Schema) Validate(n *Node) error {
	var err error
	Walk(n, func(p Path, node *Node) bool {
		if err != nil {
			return false
		}
		spec, ok := s.Nodes[node.Type]
		if !ok {
			err = fmt.Errorf("node at %v: unknown type %q in schema %s", p, node.Type, s.Name)
			return false
		}
		for _, m := range node.Marks {
			if _, ok := s.Marks[m.Type]; !ok {
				err = fmt.Errorf("node at %v: unknown mark %q in schema %s", p, m.Type, s.Name)
				return false
			}
		}
		if node.IsText() && len(node.Content) > 0 {
			err = fmt.Errorf("node at %v: text node has children", p)
			return false
		}
		for i, child := range node.Content {
			if child == nil {
				err = fmt.Errorf("node at %v: child %d is null", p, i)
				return false
			}
			if !slices.Contains(spec.Content, child.Type) {
				err = fmt.Errorf("node at %v: %s not allowed inside %s", p.Child(i), child.Type, node.Type)
				return false
			}
		}
		return true
	})
	return err
}

func (s *Schema) nodeForTag(tag string) (string, NodeSpec, bool) {
	for typ, spec := range s.Nodes {
		if slices.Contains(spec.Tags, tag) {
			return typ, spec, true
		}
	}
	return "", NodeSpec{}, false
}

func (s *Schema) markForTag(tag string) (string, bool) {
	for typ, spec := range s.Marks {
		if slices.Contains(spec.Tags, tag) {
			return typ, true
		}
	}
	return "", false
}

func (s *Schema) tagFor(typ string) string {
	if spec, ok := s.Nodes[typ]; ok && len(spec.Tags) > 0 {
		return spec.Tags[0]
	}
	if spec, ok := s.Marks[typ]; ok && len(spec.Tags) > 0 {
		return spec.Tags[0]
	}
	return ""
}
