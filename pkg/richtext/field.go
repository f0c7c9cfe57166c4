// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Field is an immutable snapshot of one rich-text field: the document and the
// editor selection. Fields are compared by pointer; Apply always returns a
// new Field.
type Field struct {
	Doc       *Node
	Selection Selection
}

// NewField returns a field holding doc. A nil doc yields an empty field.
func NewField(doc *Node) *Field {
	if doc == nil {
		return Empty()
	}
	return &Field{Doc: doc}
}

// Empty returns a field holding a single empty paragraph.
func Empty() *Field {
	return &Field{Doc: NewDoc(NewParagraph())}
}

// Text returns a field holding a single paragraph of plain text.
func Text(s string) *Field {
	if s == "" {
		return Empty()
	}
	return &Field{Doc: NewDoc(NewParagraph(NewText(s)))}
}

// IsEmpty reports whether the field has no text and no inline atoms.
func (f *Field) IsEmpty() bool {
	if f == nil || f.Doc == nil {
		return true
	}
	empty := true
	Walk(f.Doc, func(_ Path, n *Node) bool {
		if (n.IsText() && n.Text != "") || n.Type == TypeCitation {
			empty = false
		}
		return empty
	})
	return empty
}

// WithDoc returns a copy of f holding doc and the same selection.
func (f *Field) WithDoc(doc *Node) *Field {
	return &Field{Doc: doc, Selection: f.Selection}
}

// Apply returns the field produced by applying tx to f. The selection is
// replaced when the transaction carries one.
func Apply(f *Field, tx *Transaction) (*Field, error) {
	if f == nil {
		return nil, fmt.Errorf("applying transaction: field is nil")
	}
	doc, err := ApplySteps(f.Doc, tx.Steps)
	if err != nil {
		return nil, err
	}
	out := &Field{Doc: doc, Selection: f.Selection}
	if tx.Selection != nil {
		out.Selection = *tx.Selection
	}
	return out, nil
}

// MarshalJSON encodes the field as its document node.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Doc)
}

// UnmarshalJSON decodes a document node and validates it against the
// default schema.
func (f *Field) UnmarshalJSON(data []byte) error {
	var doc Node
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if err := DefaultSchema.Validate(&doc); err != nil {
		return fmt.Errorf("decoding rich-text field: %w", err)
	}
	*f = Field{Doc: &doc}
	return nil
}

// MarshalYAML encodes the field as markup.
func (f *Field) MarshalYAML() (any, error) {
	return RenderMarkup(f), nil
}

// UnmarshalYAML parses markup with the default schema.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	var markup string
	if err := value.Decode(&markup); err != nil {
		return fmt.Errorf("decoding rich-text markup: %w", err)
	}
	parsed, err := ParseMarkup(DefaultSchema, markup)
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}
