// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package change

import (
	"fmt"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// ProsemirrorChange applies a rich-text transaction to the field at its path.
// Only document content is changed; the field's selection is left alone.
type ProsemirrorChange struct {
	base
	Transaction *richtext.Transaction
}

// NewProsemirrorChange returns a change applying tx to the field at path.
func NewProsemirrorChange(path docpath.Path, tx *richtext.Transaction) *ProsemirrorChange {
	if tx == nil {
		tx = &richtext.Transaction{}
	}
	return &ProsemirrorChange{base: newBase(path), Transaction: tx}
}

func (c *ProsemirrorChange) Type() string  { return TypeSteps }
func (c *ProsemirrorChange) IsEmpty() bool { return !c.Transaction.DocChanged() }

func (c *ProsemirrorChange) Apply(m types.Manuscript) (types.Manuscript, Change, error) {
	next, err := applySteps(m, c.path, c.Transaction.Steps)
	if err != nil {
		return m, nil, err
	}
	return next, c, nil
}

func (c *ProsemirrorChange) Rollback(m types.Manuscript) (types.Manuscript, error) {
	return applySteps(m, c.path, c.Transaction.Invert().Steps)
}

func applySteps(m types.Manuscript, path docpath.Path, steps []richtext.Step) (types.Manuscript, error) {
	if len(steps) == 0 {
		return m, nil
	}
	f, err := docpath.GetField(m, path)
	if err != nil {
		return m, err
	}
	doc, err := richtext.ApplySteps(f.Doc, steps)
	if err != nil {
		return m, fmt.Errorf("applying steps at %q: %w", path.String(), err)
	}
	return docpath.Update(m, path, f.WithDoc(doc))
}
