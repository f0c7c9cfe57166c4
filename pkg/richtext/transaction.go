// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"fmt"
	"reflect"
	"slices"
)

// Transaction is an edit against a Field: an ordered list of steps plus an
// optional new selection. Before is the selection the edit started from and
// is restored when the transaction is inverted.
type Transaction struct {
	Steps     []Step
	Selection *Selection
	Before    *Selection
}

// DocChanged reports whether the transaction changes document content.
// Selection-only transactions return false.
func (tx *Transaction) DocChanged() bool {
	return tx != nil && len(tx.Steps) > 0
}

// Invert returns the transaction that undoes tx.
func (tx *Transaction) Invert() *Transaction {
	inv := &Transaction{Selection: tx.Before, Before: tx.Selection}
	for i := len(tx.Steps) - 1; i >= 0; i-- {
		inv.Steps = append(inv.Steps, tx.Steps[i].Invert())
	}
	return inv
}

// Compose returns tx followed by next as one transaction.
func (tx *Transaction) Compose(next *Transaction) *Transaction {
	out := &Transaction{
		Steps:     append(slices.Clone(tx.Steps), next.Steps...),
		Selection: tx.Selection,
		Before:    tx.Before,
	}
	if next.Selection != nil {
		out.Selection = next.Selection
	}
	return out
}

// Rebase re-targets every step into a parent document whose node at prefix
// is the root of the document tx was made against. The selection is dropped
// since it belongs to the embedded editor.
func (tx *Transaction) Rebase(prefix Path) *Transaction {
	out := &Transaction{Steps: make([]Step, len(tx.Steps))}
	for i, s := range tx.Steps {
		out.Steps[i] = s.Rebase(prefix)
	}
	return out
}

// Compact merges adjacent steps where possible, e.g. a run of keystrokes in
// the same text node becomes a single text step.
func (tx *Transaction) Compact() *Transaction {
	out := &Transaction{Selection: tx.Selection, Before: tx.Before}
	out.Steps = MergeSteps(tx.Steps)
	return out
}

// MergeSteps merges adjacent steps where possible.
func MergeSteps(steps []Step) []Step {
	var out []Step
	for _, s := range steps {
		if n := len(out); n > 0 {
			if merged, ok := out[n-1].Merge(s); ok {
				out[n-1] = merged
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// ApplySteps applies steps to doc in order.
func ApplySteps(doc *Node, steps []Step) (*Node, error) {
	for i, s := range steps {
		next, err := s.Apply(doc)
		if err != nil {
			return nil, fmt.Errorf("applying step %d (%s): %w", i, s.Kind(), err)
		}
		doc = next
	}
	return doc, nil
}

// Builder records steps while editing a working copy of a document.
type Builder struct {
	doc       *Node
	steps     []Step
	selection *Selection
	before    Selection
}

// NewBuilder starts a transaction against f.
func NewBuilder(f *Field) *Builder {
	return &Builder{doc: f.Doc, before: f.Selection}
}

// Doc returns the working document with every recorded step applied.
func (b *Builder) Doc() *Node { return b.doc }

// Step applies s to the working document and records it.
func (b *Builder) Step(s Step) error {
	next, err := s.Apply(b.doc)
	if err != nil {
		return err
	}
	b.doc = next
	b.steps = append(b.steps, s)
	return nil
}

// ReplaceText replaces the rune range [from, to) of the text node at p.
func (b *Builder) ReplaceText(p Path, from, to int, text string) error {
	n, err := b.doc.Resolve(p)
	if err != nil {
		return err
	}
	if !n.IsText() {
		return fmt.Errorf("text edit at %v: target is a %s node, not a text node", p, n.Type)
	}
	runes := []rune(n.Text)
	if from < 0 || from > to || to > len(runes) {
		return fmt.Errorf("text edit at %v: range [%d,%d) out of bounds (length %d)", p, from, to, len(runes))
	}
	return b.Step(TextStep{Path: p, From: from, To: to, Removed: string(runes[from:to]), Inserted: text})
}

// InsertText inserts text at a rune offset of the text node at p.
func (b *Builder) InsertText(p Path, offset int, text string) error {
	return b.ReplaceText(p, offset, offset, text)
}

// DeleteText deletes the rune range [from, to) of the text node at p.
func (b *Builder) DeleteText(p Path, from, to int) error {
	return b.ReplaceText(p, from, to, "")
}

// ReplaceChildren replaces children [from, to) of the node at p with nodes.
func (b *Builder) ReplaceChildren(p Path, from, to int, nodes ...*Node) error {
	n, err := b.doc.Resolve(p)
	if err != nil {
		return err
	}
	if from < 0 || from > to || to > n.ChildCount() {
		return fmt.Errorf("replace at %v: range [%d,%d) out of bounds (%d children)", p, from, to, n.ChildCount())
	}
	removed := slices.Clone(n.Content[from:to])
	if len(removed) == 0 && len(nodes) == 0 {
		return nil
	}
	return b.Step(ReplaceStep{Path: p, From: from, To: to, Removed: removed, Inserted: normalize(nodes)})
}

// RemoveNode removes the node at p.
func (b *Builder) RemoveNode(p Path) error {
	parent, i, ok := p.Parent()
	if !ok {
		return fmt.Errorf("cannot remove the document root")
	}
	return b.ReplaceChildren(parent, i, i+1)
}

// SetAttrs sets attributes on the node at p. A nil value removes the
// attribute. Attributes that already hold the requested value are skipped;
// no step is recorded when nothing changes.
func (b *Builder) SetAttrs(p Path, attrs map[string]any) error {
	n, err := b.doc.Resolve(p)
	if err != nil {
		return err
	}
	set := make(map[string]any)
	prev := make(map[string]any)
	for k, v := range attrs {
		old, present := n.Attrs[k]
		if (v == nil && !present) || (present && reflect.DeepEqual(old, v)) {
			continue
		}
		set[k] = v
		prev[k] = old
	}
	if len(set) == 0 {
		return nil
	}
	return b.Step(AttrStep{Path: p, Attrs: set, Prev: prev})
}

// ReplaceAll replaces the whole content of the document with the content
// of doc.
func (b *Builder) ReplaceAll(doc *Node) error {
	return b.ReplaceChildren(nil, 0, b.doc.ChildCount(), doc.Content...)
}

// SetSelection records the selection to apply with the transaction.
func (b *Builder) SetSelection(sel Selection) {
	b.selection = &sel
}

// Transaction returns the recorded transaction.
func (b *Builder) Transaction() *Transaction {
	before := b.before
	return &Transaction{
		Steps:     slices.Clone(b.steps),
		Selection: b.selection,
		Before:    &before,
	}
}

// ReplaceDocument returns a transaction turning the content of from into the
// content of to, or a transaction with no steps if both are already equal.
func ReplaceDocument(from, to *Field) (*Transaction, error) {
	b := NewBuilder(from)
	if !Equal(from.Doc, to.Doc) {
		if err := b.ReplaceAll(to.Doc); err != nil {
			return nil, err
		}
	}
	b.SetSelection(to.Selection)
	return b.Transaction(), nil
}
