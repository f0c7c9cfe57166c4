// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"fmt"
	"maps"
	"reflect"
)

// Step kinds, used as the JSON discriminator.
const (
	StepReplace = "replace"
	StepText    = "text"
	StepAttrs   = "attrs"
)

// Step is an atomic, reversible change to a document. Every step records the
// content it replaces, so it can be inverted without the document it was
// made against, and Apply refuses to run against a document whose content
// does not match the recorded content.
type Step interface {
	// Kind returns the JSON discriminator of the step.
	Kind() string

	// Apply returns the document with the step applied.
	Apply(doc *Node) (*Node, error)

	// Invert returns the step that undoes this one.
	Invert() Step

	// Rebase returns the step re-targeted into a parent document in which
	// the root of this step's document sits at prefix.
	Rebase(prefix Path) Step

	// Merge returns a single step equivalent to this step followed by next,
	// when one exists.
	Merge(next Step) (Step, bool)

	step()
}

// ReplaceStep replaces children [From, To) of the node at Path.
type ReplaceStep struct {
	Path     Path
	From     int
	To       int
	Removed  []*Node
	Inserted []*Node
}

func (ReplaceStep) step()        {}
func (ReplaceStep) Kind() string { return StepReplace }

func (s ReplaceStep) Apply(doc *Node) (*Node, error) {
	return update(doc, s.Path, func(n *Node) (*Node, error) {
		if n.IsText() {
			return nil, fmt.Errorf("replace at %v: target is a text node", s.Path)
		}
		if s.From < 0 || s.From > s.To || s.To > n.ChildCount() {
			return nil, fmt.Errorf("replace at %v: range [%d,%d) out of bounds (%d children)", s.Path, s.From, s.To, n.ChildCount())
		}
		current := n.Content[s.From:s.To]
		if len(current) != len(s.Removed) {
			return nil, fmt.Errorf("replace at %v: expected %d nodes in [%d,%d), found %d", s.Path, len(s.Removed), s.From, s.To, len(current))
		}
		for i := range current {
			if !Equal(current[i], s.Removed[i]) {
				return nil, fmt.Errorf("replace at %v: content mismatch at child %d", s.Path, s.From+i)
			}
		}
		content := make([]*Node, 0, n.ChildCount()-len(current)+len(s.Inserted))
		content = append(content, n.Content[:s.From]...)
		content = append(content, s.Inserted...)
		content = append(content, n.Content[s.To:]...)
		return n.withContent(content), nil
	})
}

func (s ReplaceStep) Invert() Step {
	return ReplaceStep{
		Path:     s.Path,
		From:     s.From,
		To:       s.From + len(s.Inserted),
		Removed:  s.Inserted,
		Inserted: s.Removed,
	}
}

func (s ReplaceStep) Rebase(prefix Path) Step {
	s.Path = s.Path.Prefix(prefix)
	return s
}

func (s ReplaceStep) Merge(Step) (Step, bool) { return nil, false }

// TextStep replaces the rune range [From, To) of the text node at Path.
type TextStep struct {
	Path     Path
	From     int
	To       int
	Removed  string
	Inserted string
}

func (TextStep) step()        {}
func (TextStep) Kind() string { return StepText }

func (s TextStep) Apply(doc *Node) (*Node, error) {
	return update(doc, s.Path, func(n *Node) (*Node, error) {
		if !n.IsText() {
			return nil, fmt.Errorf("text edit at %v: target is a %s node, not a text node", s.Path, n.Type)
		}
		runes := []rune(n.Text)
		if s.From < 0 || s.From > s.To || s.To > len(runes) {
			return nil, fmt.Errorf("text edit at %v: range [%d,%d) out of bounds (length %d)", s.Path, s.From, s.To, len(runes))
		}
		if got := string(runes[s.From:s.To]); got != s.Removed {
			return nil, fmt.Errorf("text edit at %v: expected %q in [%d,%d), found %q", s.Path, s.Removed, s.From, s.To, got)
		}
		text := string(runes[:s.From]) + s.Inserted + string(runes[s.To:])
		return n.withText(text), nil
	})
}

func (s TextStep) Invert() Step {
	return TextStep{
		Path:     s.Path,
		From:     s.From,
		To:       s.From + runeLen(s.Inserted),
		Removed:  s.Inserted,
		Inserted: s.Removed,
	}
}

func (s TextStep) Rebase(prefix Path) Step {
	s.Path = s.Path.Prefix(prefix)
	return s
}

// Merge joins consecutive typing or consecutive backspacing in the same
// text node.
func (s TextStep) Merge(next Step) (Step, bool) {
	n, ok := next.(TextStep)
	if !ok || !n.Path.Equal(s.Path) {
		return nil, false
	}
	// Typing continues right after the inserted text.
	if n.Removed == "" && n.From == s.From+runeLen(s.Inserted) {
		return TextStep{
			Path:     s.Path,
			From:     s.From,
			To:       s.To,
			Removed:  s.Removed,
			Inserted: s.Inserted + n.Inserted,
		}, true
	}
	// Backspacing ends where the previous deletion started.
	if s.Inserted == "" && n.Inserted == "" && n.To == s.From {
		return TextStep{
			Path:    s.Path,
			From:    n.From,
			To:      s.To,
			Removed: n.Removed + s.Removed,
		}, true
	}
	return nil, false
}

// AttrStep sets attributes on the node at Path. A nil value removes the
// attribute. Prev holds the values being replaced, nil for absent ones.
type AttrStep struct {
	Path  Path
	Attrs map[string]any
	Prev  map[string]any
}

func (AttrStep) step()        {}
func (AttrStep) Kind() string { return StepAttrs }

func (s AttrStep) Apply(doc *Node) (*Node, error) {
	return update(doc, s.Path, func(n *Node) (*Node, error) {
		for k, want := range s.Prev {
			got, present := n.Attrs[k]
			if want == nil && present {
				return nil, fmt.Errorf("attrs at %v: expected %q to be unset, found %v", s.Path, k, got)
			}
			if want != nil && !reflect.DeepEqual(got, want) {
				return nil, fmt.Errorf("attrs at %v: expected %q = %v, found %v", s.Path, k, want, got)
			}
		}
		attrs := maps.Clone(n.Attrs)
		if attrs == nil {
			attrs = make(map[string]any, len(s.Attrs))
		}
		for k, v := range s.Attrs {
			if v == nil {
				delete(attrs, k)
				continue
			}
			attrs[k] = v
		}
		return n.withAttrs(attrs), nil
	})
}

func (s AttrStep) Invert() Step {
	return AttrStep{Path: s.Path, Attrs: s.Prev, Prev: s.Attrs}
}

func (s AttrStep) Rebase(prefix Path) Step {
	s.Path = s.Path.Prefix(prefix)
	return s
}

func (s AttrStep) Merge(Step) (Step, bool) { return nil, false }

func runeLen(s string) int {
	return len([]rune(s))
}
