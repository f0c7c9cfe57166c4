// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package change

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
)

// ReduceHistory folds timestamped diffs into one diff per path, keyed by the
// path's dot form. Diffs are taken in timestamp order; diffs sharing a
// timestamp keep their order in the input. Steps for the same path are
// concatenated; an object diff replaces whatever the path held. Steps
// arriving after an object diff are applied to the object's field value.
//
// Every reduced diff remembers the stream position of the last diff folded
// into it, which CompressChanges uses to order diffs sharing a timestamp.
func ReduceHistory(diffs []Diff) (map[string]Diff, error) {
	ordered := slices.Clone(diffs)
	slices.SortStableFunc(ordered, func(a, b Diff) int { return cmp.Compare(a.Timestamp, b.Timestamp) })

	out := make(map[string]Diff, len(ordered))
	for i, d := range ordered {
		d.order = i + 1
		key := d.Path.String()
		prev, ok := out[key]
		if !ok || d.Type == TypeObject {
			out[key] = d
			continue
		}
		switch prev.Type {
		case TypeSteps:
			prev.Steps = append(slices.Clone(prev.Steps), d.Steps...)
		case TypeObject:
			v, err := applyStepsToValue(prev.Value, nil, d)
			if err != nil {
				return nil, err
			}
			prev.Value = v
		}
		prev.Timestamp = d.Timestamp
		prev.order = d.order
		out[key] = prev
	}
	return out, nil
}

// CompressChanges merges every diff whose path lies below another changed
// path into the top-most such ancestor, so the result holds no two paths
// where one is a prefix of the other. Descendants are merged in stream
// order; a descendant that came before its ancestor is dropped because the
// ancestor's value already supersedes it. Within one timestamp, stream order
// is the order ReduceHistory saw the diffs in.
//
// An object descendant is deep-set into the ancestor's value at the
// relative path. A steps descendant is replayed against the rich-text field
// found there; anything else there is a *docpath.TypeError.
func CompressChanges(changes map[string]Diff) (map[string]Diff, error) {
	paths := make([]docpath.Path, 0, len(changes))
	for _, d := range changes {
		paths = append(paths, d.Path)
	}

	out := make(map[string]Diff, len(changes))
	var below []Diff
	for key, d := range changes {
		if _, nested := topAncestor(paths, d.Path); !nested {
			out[key] = d
		} else {
			below = append(below, d)
		}
	}
	slices.SortStableFunc(below, func(a, b Diff) int {
		if c := streamOrder(a, b); c != 0 {
			return c
		}
		return cmp.Compare(len(a.Path), len(b.Path))
	})

	for _, d := range below {
		root, _ := topAncestor(paths, d.Path)
		key := root.String()
		anc := out[key]
		if streamOrder(d, anc) < 0 {
			continue
		}
		if anc.Type != TypeObject {
			return nil, &docpath.TypeError{Path: anc.Path, Want: "object diff", Got: anc.Type + " diff"}
		}
		rel, _ := d.Path.Rel(anc.Path)
		var err error
		switch d.Type {
		case TypeObject:
			anc.Value, err = docpath.Set(anc.Value, rel, d.Value)
		case TypeSteps:
			anc.Value, err = applyStepsToValue(anc.Value, rel, d)
		default:
			err = fmt.Errorf("unknown diff type %q", d.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("merging %q into %q: %w", d.Path.String(), key, err)
		}
		anc.Timestamp = d.Timestamp
		anc.order = d.order
		out[key] = anc
	}
	return out, nil
}

// streamOrder compares two diffs by timestamp, then by stream position.
// Diffs that never went through ReduceHistory have no position and compare
// equal within a timestamp.
func streamOrder(a, b Diff) int {
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	if a.order == 0 || b.order == 0 {
		return 0
	}
	return cmp.Compare(a.order, b.order)
}

// Sorted returns the diffs of a compressed set in stream order, remaining
// ties broken by path.
func Sorted(changes map[string]Diff) []Diff {
	out := make([]Diff, 0, len(changes))
	for _, d := range changes {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Diff) int {
		if c := streamOrder(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.Path.String(), b.Path.String())
	})
	return out
}

// topAncestor returns the shortest path in paths that is a proper prefix of p.
func topAncestor(paths []docpath.Path, p docpath.Path) (docpath.Path, bool) {
	var best docpath.Path
	found := false
	for _, q := range paths {
		if len(q) < len(p) && p.HasPrefix(q) && (!found || len(q) < len(best)) {
			best, found = q, true
		}
	}
	return best, found
}

func applyStepsToValue(root any, rel docpath.Path, d Diff) (any, error) {
	f, err := docpath.GetField(root, rel)
	if err != nil {
		return nil, err
	}
	doc, err := richtext.ApplySteps(f.Doc, d.Steps)
	if err != nil {
		return nil, fmt.Errorf("applying steps at %q: %w", d.Path.String(), err)
	}
	return docpath.Set(root, rel, f.WithDoc(doc))
}
