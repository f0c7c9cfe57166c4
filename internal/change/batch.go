// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package change

import (
	"fmt"
	"reflect"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// BatchChange applies its members in order and rolls them back in reverse
// order, as one unit.
type BatchChange struct {
	base
	Changes []Change
}

// NewBatchChange returns a batch of the non-empty changes given.
func NewBatchChange(changes ...Change) *BatchChange {
	var kept []Change
	for _, c := range changes {
		if c != nil && !c.IsEmpty() {
			kept = append(kept, c)
		}
	}
	return &BatchChange{base: newBase(nil), Changes: kept}
}

func (c *BatchChange) Type() string  { return TypeBatch }
func (c *BatchChange) IsEmpty() bool { return len(c.Changes) == 0 }

// Apply applies every member. If one fails the input manuscript is returned
// with the error; nothing is partially applied.
func (c *BatchChange) Apply(m types.Manuscript) (types.Manuscript, Change, error) {
	next := m
	applied := &BatchChange{base: c.base, Changes: make([]Change, 0, len(c.Changes))}
	for i, member := range c.Changes {
		out, done, err := member.Apply(next)
		if err != nil {
			return m, nil, fmt.Errorf("batch member %d (%s): %w", i, member.Type(), err)
		}
		next = out
		applied.Changes = append(applied.Changes, done)
	}
	return next, applied, nil
}

func (c *BatchChange) Rollback(m types.Manuscript) (types.Manuscript, error) {
	next := m
	for i := len(c.Changes) - 1; i >= 0; i-- {
		var err error
		if next, err = c.Changes[i].Rollback(next); err != nil {
			return m, fmt.Errorf("rolling back batch member %d (%s): %w", i, c.Changes[i].Type(), err)
		}
	}
	return next, nil
}

// UpdateObjectFromTwoObjects compares two versions of the entity at path.
// Plain fields become one UpdateObjectChange. A rich-text field holding a
// different document in both versions becomes a ProsemirrorChange against
// that field instead of a plain difference. Both are combined in one batch.
func UpdateObjectFromTwoObjects(path docpath.Path, before, after types.Object) (*BatchChange, error) {
	if reflect.TypeOf(before) != reflect.TypeOf(after) {
		return nil, fmt.Errorf("comparing %T with %T", before, after)
	}
	var diffs []Difference
	var textChanges []Change
	for _, name := range before.Fields() {
		oldV, _ := before.Get(name)
		newV, _ := after.Get(name)
		oldF, oldRich := oldV.(*richtext.Field)
		newF, newRich := newV.(*richtext.Field)
		if oldRich && newRich && oldF != nil && newF != nil {
			if oldF == newF {
				continue
			}
			tx, err := richtext.ReplaceDocument(oldF, newF)
			if err != nil {
				return nil, fmt.Errorf("diffing %s: %w", path.Field(name).String(), err)
			}
			textChanges = append(textChanges, NewProsemirrorChange(path.Field(name), tx))
			continue
		}
		if !deepEqual(oldV, newV) {
			diffs = append(diffs, Difference{Field: name, Old: oldV, New: newV})
		}
	}
	members := append([]Change{NewUpdateObjectChange(path, diffs...)}, textChanges...)
	return NewBatchChange(members...), nil
}
