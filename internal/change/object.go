// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package change

import (
	"fmt"
	"log/slog"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// AddObjectChange appends Object to the list at its path. Rollback removes
// the last element whose IDField matches.
type AddObjectChange struct {
	base
	Object  any
	IDField string
}

// NewAddObjectChange returns a change appending object to the list at path.
func NewAddObjectChange(path docpath.Path, object any, idField string) *AddObjectChange {
	return &AddObjectChange{base: newBase(path), Object: object, IDField: idField}
}

func (c *AddObjectChange) Type() string  { return TypeAddObject }
func (c *AddObjectChange) IsEmpty() bool { return false }

func (c *AddObjectChange) Apply(m types.Manuscript) (types.Manuscript, Change, error) {
	next, err := docpath.Append(m, c.path, c.Object)
	if err != nil {
		return m, nil, err
	}
	return next, c, nil
}

func (c *AddObjectChange) Rollback(m types.Manuscript) (types.Manuscript, error) {
	l, err := docpath.GetList(m, c.path)
	if err != nil {
		return m, err
	}
	id := docpath.ElementID(c.Object, c.IDField)
	for i := l.Len() - 1; i >= 0; i-- {
		if docpath.ElementID(l.At(i), c.IDField) == id {
			return docpath.RemoveAt(m, c.path, i)
		}
	}
	return m, fmt.Errorf("rolling back add at %q: %s %q: %w", c.path.String(), c.IDField, id, docpath.ErrNotFound)
}

// DeleteObjectChange removes the first element of the list at its path whose
// IDField matches Object's. RemovedIndex is -1 until the change is applied;
// the applied change records the index and the element removed so rollback
// re-inserts it in place.
type DeleteObjectChange struct {
	base
	Object       any
	IDField      string
	RemovedIndex int
}

// NewDeleteObjectChange returns a change removing object from the list at path.
func NewDeleteObjectChange(path docpath.Path, object any, idField string) *DeleteObjectChange {
	return &DeleteObjectChange{base: newBase(path), Object: object, IDField: idField, RemovedIndex: -1}
}

func (c *DeleteObjectChange) Type() string  { return TypeDeleteObject }
func (c *DeleteObjectChange) IsEmpty() bool { return false }

// Apply removes the matching element. An absent element is not an error:
// the manuscript is returned unchanged and the applied change keeps
// RemovedIndex -1, so rolling it back fails with ErrNotRecorded.
func (c *DeleteObjectChange) Apply(m types.Manuscript) (types.Manuscript, Change, error) {
	id := docpath.ElementID(c.Object, c.IDField)
	i, err := docpath.IndexOf(m, c.path, c.IDField, id)
	if err != nil {
		return m, nil, err
	}
	applied := *c
	if i < 0 {
		slog.Warn("delete of absent object", "path", c.path.String(), "idField", c.IDField, "id", id)
		applied.RemovedIndex = -1
		return m, &applied, nil
	}
	l, err := docpath.GetList(m, c.path)
	if err != nil {
		return m, nil, err
	}
	next, err := docpath.RemoveAt(m, c.path, i)
	if err != nil {
		return m, nil, err
	}
	applied.Object = l.At(i)
	applied.RemovedIndex = i
	return next, &applied, nil
}

func (c *DeleteObjectChange) Rollback(m types.Manuscript) (types.Manuscript, error) {
	if c.RemovedIndex < 0 {
		return m, fmt.Errorf("rolling back delete at %q: %w", c.path.String(), ErrNotRecorded)
	}
	return docpath.InsertAt(m, c.path, c.RemovedIndex, c.Object)
}

// Difference is a top-level field difference of one entity.
type Difference struct {
	Field string
	Old   any
	New   any
}

// UpdateObjectChange sets fields of the entity at its path.
type UpdateObjectChange struct {
	base
	Differences []Difference
}

// NewUpdateObjectChange returns a change applying diffs to the entity at
// path. Differences whose old and new values are equal are dropped.
func NewUpdateObjectChange(path docpath.Path, diffs ...Difference) *UpdateObjectChange {
	var kept []Difference
	for _, d := range diffs {
		if !deepEqual(d.Old, d.New) {
			kept = append(kept, d)
		}
	}
	return &UpdateObjectChange{base: newBase(path), Differences: kept}
}

func (c *UpdateObjectChange) Type() string  { return TypeUpdateObject }
func (c *UpdateObjectChange) IsEmpty() bool { return len(c.Differences) == 0 }

func (c *UpdateObjectChange) Apply(m types.Manuscript) (types.Manuscript, Change, error) {
	next := m
	for _, d := range c.Differences {
		var err error
		if next, err = docpath.Update(next, c.path.Field(d.Field), d.New); err != nil {
			return m, nil, err
		}
	}
	return next, c, nil
}

func (c *UpdateObjectChange) Rollback(m types.Manuscript) (types.Manuscript, error) {
	next := m
	for i := len(c.Differences) - 1; i >= 0; i-- {
		d := c.Differences[i]
		var err error
		if next, err = docpath.Update(next, c.path.Field(d.Field), d.Old); err != nil {
			return m, err
		}
	}
	return next, nil
}

// RearrangingChange reorders the list at its path: element i of the result
// is element Order[i] of the original.
type RearrangingChange struct {
	base
	Order []int
}

// NewRearrangingChange returns a change permuting the list at path.
func NewRearrangingChange(path docpath.Path, order []int) *RearrangingChange {
	return &RearrangingChange{base: newBase(path), Order: order}
}

// RearrangingFromItemMoved returns the change moving the element at oldIndex
// to newIndex, shifting the elements in between by one.
func RearrangingFromItemMoved[T any](path docpath.Path, oldIndex, newIndex int, collection []T) (*RearrangingChange, error) {
	n := len(collection)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return nil, fmt.Errorf("moving item %d to %d in list of length %d: index out of range", oldIndex, newIndex, n)
	}
	order := make([]int, 0, n)
	for i := range n {
		if i != oldIndex {
			order = append(order, i)
		}
	}
	order = append(order[:newIndex], append([]int{oldIndex}, order[newIndex:]...)...)
	return NewRearrangingChange(path, order), nil
}

// RearrangingFromListRearrange returns the change turning oldOrder into
// newOrder. Elements are matched by key; newOrder must be a permutation of
// oldOrder.
func RearrangingFromListRearrange[T any](path docpath.Path, oldOrder, newOrder []T, key func(T) string) (*RearrangingChange, error) {
	if len(oldOrder) != len(newOrder) {
		return nil, fmt.Errorf("rearranging %d elements into %d", len(oldOrder), len(newOrder))
	}
	positions := make(map[string]int, len(oldOrder))
	for i, v := range oldOrder {
		k := key(v)
		if _, dup := positions[k]; dup {
			return nil, fmt.Errorf("rearranging: duplicate element %q", k)
		}
		positions[k] = i
	}
	order := make([]int, len(newOrder))
	for i, v := range newOrder {
		k := key(v)
		j, ok := positions[k]
		if !ok {
			return nil, fmt.Errorf("rearranging: element %q is not in the original list", k)
		}
		delete(positions, k)
		order[i] = j
	}
	return NewRearrangingChange(path, order), nil
}

func (c *RearrangingChange) Type() string { return TypeRearranging }

func (c *RearrangingChange) IsEmpty() bool {
	for i, j := range c.Order {
		if i != j {
			return false
		}
	}
	return true
}

func (c *RearrangingChange) Apply(m types.Manuscript) (types.Manuscript, Change, error) {
	next, err := docpath.Permute(m, c.path, c.Order)
	if err != nil {
		return m, nil, err
	}
	return next, c, nil
}

func (c *RearrangingChange) Rollback(m types.Manuscript) (types.Manuscript, error) {
	inverse := make([]int, len(c.Order))
	for i, j := range c.Order {
		if j < 0 || j >= len(c.Order) {
			return m, fmt.Errorf("rolling back rearrange at %q: invalid order %v", c.path.String(), c.Order)
		}
		inverse[j] = i
	}
	return docpath.Permute(m, c.path, inverse)
}
