// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docpath

import (
	"fmt"

	"github.com/pdiddy/manuscript-history/pkg/types"
)

// GetList returns the list at p. A value that is not a list is a TypeError.
func GetList(root any, p Path) (types.List, error) {
	v, err := Get(root, p)
	if err != nil {
		return nil, err
	}
	l, ok := types.ListOf(v)
	if !ok {
		return nil, &TypeError{Path: p, Want: "list", Got: typeName(v)}
	}
	return l, nil
}

// Len returns the length of the list at p.
func Len(m types.Manuscript, p Path) (int, error) {
	l, err := GetList(m, p)
	if err != nil {
		return 0, err
	}
	return l.Len(), nil
}

// IndexOf returns the index of the first element of the list at p whose
// idField equals id, or -1. For lists of strings idField is ignored and the
// element itself is compared.
func IndexOf(m types.Manuscript, p Path, idField, id string) (int, error) {
	l, err := GetList(m, p)
	if err != nil {
		return -1, err
	}
	for i := range l.Len() {
		if ElementID(l.At(i), idField) == id {
			return i, nil
		}
	}
	return -1, nil
}

// ElementID returns the idField of an entity, or the value itself for
// strings.
func ElementID(v any, idField string) string {
	switch x := v.(type) {
	case string:
		return x
	case types.Object:
		id, _ := x.Get(idField)
		s, _ := id.(string)
		return s
	}
	return ""
}

// Append returns a copy of m with v appended to the list at p.
func Append(m types.Manuscript, p Path, v any) (types.Manuscript, error) {
	return updateList(m, p, func(l types.List) (types.List, error) {
		return l.Insert(l.Len(), v)
	})
}

// InsertAt returns a copy of m with v inserted at index i of the list at p.
func InsertAt(m types.Manuscript, p Path, i int, v any) (types.Manuscript, error) {
	return updateList(m, p, func(l types.List) (types.List, error) {
		return l.Insert(i, v)
	})
}

// RemoveAt returns a copy of m without element i of the list at p.
func RemoveAt(m types.Manuscript, p Path, i int) (types.Manuscript, error) {
	return updateList(m, p, func(l types.List) (types.List, error) {
		return l.Remove(i)
	})
}

// Permute returns a copy of m with the list at p reordered so element i is
// the former element order[i].
func Permute(m types.Manuscript, p Path, order []int) (types.Manuscript, error) {
	return updateList(m, p, func(l types.List) (types.List, error) {
		return l.Permute(order)
	})
}

func updateList(m types.Manuscript, p Path, fn func(types.List) (types.List, error)) (types.Manuscript, error) {
	l, err := GetList(m, p)
	if err != nil {
		return m, err
	}
	next, err := fn(l)
	if err != nil {
		return m, fmt.Errorf("list at %q: %w", p.String(), err)
	}
	return Update(m, p, next.Value())
}
