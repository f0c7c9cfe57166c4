// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownField is returned when a field name does not exist on an entity.
var ErrUnknownField = errors.New("unknown field")

// Object is an entity whose fields are addressable by their wire name, the
// name used in dot-separated change paths (e.g. "firstName").
// Implementations are values; Set returns a modified copy.
type Object interface {
	// Fields returns the addressable field names in a stable order.
	Fields() []string

	// Get returns the value of the named field.
	Get(field string) (any, bool)

	// Set returns a copy of the entity with the named field replaced. The
	// value may be of the field's Go type or a json.RawMessage holding it.
	Set(field string, v any) (Object, error)

	// Zero returns the zero value of the named field's type.
	Zero(field string) (any, bool)
}

// List is an ordered collection of entities or strings addressable by
// index. Every operation returns a new list.
type List interface {
	Len() int
	At(i int) any

	// Zero returns the zero value of the element type.
	Zero() any

	Insert(i int, v any) (List, error)
	Replace(i int, v any) (List, error)
	Remove(i int) (List, error)

	// Permute returns the list reordered so element i of the result is
	// element order[i] of the receiver.
	Permute(order []int) (List, error)

	// Value returns the underlying slice.
	Value() any
}

// As converts v to T. It accepts a T, a json.RawMessage holding a T, or nil
// (the zero T).
func As[T any](v any) (T, error) {
	var zero T
	switch x := v.(type) {
	case T:
		return x, nil
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(x, &out); err != nil {
			return zero, fmt.Errorf("decoding %T: %w", zero, err)
		}
		return out, nil
	case nil:
		return zero, nil
	}
	return zero, fmt.Errorf("cannot use %T as %T", v, zero)
}

// ListOf returns the List view of v if v is one of the manuscript's list
// types.
func ListOf(v any) (List, bool) {
	switch s := v.(type) {
	case []string:
		return items[string](s), true
	case []Person:
		return items[Person](s), true
	case []Affiliation:
		return items[Affiliation](s), true
	case []Reference:
		return items[Reference](s), true
	case []ReferenceAuthor:
		return items[ReferenceAuthor](s), true
	case []RelatedArticle:
		return items[RelatedArticle](s), true
	case []Keyword:
		return items[Keyword](s), true
	}
	return nil, false
}

type items[T any] []T

func (l items[T]) Len() int     { return len(l) }
func (l items[T]) At(i int) any { return l[i] }

func (l items[T]) Zero() any {
	var zero T
	return zero
}

func (l items[T]) Value() any {
	if len(l) == 0 {
		return []T(nil)
	}
	return []T(l)
}

func (l items[T]) Insert(i int, v any) (List, error) {
	if i < 0 || i > len(l) {
		return nil, fmt.Errorf("insert index %d out of range (length %d)", i, len(l))
	}
	x, err := As[T](v)
	if err != nil {
		return nil, err
	}
	return items[T](slices.Insert(slices.Clone(l), i, x)), nil
}

func (l items[T]) Replace(i int, v any) (List, error) {
	if i < 0 || i >= len(l) {
		return nil, fmt.Errorf("index %d out of range (length %d)", i, len(l))
	}
	x, err := As[T](v)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(l)
	out[i] = x
	return out, nil
}

func (l items[T]) Remove(i int) (List, error) {
	if i < 0 || i >= len(l) {
		return nil, fmt.Errorf("remove index %d out of range (length %d)", i, len(l))
	}
	return items[T](slices.Delete(slices.Clone(l), i, i+1)), nil
}

func (l items[T]) Permute(order []int) (List, error) {
	if len(order) != len(l) {
		return nil, fmt.Errorf("permutation of length %d for list of length %d", len(order), len(l))
	}
	seen := make([]bool, len(l))
	out := make(items[T], len(l))
	for i, j := range order {
		if j < 0 || j >= len(l) || seen[j] {
			return nil, fmt.Errorf("invalid permutation %v", order)
		}
		seen[j] = true
		out[i] = l[j]
	}
	return out, nil
}

// accessor reads and writes one field of a T.
type accessor[T any] interface {
	get(t *T) any
	set(t *T, v any) error
	zero() any
}

type ref[T, V any] func(*T) *V

func (r ref[T, V]) get(t *T) any { return *r(t) }

func (r ref[T, V]) zero() any {
	var zero V
	return zero
}

func (r ref[T, V]) set(t *T, v any) error {
	x, err := As[V](v)
	if err != nil {
		return err
	}
	*r(t) = x
	return nil
}

type fieldEntry[T any] struct {
	name string
	acc  accessor[T]
}

func field[T, V any](name string, r func(*T) *V) fieldEntry[T] {
	return fieldEntry[T]{name: name, acc: ref[T, V](r)}
}

// fieldTable implements Object for a struct type from a list of named
// field references.
type fieldTable[T any] struct {
	names  []string
	byName map[string]accessor[T]
}

func newFieldTable[T any](entries ...fieldEntry[T]) fieldTable[T] {
	t := fieldTable[T]{byName: make(map[string]accessor[T], len(entries))}
	for _, e := range entries {
		t.names = append(t.names, e.name)
		t.byName[e.name] = e.acc
	}
	return t
}

func (t fieldTable[T]) fields() []string { return slices.Clone(t.names) }

func (t fieldTable[T]) get(v T, name string) (any, bool) {
	acc, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return acc.get(&v), true
}

func (t fieldTable[T]) set(v T, name string, x any) (T, error) {
	acc, ok := t.byName[name]
	if !ok {
		return v, fmt.Errorf("%w %q on %T", ErrUnknownField, name, v)
	}
	if err := acc.set(&v, x); err != nil {
		return v, fmt.Errorf("setting %s: %w", name, err)
	}
	return v, nil
}

// setField sets a field through t and returns the result as an Object.
func setField[T Object](t fieldTable[T], v T, name string, x any) (Object, error) {
	out, err := t.set(v, name, x)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t fieldTable[T]) zero(name string) (any, bool) {
	acc, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return acc.zero(), true
}
