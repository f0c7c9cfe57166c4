// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_GetSet(t *testing.T) {
	p := Person{ID: "a1", FirstName: "Ada"}

	v, ok := p.Get("firstName")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)

	out, err := p.Set("lastName", "Lovelace")
	require.NoError(t, err)
	assert.Equal(t, Person{ID: "a1", FirstName: "Ada", LastName: "Lovelace"}, out)
	assert.Empty(t, p.LastName, "Set must return a copy")

	_, err = p.Set("nickname", "x")
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = p.Set("isCorrespondingAuthor", "yes")
	assert.Error(t, err)
}

func TestObject_FieldsAreStable(t *testing.T) {
	assert.Equal(t, []string{"id", "label", "institution", "department", "city", "country"}, Affiliation{}.Fields())
	assert.Equal(t, []string{"a", "b"}, KeywordGroups{"b": {}, "a": {}}.Fields())
}

func TestAs(t *testing.T) {
	got, err := As[Affiliation](json.RawMessage(`{"id":"x1","label":"2"}`))
	require.NoError(t, err)
	assert.Equal(t, Affiliation{ID: "x1", Label: "2"}, got)

	s, err := As[string](nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	_, err = As[[]string]("x")
	assert.Error(t, err)
}

func TestListOf(t *testing.T) {
	l, ok := ListOf([]string{"a", "b", "c"})
	require.True(t, ok)

	ins, err := l.Insert(1, "z")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z", "b", "c"}, ins.Value())
	assert.Equal(t, []string{"a", "b", "c"}, l.Value(), "insert must not modify the receiver")

	perm, err := l.Permute([]int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, perm.Value())

	empty, err := l.Remove(0)
	require.NoError(t, err)
	empty, _ = empty.Remove(0)
	empty, _ = empty.Remove(0)
	assert.Nil(t, empty.Value())

	_, err = l.Remove(3)
	assert.Error(t, err)
	_, err = l.Insert(0, 7)
	assert.Error(t, err)

	_, ok = ListOf("not a list")
	assert.False(t, ok)
}
