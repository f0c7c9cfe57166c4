// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docpath

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

func testManuscript() types.Manuscript {
	return types.Manuscript{
		ID:       "m1",
		Abstract: richtext.Text("An abstract"),
		Authors: []types.Person{
			{ID: "a1", FirstName: "Ada", LastName: "Lovelace", Affiliations: []string{"x1"}},
			{ID: "a2", FirstName: "Alan", LastName: "Turing"},
		},
		Affiliations: []types.Affiliation{{ID: "x1", Label: "1", Institution: "Analytical Society"}},
		KeywordGroups: types.KeywordGroups{
			"kwd-group": {Keywords: []types.Keyword{{ID: "k1", Content: richtext.Text("banana")}}},
		},
		ArticleInfo: types.ArticleInformation{LicenseType: "CC-BY-4", PublishedDate: "2024-03-01"},
	}
}

func TestPath_WireForm(t *testing.T) {
	p := Parse("authors.0.affiliations")
	assert.Equal(t, Path{"authors", "0", "affiliations"}, p)
	assert.Equal(t, "authors.0.affiliations", p.String())
	assert.Equal(t, p, Path{"authors"}.Index(0).Field("affiliations"))
	assert.Nil(t, Parse(""))

	data, err := json.Marshal(struct {
		Path Path `json:"path"`
	}{p})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"authors.0.affiliations"}`, string(data))
}

func TestPath_Relations(t *testing.T) {
	p := Parse("keywordGroups.kwd-group.newKeyword.content")
	assert.True(t, p.HasPrefix(Parse("keywordGroups.kwd-group")))
	assert.True(t, p.HasPrefix(nil))
	assert.False(t, p.HasPrefix(Parse("keywordGroups.other")))

	rel, ok := p.Rel(Parse("keywordGroups.kwd-group"))
	require.True(t, ok)
	assert.Equal(t, Path{"newKeyword", "content"}, rel)

	parent, last, ok := p.Parent()
	require.True(t, ok)
	assert.Equal(t, "content", last)
	assert.Equal(t, "keywordGroups.kwd-group.newKeyword", parent.String())
}

func TestGet(t *testing.T) {
	m := testManuscript()
	tests := []struct {
		path string
		want any
	}{
		{"id", "m1"},
		{"authors.1.lastName", "Turing"},
		{"authors.0.affiliations.0", "x1"},
		{"keywordGroups.kwd-group.keywords.0.id", "k1"},
		{"articleInfo.licenseType", "CC-BY-4"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Get(m, Parse(tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_Errors(t *testing.T) {
	m := testManuscript()

	_, err := Get(m, Parse("authors.5"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Get(m, Parse("nonsense"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Get(m, Parse("id.length"))
	var typeErr *TypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "id.length", typeErr.Path.String())
}

func TestSet_CopiesPathOnly(t *testing.T) {
	m := testManuscript()
	out, err := Update(m, Parse("authors.1.lastName"), "Hopper")
	require.NoError(t, err)

	assert.Equal(t, "Hopper", out.Authors[1].LastName)
	assert.Equal(t, "Turing", m.Authors[1].LastName, "input must not be modified")
	assert.Same(t, m.Abstract, out.Abstract, "untouched fields are shared")
}

func TestSet_DecodesRawValues(t *testing.T) {
	m := testManuscript()
	out, err := Update(m, Parse("affiliations.0"), json.RawMessage(`{"id":"x1","label":"1","institution":"Royal Society"}`))
	require.NoError(t, err)
	assert.Equal(t, "Royal Society", out.Affiliations[0].Institution)

	out, err = Update(m, Parse("keywordGroups.new-group"), json.RawMessage(`{"title":"New"}`))
	require.NoError(t, err)
	assert.Equal(t, "New", out.KeywordGroups["new-group"].Title)
	assert.NotContains(t, m.KeywordGroups, "new-group")
}

func TestSet_TypeMismatch(t *testing.T) {
	m := testManuscript()
	_, err := Update(m, Parse("authors.0.firstName"), 42)
	var typeErr *TypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "string", typeErr.Want)
}

func TestGetField(t *testing.T) {
	m := testManuscript()
	f, err := GetField(m, Parse("abstract"))
	require.NoError(t, err)
	assert.Same(t, m.Abstract, f)

	empty, err := GetField(m, Parse("body"))
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = GetField(m, Parse("authors"))
	var typeErr *TypeError
	assert.True(t, errors.As(err, &typeErr))
}

func TestListOperations(t *testing.T) {
	m := testManuscript()
	authors := Parse("authors")

	out, err := Append(m, authors, types.Person{ID: "a3", LastName: "Hopper"})
	require.NoError(t, err)
	assert.Len(t, out.Authors, 3)
	assert.Len(t, m.Authors, 2)

	i, err := IndexOf(out, authors, "id", "a3")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	i, err = IndexOf(out, authors, "id", "missing")
	require.NoError(t, err)
	assert.Equal(t, -1, i)

	out, err = Permute(out, authors, []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a1", "a2"}, []string{out.Authors[0].ID, out.Authors[1].ID, out.Authors[2].ID})

	out, err = RemoveAt(out, authors, 0)
	require.NoError(t, err)
	out, err = InsertAt(out, Parse("authors.1.affiliations"), 0, "x9")
	require.NoError(t, err)
	assert.Equal(t, []string{"x9"}, out.Authors[1].Affiliations)

	_, err = Permute(out, authors, []int{0, 0})
	assert.Error(t, err)
}

func TestListOperations_RejectNonLists(t *testing.T) {
	m := testManuscript()
	for _, p := range []string{"abstract", "articleInfo", "id"} {
		t.Run(p, func(t *testing.T) {
			_, err := Append(m, Parse(p), "x")
			var typeErr *TypeError
			require.True(t, errors.As(err, &typeErr))
			assert.Equal(t, "list", typeErr.Want)
		})
	}
}

func TestTyped(t *testing.T) {
	v, err := Typed(Parse("authors.7"), json.RawMessage(`{"id":"a9","lastName":"Noether"}`))
	require.NoError(t, err)
	assert.Equal(t, types.Person{ID: "a9", LastName: "Noether"}, v)

	v, err = Typed(Parse("keywordGroups.any.newKeyword.id"), json.RawMessage(`"k2"`))
	require.NoError(t, err)
	assert.Equal(t, "k2", v)

	v, err = Typed(Parse("abstract"), json.RawMessage(`{"type":"doc","content":[{"type":"paragraph"}]}`))
	require.NoError(t, err)
	assert.IsType(t, &richtext.Field{}, v)

	_, err = Typed(Parse("abstract.content"), json.RawMessage(`1`))
	var typeErr *TypeError
	assert.True(t, errors.As(err, &typeErr))
}
