// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package change

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

func typing(t *testing.T, f *richtext.Field, offset int, text string) []richtext.Step {
	t.Helper()
	b := richtext.NewBuilder(f)
	require.NoError(t, b.InsertText(richtext.Path{0, 0}, offset, text))
	return b.Transaction().Steps
}

func TestDiffs_ReplayReproducesChange(t *testing.T) {
	base := testManuscript()
	c := NewBatchChange(
		NewProsemirrorChange(docpath.Path{"title"}, titleEdit(t, base)),
		NewAddObjectChange(docpath.Path{"affiliations"}, types.Affiliation{ID: "x3", Institution: "Bletchley Park"}, "id"),
		NewUpdateObjectChange(docpath.Path{"authors", "1"}, Difference{Field: "affiliations", Old: []string{"x1", "x2"}, New: []string{"x3"}}),
		NewDeleteObjectChange(docpath.Path{"relatedArticles"}, types.RelatedArticle{ID: "ra1"}, "id"),
	)
	after, applied, err := c.Apply(base)
	require.NoError(t, err)

	diffs, err := Diffs(applied, after)
	require.NoError(t, err)
	require.Len(t, diffs, 4)
	assert.Equal(t, TypeSteps, diffs[0].Type)
	assert.Equal(t, TypeObject, diffs[1].Type)
	assert.Equal(t, "authors.1.affiliations", diffs[2].Path.String())

	replayed, err := ApplyDiffs(base, diffs)
	require.NoError(t, err)
	assertManuscriptEqual(t, after, replayed)

	inverse, err := InverseDiffs(applied, base)
	require.NoError(t, err)
	restored, err := ApplyDiffs(after, inverse)
	require.NoError(t, err)
	assertManuscriptEqual(t, base, restored)
}

func TestDiff_JSONRoundTrip(t *testing.T) {
	base := testManuscript()
	diffs := []Diff{
		{Type: TypeSteps, Path: docpath.Path{"title"}, Timestamp: 10, Steps: typing(t, base.Title, 0, "Re: ")},
		{Type: TypeObject, Path: docpath.Path{"authors", "0"}, Timestamp: 11, Value: types.Person{ID: "a1", LastName: "King"}},
		{Type: TypeObject, Path: docpath.Path{"articleInfo", "volume"}, Timestamp: 12, Value: "7"},
	}
	data, err := json.Marshal(diffs)
	require.NoError(t, err)

	decoded, err := UnmarshalDiffs(richtext.DefaultSchema, data)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.Equal(t, diffs[1].Value, decoded[1].Value)
	assert.Equal(t, "7", decoded[2].Value)

	want, err := ApplyDiffs(base, diffs)
	require.NoError(t, err)
	got, err := ApplyDiffs(base, decoded)
	require.NoError(t, err)
	assertManuscriptEqual(t, want, got)
}

func TestApplyDiff_StepsAgainstPlainValue(t *testing.T) {
	m := testManuscript()
	d := Diff{Type: TypeSteps, Path: docpath.Path{"authors"}, Steps: typing(t, m.Title, 0, "x")}

	out, err := ApplyDiff(m, d)
	var typeErr *docpath.TypeError
	require.True(t, errors.As(err, &typeErr), "got %v", err)
	assert.Equal(t, "rich-text field", typeErr.Want)
	assertManuscriptEqual(t, m, out)
}

func TestReduceHistory(t *testing.T) {
	m := testManuscript()
	first := typing(t, m.Title, 7, "s")
	afterFirst, err := richtext.ApplySteps(m.Title.Doc, first)
	require.NoError(t, err)
	second := typing(t, m.Title.WithDoc(afterFirst), 8, "!")

	draft := richtext.Text("ap")
	diffs := []Diff{
		{Type: TypeSteps, Path: docpath.Path{"title"}, Timestamp: 2, Steps: second},
		{Type: TypeSteps, Path: docpath.Path{"title"}, Timestamp: 1, Steps: first},
		{Type: TypeObject, Path: docpath.Path{"articleInfo", "volume"}, Timestamp: 3, Value: "1"},
		{Type: TypeObject, Path: docpath.Path{"articleInfo", "volume"}, Timestamp: 5, Value: "2"},
		{Type: TypeObject, Path: docpath.Path{"keywordGroups", "kwd-group", "newKeyword", "content"}, Timestamp: 6, Value: draft},
		{Type: TypeSteps, Path: docpath.Path{"keywordGroups", "kwd-group", "newKeyword", "content"}, Timestamp: 7, Steps: typing(t, draft, 2, "ple")},
	}

	reduced, err := ReduceHistory(diffs)
	require.NoError(t, err)
	require.Len(t, reduced, 3)

	title := reduced["title"]
	assert.Equal(t, first[0], title.Steps[0], "steps are taken in timestamp order")
	assert.Len(t, title.Steps, 2)
	assert.Equal(t, int64(2), title.Timestamp)

	assert.Equal(t, "2", reduced["articleInfo.volume"].Value)

	kw := reduced["keywordGroups.kwd-group.newKeyword.content"]
	assert.Equal(t, TypeObject, kw.Type)
	assert.Equal(t, "apple", richtext.TextContent(kw.Value.(*richtext.Field).Doc))
	assert.Equal(t, int64(7), kw.Timestamp)

	out, err := ApplyDiffs(m, Sorted(reduced))
	require.NoError(t, err)
	assert.Equal(t, "A titles!", richtext.TextContent(out.Title.Doc))
}

func TestCompressChanges(t *testing.T) {
	m := testManuscript()
	group := m.KeywordGroups["kwd-group"]
	group.Title = "Keywords"

	changes := map[string]Diff{
		"keywordGroups.kwd-group": {
			Type: TypeObject, Path: docpath.Parse("keywordGroups.kwd-group"), Timestamp: 10, Value: group,
		},
		"keywordGroups.kwd-group.newKeyword.content": {
			Type: TypeSteps, Path: docpath.Parse("keywordGroups.kwd-group.newKeyword.content"), Timestamp: 12,
			Steps: typing(t, richtext.Text("x"), 0, "kiwi"),
		},
		"keywordGroups.kwd-group.newKeyword.id": {
			Type: TypeObject, Path: docpath.Parse("keywordGroups.kwd-group.newKeyword.id"), Timestamp: 9, Value: "stale",
		},
		"keywordGroups.kwd-group.title": {
			Type: TypeObject, Path: docpath.Parse("keywordGroups.kwd-group.title"), Timestamp: 11, Value: "Author keywords",
		},
		"articleInfo.volume": {
			Type: TypeObject, Path: docpath.Parse("articleInfo.volume"), Timestamp: 4, Value: "3",
		},
	}
	// The steps were recorded against a draft holding "x".
	group.NewKeyword.Content = richtext.Text("x")
	g := changes["keywordGroups.kwd-group"]
	g.Value = group
	changes["keywordGroups.kwd-group"] = g

	compressed, err := CompressChanges(changes)
	require.NoError(t, err)
	require.Len(t, compressed, 2)
	assert.Contains(t, compressed, "articleInfo.volume")

	merged := compressed["keywordGroups.kwd-group"]
	assert.Equal(t, int64(12), merged.Timestamp)
	got := merged.Value.(types.KeywordGroup)
	assert.Equal(t, "Author keywords", got.Title)
	assert.Equal(t, "k-new", got.NewKeyword.ID, "older descendant is dropped")
	assert.Equal(t, "kiwix", richtext.TextContent(got.NewKeyword.Content.Doc))

	sorted := Sorted(compressed)
	assert.Equal(t, "articleInfo.volume", sorted[0].Path.String())
}

func TestCompressChanges_StepsIntoPlainValue(t *testing.T) {
	m := testManuscript()
	changes := map[string]Diff{
		"authors.0": {Type: TypeObject, Path: docpath.Parse("authors.0"), Timestamp: 1, Value: m.Authors[0]},
		"authors.0.lastName": {
			Type: TypeSteps, Path: docpath.Parse("authors.0.lastName"), Timestamp: 2,
			Steps: typing(t, richtext.Text("x"), 0, "y"),
		},
	}
	_, err := CompressChanges(changes)
	var typeErr *docpath.TypeError
	assert.True(t, errors.As(err, &typeErr), "got %v", err)
}

func TestCompressChanges_RootObject(t *testing.T) {
	m := testManuscript()
	changes := map[string]Diff{
		"": {Type: TypeObject, Path: nil, Timestamp: 1, Value: m},
		"articleInfo.volume": {
			Type: TypeObject, Path: docpath.Parse("articleInfo.volume"), Timestamp: 2, Value: "5",
		},
	}
	compressed, err := CompressChanges(changes)
	require.NoError(t, err)
	require.Len(t, compressed, 1)
	assert.Equal(t, "5", compressed[""].Value.(types.Manuscript).ArticleInfo.Volume)
}

func TestCompress_UpdateThenSortInOneBatch(t *testing.T) {
	withClock(t, 1700000000000)
	base := testManuscript()
	base.References = append(base.References,
		types.Reference{ID: "bib2", Authors: []types.ReferenceAuthor{{LastName: "Wu"}}, Year: "2019"})

	// Renaming Smith to Zed moves bib1 after bib2; both members share a
	// timestamp.
	c := NewBatchChange(
		NewUpdateObjectChange(docpath.Path{"references", "0"}, Difference{
			Field: "authors",
			Old:   []types.ReferenceAuthor{{LastName: "Smith"}},
			New:   []types.ReferenceAuthor{{LastName: "Zed"}},
		}),
		NewRearrangingChange(docpath.Path{"references"}, []int{1, 0}),
	)
	after, applied, err := c.Apply(base)
	require.NoError(t, err)
	require.Equal(t, "bib2", after.References[0].ID)

	diffs, err := Diffs(applied, after)
	require.NoError(t, err)
	reduced, err := ReduceHistory(diffs)
	require.NoError(t, err)
	compressed, err := CompressChanges(reduced)
	require.NoError(t, err)
	require.Len(t, compressed, 1, "the field update folds into the list")

	replayed, err := ApplyDiffs(base, Sorted(compressed))
	require.NoError(t, err)
	assertManuscriptEqual(t, after, replayed)
	assert.Equal(t, "Wu", replayed.References[0].Authors[0].LastName)
}

func TestCompress_DescendantAfterAncestorInOneTimestamp(t *testing.T) {
	withClock(t, 1700000000000)
	base := testManuscript()

	c := NewBatchChange(
		NewAddObjectChange(docpath.Path{"relatedArticles"}, types.RelatedArticle{ID: "ra2", Href: "10.1/ra2"}, "id"),
		NewUpdateObjectChange(docpath.Path{"relatedArticles", "0"}, Difference{Field: "href", Old: "10.1/ra1", New: "10.1/ra1-v2"}),
	)
	after, applied, err := c.Apply(base)
	require.NoError(t, err)

	diffs, err := Diffs(applied, after)
	require.NoError(t, err)
	reduced, err := ReduceHistory(diffs)
	require.NoError(t, err)
	compressed, err := CompressChanges(reduced)
	require.NoError(t, err)

	replayed, err := ApplyDiffs(base, Sorted(compressed))
	require.NoError(t, err)
	assertManuscriptEqual(t, after, replayed)
}

func TestReduceHistory_TiesKeepStreamOrder(t *testing.T) {
	diffs := []Diff{
		{Type: TypeObject, Path: docpath.Parse("articleInfo.volume"), Timestamp: 5, Value: "1"},
		{Type: TypeObject, Path: docpath.Parse("articleInfo.doi"), Timestamp: 5, Value: "10.7554/x"},
		{Type: TypeObject, Path: docpath.Parse("articleInfo.volume"), Timestamp: 5, Value: "3"},
	}
	reduced, err := ReduceHistory(diffs)
	require.NoError(t, err)
	assert.Equal(t, "3", reduced["articleInfo.volume"].Value)

	sorted := Sorted(reduced)
	require.Len(t, sorted, 2)
	assert.Equal(t, "articleInfo.doi", sorted[0].Path.String(), "doi was last written before volume")
}
