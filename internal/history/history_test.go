// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

var titlePath = docpath.Path{"title"}

func testManuscript() types.Manuscript {
	return types.Manuscript{
		ID:      "m1",
		Title:   richtext.Text("Draft"),
		Authors: []types.Person{{ID: "a1", LastName: "Lovelace"}, {ID: "a2", LastName: "Turing"}},
	}
}

func typed(t *testing.T, h History, offset int, text string) *richtext.Transaction {
	t.Helper()
	b := richtext.NewBuilder(h.Present().Title)
	require.NoError(t, b.InsertText(richtext.Path{0, 0}, offset, text))
	b.SetSelection(richtext.Cursor(richtext.Position{Path: richtext.Path{0, 0}, Offset: offset + len(text)}))
	return b.Transaction()
}

func title(h History) string {
	return richtext.TextContent(h.Present().Title.Doc)
}

func assertSameHistory(t *testing.T, want, got History) {
	t.Helper()
	if diff := cmp.Diff(want.Present(), got.Present(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("present mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, len(want.Past()), len(got.Past()))
	assert.Equal(t, len(want.Future()), len(got.Future()))
}

func TestUpdateManuscriptState_RecordsDocChanges(t *testing.T) {
	h := New(testManuscript())
	h1, err := UpdateManuscriptState(h, titlePath, typed(t, h, 5, " one"))
	require.NoError(t, err)

	assert.Equal(t, "Draft one", title(h1))
	assert.Equal(t, 9, h1.Present().Title.Selection.Head.Offset)
	require.Len(t, h1.Past(), 1)
	assert.Equal(t, change.TypeSteps, h1.Past()[0].Type())
	assert.Empty(t, h1.Future())
	assert.Equal(t, "Draft", title(h), "the input history is not modified")
}

func TestUpdateManuscriptState_SelectionOnly(t *testing.T) {
	h := New(testManuscript())
	h, err := UpdateManuscriptState(h, titlePath, typed(t, h, 5, "!"))
	require.NoError(t, err)
	h, err = Undo(h)
	require.NoError(t, err)

	b := richtext.NewBuilder(h.Present().Title)
	b.SetSelection(richtext.Cursor(richtext.Position{Path: richtext.Path{0, 0}, Offset: 1}))
	moved, err := UpdateManuscriptState(h, titlePath, b.Transaction())
	require.NoError(t, err)

	assert.Equal(t, 1, moved.Present().Title.Selection.Head.Offset, "selection is kept in present")
	assert.Len(t, moved.Past(), 0)
	assert.Len(t, moved.Future(), 1, "future survives a selection-only update")
}

func TestUpdateManuscriptState_ClearsFuture(t *testing.T) {
	h := New(testManuscript())
	var err error
	for _, word := range []string{" a", " b", " c"} {
		h, err = UpdateManuscriptState(h, titlePath, typed(t, h, len([]rune(title(h))), word))
		require.NoError(t, err)
	}
	h, err = Undo(h)
	require.NoError(t, err)
	h, err = Undo(h)
	require.NoError(t, err)
	require.Len(t, h.Future(), 2)

	next, err := UpdateManuscriptState(h, titlePath, typed(t, h, 0, "New "))
	require.NoError(t, err)
	assert.Len(t, next.Past(), len(h.Past())+1)
	assert.Empty(t, next.Future())
	assert.Equal(t, "New Draft a", title(next))
}

func TestUpdateManuscriptState_NotRichText(t *testing.T) {
	h := New(testManuscript())
	_, err := UpdateManuscriptState(h, docpath.Path{"authors"}, typed(t, h, 0, "x"))
	var typeErr *docpath.TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestUndoRedo_InversePair(t *testing.T) {
	h := New(testManuscript())
	h, err := UpdateManuscriptState(h, titlePath, typed(t, h, 5, " one"))
	require.NoError(t, err)
	h, err = Push(h, change.NewDeleteObjectChange(docpath.Path{"authors"}, types.Person{ID: "a1"}, "id"))
	require.NoError(t, err)
	h, err = Push(h, change.NewRearrangingChange(docpath.Path{"authors"}, []int{0}))
	require.NoError(t, err)
	require.Len(t, h.Past(), 2, "identity rearrange is empty and not recorded")

	cur := h
	for cur.CanUndo() {
		undone, err := Undo(cur)
		require.NoError(t, err)
		redone, err := Redo(undone)
		require.NoError(t, err)
		assertSameHistory(t, cur, redone)
		cur = undone
	}
	assert.Equal(t, "Draft", title(cur))
	assert.Len(t, cur.Present().Authors, 2)
	assert.Len(t, cur.Future(), 2)
}

func TestUndoRedo_Empty(t *testing.T) {
	h := New(testManuscript())
	_, err := Undo(h)
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, err = Redo(h)
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestPush_FailedChangeLeavesHistory(t *testing.T) {
	h := New(testManuscript())
	out, err := Push(h, change.NewAddObjectChange(docpath.Path{"title"}, types.Person{ID: "a3"}, "id"))
	require.Error(t, err)
	assertSameHistory(t, h, out)
}

func TestHistory_OrderOfPastAndFuture(t *testing.T) {
	h := New(testManuscript())
	first := change.NewAddObjectChange(docpath.Path{"authors"}, types.Person{ID: "a3"}, "id")
	second := change.NewAddObjectChange(docpath.Path{"authors"}, types.Person{ID: "a4"}, "id")
	h, err := Push(h, first)
	require.NoError(t, err)
	h, err = Push(h, second)
	require.NoError(t, err)

	assert.Equal(t, []change.Change{first, second}, h.Past())

	h, err = Undo(h)
	require.NoError(t, err)
	h, err = Undo(h)
	require.NoError(t, err)
	assert.Equal(t, []change.Change{first, second}, h.Future())

	h, err = Redo(h)
	require.NoError(t, err)
	assert.Equal(t, "a3", h.Present().Authors[2].ID)
}

func TestHistory_DepthLastNext(t *testing.T) {
	h := New(testManuscript())
	_, ok := h.Last()
	assert.False(t, ok)
	_, ok = h.Next()
	assert.False(t, ok)

	add := change.NewAddObjectChange(docpath.Path{"authors"}, types.Person{ID: "a3"}, "id")
	h, err := Push(h, add)
	require.NoError(t, err)
	h, err = UpdateManuscriptState(h, titlePath, typed(t, h, 5, "!"))
	require.NoError(t, err)

	past, future := h.Depth()
	assert.Equal(t, 2, past)
	assert.Equal(t, 0, future)
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, change.TypeSteps, last.Type())

	h, err = Undo(h)
	require.NoError(t, err)
	past, future = h.Depth()
	assert.Equal(t, 1, past)
	assert.Equal(t, 1, future)
	next, ok := h.Next()
	require.True(t, ok)
	assert.Equal(t, last, next)
	last, _ = h.Last()
	assert.Equal(t, add, last)
}
