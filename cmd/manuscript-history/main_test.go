// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-history/internal/editor"
	"github.com/pdiddy/manuscript-history/internal/journal"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

const manuscriptYAML = `id: e1000123
title: On the <italic>Analytical</italic> Engine
authors:
  - id: a1
    firstName: Ada
    lastName: Lovelace
    affiliations: [x2]
  - id: a2
    firstName: Alan
    lastName: Turing
    affiliations: [x1, x2]
affiliations:
  - id: x1
    label: "2"
    institution: Bletchley Park
  - id: x2
    label: "1"
    institution: University of London
references:
  - id: bib1
    authors:
      - lastName: Babbage
    year: "1864"
    title: Passages from the life of a philosopher
keywordGroups:
  kwd-group:
    keywords:
      - id: k1
        content: engines
    newKeyword:
      id: k-new
      content: looms
articleInfo:
  licenseType: CC-BY-4
  publishedDate: "2024-03-01"
  copyrightStatement: © 2024, Lovelace and Turing
`

func writeManuscript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manuscript.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manuscriptYAML), 0o644))
	return path
}

func TestLoadSaveManuscript(t *testing.T) {
	path := writeManuscript(t)
	m, err := loadManuscript(path)
	require.NoError(t, err)
	assert.Equal(t, "e1000123", m.ID)
	assert.Equal(t, "On the Analytical Engine", text(m.Title))
	assert.Len(t, m.Authors, 2)

	require.NoError(t, saveManuscript(path, m))
	again, err := loadManuscript(path)
	require.NoError(t, err)
	assert.Equal(t, richtext.RenderMarkup(m.Title), richtext.RenderMarkup(again.Title))
	assert.Equal(t, m.ArticleInfo, again.ArticleInfo)
}

func TestLoadManuscript_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: untitled\n"), 0o644))
	_, err := loadManuscript(path)
	assert.ErrorContains(t, err, "has no id")
}

func TestPrintSummary(t *testing.T) {
	m, err := loadManuscript(writeManuscript(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, m)
	out := buf.String()
	for _, want := range []string{
		"Manuscript e1000123",
		"Ada Lovelace [1]",
		"Alan Turing [2,1]",
		"Babbage, 1864",
		"Keywords (kwd-group): engines",
		"© 2024, Lovelace and Turing",
	} {
		assert.Contains(t, out, want)
	}
}

func TestApplyActionsAndRecord(t *testing.T) {
	m, err := loadManuscript(writeManuscript(t))
	require.NoError(t, err)

	actions, err := editor.LoadActions(strings.NewReader(`
- action: move-author
  id: a1
  index: 1
- action: add-keyword
  group: kwd-group
- action: undo
- action: delete-author
  id: nobody
`))
	require.NoError(t, err)

	session := editor.NewSession(editor.NewState(m))
	var out bytes.Buffer
	applied, err := applyActions(session, actions, &out)
	assert.Equal(t, 3, applied)
	assert.ErrorIs(t, err, editor.ErrUnknownEntity)
	assert.Contains(t, out.String(), "focus keywordGroups.kwd-group.newKeyword.content")

	got := session.State.Manuscript()
	assert.Equal(t, "a2", got.Authors[0].ID)
	assert.Len(t, got.KeywordGroups["kwd-group"].Keywords, 1)

	dir := t.TempDir()
	cfg := types.JournalConfig{Dir: dir}
	require.NoError(t, recordSession(context.Background(), cfg, richtext.DefaultSchema, m.ID, session, &out))
	assert.Contains(t, out.String(), "Journaled 3 entries (seq 1-3)")

	store, err := journal.Open(cfg, richtext.DefaultSchema)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.List(context.Background(), m.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, journal.KindUndo, entries[2].Kind)
}
