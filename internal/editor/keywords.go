// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"fmt"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/history"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

func keywordGroup(m types.Manuscript, group string) (types.KeywordGroup, error) {
	g, ok := m.KeywordGroups[group]
	if !ok {
		return g, fmt.Errorf("keyword group %q: %w", group, ErrUnknownEntity)
	}
	return g, nil
}

// AddKeyword appends the group's draft keyword to its keywords and replaces
// the draft with a fresh empty one, as one entry.
func AddKeyword(s State, group string) (State, []Effect, error) {
	g, err := keywordGroup(s.Manuscript(), group)
	if err != nil {
		return s, nil, fmt.Errorf("adding keyword: %w", err)
	}
	kw := g.NewKeyword
	kw.ID = ensureID(kw.ID)
	if kw.Content == nil {
		kw.Content = richtext.Empty()
	}
	path := keywordGroupPath(group)
	add := change.NewAddObjectChange(path.Field("keywords"), kw, "id")

	draft := types.Keyword{ID: NewID(), Content: richtext.Empty()}
	reset, err := change.UpdateObjectFromTwoObjects(path.Field("newKeyword"), g.NewKeyword, draft)
	if err != nil {
		return s, nil, fmt.Errorf("adding keyword to %q: %w", group, err)
	}
	next, err := s.commit(change.NewBatchChange(add, reset))
	if err != nil {
		return s, nil, fmt.Errorf("adding keyword to %q: %w", group, err)
	}
	next.Focus = path.Field("newKeyword").Field("content")
	return next, []Effect{FocusField{Path: next.Focus}}, nil
}

// UpdateKeyword replaces the keyword with kw's id in group.
func UpdateKeyword(s State, group string, kw types.Keyword) (State, []Effect, error) {
	g, err := keywordGroup(s.Manuscript(), group)
	if err != nil {
		return s, nil, fmt.Errorf("updating keyword: %w", err)
	}
	i, err := indexByID(g.Keywords, kw.ID)
	if err != nil {
		return s, nil, fmt.Errorf("updating keyword in %q: %w", group, err)
	}
	c, err := change.UpdateObjectFromTwoObjects(keywordGroupPath(group).Field("keywords").Index(i), g.Keywords[i], kw)
	if err != nil {
		return s, nil, fmt.Errorf("updating keyword %s: %w", kw.ID, err)
	}
	next, err := s.commit(c)
	if err != nil {
		return s, nil, fmt.Errorf("updating keyword %s: %w", kw.ID, err)
	}
	return next, nil, nil
}

// DeleteKeyword removes the keyword with id from group.
func DeleteKeyword(s State, group, id string) (State, []Effect, error) {
	g, err := keywordGroup(s.Manuscript(), group)
	if err != nil {
		return s, nil, fmt.Errorf("deleting keyword: %w", err)
	}
	i, err := indexByID(g.Keywords, id)
	if err != nil {
		return s, nil, fmt.Errorf("deleting keyword in %q: %w", group, err)
	}
	next, err := s.commit(change.NewDeleteObjectChange(keywordGroupPath(group).Field("keywords"), g.Keywords[i], "id"))
	if err != nil {
		return s, nil, fmt.Errorf("deleting keyword %s: %w", id, err)
	}
	return next, nil, nil
}

// UpdateNewKeyword applies an edit to the draft keyword of group.
func UpdateNewKeyword(s State, group string, tx *richtext.Transaction) (State, []Effect, error) {
	if _, err := keywordGroup(s.Manuscript(), group); err != nil {
		return s, nil, fmt.Errorf("editing keyword draft: %w", err)
	}
	path := keywordGroupPath(group).Field("newKeyword").Field("content")
	h, err := history.UpdateManuscriptState(s.History, path, tx)
	if err != nil {
		return s, nil, fmt.Errorf("editing keyword draft in %q: %w", group, err)
	}
	s.History, s.Focus = h, path
	return s, nil, nil
}
