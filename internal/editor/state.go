// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package editor turns user intents into history entries.
//
// Each handler takes a State and a payload and returns the next State plus
// the UI effects the intent implies. A handler that edits the manuscript
// pushes exactly one history entry, bundling derived edits (affiliation
// labels, citation text, the copyright statement, reference order) into the
// same BatchChange so one undo reverts one user action.
package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/internal/history"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// ErrUnknownEntity is returned when a payload names an id that is not in
// the manuscript.
var ErrUnknownEntity = errors.New("unknown entity")

// NewID returns a fresh entity id. Tests replace it.
var NewID = uuid.NewString

// State is the editor state threaded through every handler.
type State struct {
	History history.History

	// Focus is the rich-text field that last received an edit.
	Focus docpath.Path

	// Schema is the schema markup payloads are parsed with.
	Schema *richtext.Schema
}

// NewState returns the editor state for a freshly loaded manuscript.
func NewState(m types.Manuscript) State {
	return State{History: history.New(m), Schema: richtext.DefaultSchema}
}

// Manuscript returns the present manuscript.
func (s State) Manuscript() types.Manuscript { return s.History.Present() }

// Effect is a UI side effect requested by a handler.
type Effect interface {
	effect()
}

// CloseDialog asks the UI to close the entity dialog that issued the intent.
type CloseDialog struct{}

// FocusField asks the UI to move focus to the rich-text field at Path.
type FocusField struct {
	Path docpath.Path
}

func (CloseDialog) effect() {}
func (FocusField) effect()  {}

// derivation computes follow-up changes from a manuscript that already has
// the primary edit applied.
type derivation func(m types.Manuscript) ([]change.Change, error)

// commit pushes primary and the changes derived from it as one history
// entry. Derivations run in order, each seeing the manuscript with every
// earlier change applied.
func (s State) commit(primary change.Change, derive ...derivation) (State, error) {
	scratch, _, err := primary.Apply(s.Manuscript())
	if err != nil {
		return s, err
	}
	members := []change.Change{primary}
	for _, d := range derive {
		derived, err := d(scratch)
		if err != nil {
			return s, err
		}
		for _, c := range derived {
			if c == nil || c.IsEmpty() {
				continue
			}
			if scratch, _, err = c.Apply(scratch); err != nil {
				return s, fmt.Errorf("applying derived %s change: %w", c.Type(), err)
			}
			members = append(members, c)
		}
	}

	var entry change.Change = change.NewBatchChange(members...)
	if b := entry.(*change.BatchChange); len(b.Changes) == 1 {
		entry = b.Changes[0]
	}
	h, err := history.Push(s.History, entry)
	if err != nil {
		return s, err
	}
	s.History = h
	return s, nil
}

// indexByID returns the index of the entity with id in list.
func indexByID[T types.Object](list []T, id string) (int, error) {
	for i, v := range list {
		if docpath.ElementID(v, "id") == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%q: %w", id, ErrUnknownEntity)
}

func ensureID(id string) string {
	if id == "" {
		return NewID()
	}
	return id
}

var (
	pathAuthors         = docpath.Path{"authors"}
	pathAffiliations    = docpath.Path{"affiliations"}
	pathReferences      = docpath.Path{"references"}
	pathRelatedArticles = docpath.Path{"relatedArticles"}
	pathArticleInfo     = docpath.Path{"articleInfo"}
	pathBody            = docpath.Path{"body"}
)

func keywordGroupPath(group string) docpath.Path {
	return docpath.Path{"keywordGroups", group}
}
