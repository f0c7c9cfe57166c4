// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"fmt"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// AddAuthor appends an author. An author without an id gets a fresh one.
func AddAuthor(s State, p types.Person) (State, []Effect, error) {
	p.ID = ensureID(p.ID)
	next, err := s.commit(change.NewAddObjectChange(pathAuthors, p, "id"), relabelAffiliations, rederiveCopyright)
	if err != nil {
		return s, nil, fmt.Errorf("adding author: %w", err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// UpdateAuthor replaces the author with p's id by p.
func UpdateAuthor(s State, p types.Person) (State, []Effect, error) {
	authors := s.Manuscript().Authors
	i, err := indexByID(authors, p.ID)
	if err != nil {
		return s, nil, fmt.Errorf("updating author: %w", err)
	}
	c, err := change.UpdateObjectFromTwoObjects(pathAuthors.Index(i), authors[i], p)
	if err != nil {
		return s, nil, fmt.Errorf("updating author %s: %w", p.ID, err)
	}
	next, err := s.commit(c, relabelAffiliations, rederiveCopyright)
	if err != nil {
		return s, nil, fmt.Errorf("updating author %s: %w", p.ID, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// DeleteAuthor removes the author with id.
func DeleteAuthor(s State, id string) (State, []Effect, error) {
	authors := s.Manuscript().Authors
	i, err := indexByID(authors, id)
	if err != nil {
		return s, nil, fmt.Errorf("deleting author: %w", err)
	}
	next, err := s.commit(change.NewDeleteObjectChange(pathAuthors, authors[i], "id"), relabelAffiliations, rederiveCopyright)
	if err != nil {
		return s, nil, fmt.Errorf("deleting author %s: %w", id, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// MoveAuthor moves the author with id to index to. Affiliation labels and
// the copyright statement follow the new order in the same history entry.
func MoveAuthor(s State, id string, to int) (State, []Effect, error) {
	authors := s.Manuscript().Authors
	from, err := indexByID(authors, id)
	if err != nil {
		return s, nil, fmt.Errorf("moving author: %w", err)
	}
	c, err := change.RearrangingFromItemMoved(pathAuthors, from, to, authors)
	if err != nil {
		return s, nil, fmt.Errorf("moving author %s: %w", id, err)
	}
	next, err := s.commit(c, relabelAffiliations, rederiveCopyright)
	if err != nil {
		return s, nil, fmt.Errorf("moving author %s: %w", id, err)
	}
	return next, nil, nil
}
