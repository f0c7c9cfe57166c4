// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"fmt"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// AddReference adds a reference and restores canonical reference order.
func AddReference(s State, r types.Reference) (State, []Effect, error) {
	r.ID = ensureID(r.ID)
	next, err := s.commit(change.NewAddObjectChange(pathReferences, r, "id"), sortReferences)
	if err != nil {
		return s, nil, fmt.Errorf("adding reference: %w", err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// UpdateReference replaces the reference with r's id by r, rewrites the
// label of every body citation of it, and restores canonical order.
func UpdateReference(s State, r types.Reference) (State, []Effect, error) {
	refs := s.Manuscript().References
	i, err := indexByID(refs, r.ID)
	if err != nil {
		return s, nil, fmt.Errorf("updating reference: %w", err)
	}
	c, err := change.UpdateObjectFromTwoObjects(pathReferences.Index(i), refs[i], r)
	if err != nil {
		return s, nil, fmt.Errorf("updating reference %s: %w", r.ID, err)
	}
	next, err := s.commit(c, rewriteCitations(r.ID), sortReferences)
	if err != nil {
		return s, nil, fmt.Errorf("updating reference %s: %w", r.ID, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// DeleteReference removes the reference with id and its citations from the
// body. A citation that also cites other references keeps them.
func DeleteReference(s State, id string) (State, []Effect, error) {
	refs := s.Manuscript().References
	i, err := indexByID(refs, id)
	if err != nil {
		return s, nil, fmt.Errorf("deleting reference: %w", err)
	}
	next, err := s.commit(change.NewDeleteObjectChange(pathReferences, refs[i], "id"), rewriteCitations(id))
	if err != nil {
		return s, nil, fmt.Errorf("deleting reference %s: %w", id, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}
