// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"fmt"
	"slices"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// AddAffiliation appends an affiliation and links it to the authors listed.
func AddAffiliation(s State, a types.Affiliation, authorIDs []string) (State, []Effect, error) {
	a.ID = ensureID(a.ID)
	next, err := s.commit(change.NewAddObjectChange(pathAffiliations, a, "id"),
		linkAuthors(a.ID, authorIDs), relabelAffiliations)
	if err != nil {
		return s, nil, fmt.Errorf("adding affiliation: %w", err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// UpdateAffiliation replaces the affiliation with a's id by a and sets the
// authors linked to it to exactly authorIDs.
func UpdateAffiliation(s State, a types.Affiliation, authorIDs []string) (State, []Effect, error) {
	affs := s.Manuscript().Affiliations
	i, err := indexByID(affs, a.ID)
	if err != nil {
		return s, nil, fmt.Errorf("updating affiliation: %w", err)
	}
	// Labels are derived; keep the current one so it is not diffed.
	a.Label = affs[i].Label
	c, err := change.UpdateObjectFromTwoObjects(pathAffiliations.Index(i), affs[i], a)
	if err != nil {
		return s, nil, fmt.Errorf("updating affiliation %s: %w", a.ID, err)
	}
	next, err := s.commit(c, linkAuthors(a.ID, authorIDs), relabelAffiliations)
	if err != nil {
		return s, nil, fmt.Errorf("updating affiliation %s: %w", a.ID, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// DeleteAffiliation removes the affiliation with id and unlinks it from
// every author.
func DeleteAffiliation(s State, id string) (State, []Effect, error) {
	affs := s.Manuscript().Affiliations
	i, err := indexByID(affs, id)
	if err != nil {
		return s, nil, fmt.Errorf("deleting affiliation: %w", err)
	}
	next, err := s.commit(change.NewDeleteObjectChange(pathAffiliations, affs[i], "id"),
		linkAuthors(id, nil), relabelAffiliations)
	if err != nil {
		return s, nil, fmt.Errorf("deleting affiliation %s: %w", id, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// LinkAffiliation sets the authors that reference affiliation affID to
// exactly authorIDs. Every affected author is updated in one entry, along
// with the affiliation labels and the copyright statement.
func LinkAffiliation(s State, affID string, authorIDs []string) (State, []Effect, error) {
	if _, err := indexByID(s.Manuscript().Affiliations, affID); err != nil {
		return s, nil, fmt.Errorf("linking affiliation: %w", err)
	}
	for _, id := range authorIDs {
		if _, err := indexByID(s.Manuscript().Authors, id); err != nil {
			return s, nil, fmt.Errorf("linking affiliation %s: author %w", affID, err)
		}
	}
	links, err := linkAuthors(affID, authorIDs)(s.Manuscript())
	if err != nil {
		return s, nil, err
	}
	next, err := s.commit(change.NewBatchChange(links...), relabelAffiliations, rederiveCopyright)
	if err != nil {
		return s, nil, fmt.Errorf("linking affiliation %s: %w", affID, err)
	}
	return next, nil, nil
}

// linkAuthors returns a derivation that adds affID to the affiliation list
// of the authors in authorIDs and removes it from every other author.
func linkAuthors(affID string, authorIDs []string) derivation {
	return func(m types.Manuscript) ([]change.Change, error) {
		var out []change.Change
		for i, a := range m.Authors {
			linked := slices.Contains(a.Affiliations, affID)
			want := slices.Contains(authorIDs, a.ID)
			if linked == want {
				continue
			}
			affs := slices.Clone(a.Affiliations)
			if want {
				affs = append(affs, affID)
			} else {
				affs = slices.DeleteFunc(affs, func(id string) bool { return id == affID })
			}
			out = append(out, change.NewUpdateObjectChange(pathAuthors.Index(i),
				change.Difference{Field: "affiliations", Old: a.Affiliations, New: affs}))
		}
		return out, nil
	}
}
