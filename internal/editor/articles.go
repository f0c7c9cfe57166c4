// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"fmt"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// AddRelatedArticle appends r, assigning an id when it has none.
func AddRelatedArticle(s State, r types.RelatedArticle) (State, []Effect, error) {
	r.ID = ensureID(r.ID)
	next, err := s.commit(change.NewAddObjectChange(pathRelatedArticles, r, "id"))
	if err != nil {
		return s, nil, fmt.Errorf("adding related article: %w", err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// UpdateRelatedArticle replaces the related article with r's id.
func UpdateRelatedArticle(s State, r types.RelatedArticle) (State, []Effect, error) {
	related := s.Manuscript().RelatedArticles
	i, err := indexByID(related, r.ID)
	if err != nil {
		return s, nil, fmt.Errorf("updating related article: %w", err)
	}
	c, err := change.UpdateObjectFromTwoObjects(pathRelatedArticles.Index(i), related[i], r)
	if err != nil {
		return s, nil, fmt.Errorf("updating related article %s: %w", r.ID, err)
	}
	next, err := s.commit(c)
	if err != nil {
		return s, nil, fmt.Errorf("updating related article %s: %w", r.ID, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// DeleteRelatedArticle removes the related article with id.
func DeleteRelatedArticle(s State, id string) (State, []Effect, error) {
	related := s.Manuscript().RelatedArticles
	i, err := indexByID(related, id)
	if err != nil {
		return s, nil, fmt.Errorf("deleting related article: %w", err)
	}
	next, err := s.commit(change.NewDeleteObjectChange(pathRelatedArticles, related[i], "id"))
	if err != nil {
		return s, nil, fmt.Errorf("deleting related article %s: %w", id, err)
	}
	return next, []Effect{CloseDialog{}}, nil
}

// UpdateArticleInformation replaces the article metadata. Under a CC-BY-4
// license the copyright statement is derived and any value in info is
// overridden.
func UpdateArticleInformation(s State, info types.ArticleInformation) (State, []Effect, error) {
	c, err := change.UpdateObjectFromTwoObjects(pathArticleInfo, s.Manuscript().ArticleInfo, info)
	if err != nil {
		return s, nil, fmt.Errorf("updating article information: %w", err)
	}
	next, err := s.commit(c, rederiveCopyright)
	if err != nil {
		return s, nil, fmt.Errorf("updating article information: %w", err)
	}
	return next, []Effect{CloseDialog{}}, nil
}
