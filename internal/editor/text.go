// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"fmt"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/internal/history"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
)

// UpdateField applies a rich-text transaction to the field at path. Only
// transactions that change the document are recorded.
func UpdateField(s State, path docpath.Path, tx *richtext.Transaction) (State, []Effect, error) {
	h, err := history.UpdateManuscriptState(s.History, path, tx)
	if err != nil {
		return s, nil, err
	}
	s.History, s.Focus = h, path
	return s, nil, nil
}

// SetMarkup replaces the content of the field at path with parsed markup.
func SetMarkup(s State, path docpath.Path, markup string) (State, []Effect, error) {
	current, err := docpath.GetField(s.Manuscript(), path)
	if err != nil {
		return s, nil, err
	}
	parsed, err := richtext.ParseMarkup(s.schema(), markup)
	if err != nil {
		return s, nil, fmt.Errorf("setting %q: %w", path.String(), err)
	}
	tx, err := richtext.ReplaceDocument(current, parsed)
	if err != nil {
		return s, nil, fmt.Errorf("setting %q: %w", path.String(), err)
	}
	return UpdateField(s, path, tx)
}

func (s State) schema() *richtext.Schema {
	if s.Schema == nil {
		return richtext.DefaultSchema
	}
	return s.Schema
}

// figureCaption locates the caption of the body figure with id. The
// returned path is the caption node's position in the body document.
func figureCaption(s State, figureID string) (*richtext.Node, richtext.Path, error) {
	body, err := docpath.GetField(s.Manuscript(), pathBody)
	if err != nil {
		return nil, nil, err
	}
	for i, block := range body.Doc.Content {
		if block.Type != richtext.TypeFigure || block.Attr("id") != figureID {
			continue
		}
		for j, child := range block.Content {
			if child.Type == richtext.TypeCaption {
				return child, richtext.Path{i, j}, nil
			}
		}
		return nil, nil, fmt.Errorf("figure %q has no caption", figureID)
	}
	return nil, nil, fmt.Errorf("figure %q: %w", figureID, ErrUnknownEntity)
}

// CaptionField returns the caption of the body figure with id as a field of
// its own, to be edited in an embedded editor.
func CaptionField(s State, figureID string) (*richtext.Field, error) {
	caption, _, err := figureCaption(s, figureID)
	if err != nil {
		return nil, err
	}
	return richtext.NewField(caption), nil
}

// UpdateFigureCaption applies a transaction made against CaptionField to
// the body, re-targeting its steps into body coordinates.
func UpdateFigureCaption(s State, figureID string, tx *richtext.Transaction) (State, []Effect, error) {
	_, prefix, err := figureCaption(s, figureID)
	if err != nil {
		return s, nil, fmt.Errorf("updating caption: %w", err)
	}
	return UpdateField(s, pathBody, tx.Rebase(prefix))
}

// Undo rolls back the last history entry.
func Undo(s State) (State, []Effect, error) {
	h, err := history.Undo(s.History)
	if err != nil {
		return s, nil, err
	}
	s.History = h
	return s, nil, nil
}

// Redo re-applies the last undone history entry.
func Redo(s State) (State, []Effect, error) {
	h, err := history.Redo(s.History)
	if err != nil {
		return s, nil, err
	}
	s.History = h
	return s, nil, nil
}
