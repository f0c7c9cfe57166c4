// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// Action names.
const (
	ActionInsertText           = "insert-text"
	ActionDeleteText           = "delete-text"
	ActionSetMarkup            = "set-markup"
	ActionSetCaption           = "set-caption"
	ActionAddAuthor            = "add-author"
	ActionUpdateAuthor         = "update-author"
	ActionDeleteAuthor         = "delete-author"
	ActionMoveAuthor           = "move-author"
	ActionAddAffiliation       = "add-affiliation"
	ActionUpdateAffiliation    = "update-affiliation"
	ActionDeleteAffiliation    = "delete-affiliation"
	ActionLinkAffiliation      = "link-affiliation"
	ActionAddKeyword           = "add-keyword"
	ActionUpdateKeyword        = "update-keyword"
	ActionDeleteKeyword        = "delete-keyword"
	ActionAddReference         = "add-reference"
	ActionUpdateReference      = "update-reference"
	ActionDeleteReference      = "delete-reference"
	ActionAddRelatedArticle    = "add-related-article"
	ActionUpdateRelatedArticle = "update-related-article"
	ActionDeleteRelatedArticle = "delete-related-article"
	ActionUpdateArticleInfo    = "update-article-info"
	ActionUndo                 = "undo"
	ActionRedo                 = "redo"
)

// Action is one user intent as written in an action script. Only the
// fields the action needs are set.
type Action struct {
	Action string `yaml:"action"`

	// Path addresses a rich-text field for text actions ("abstract",
	// "keywordGroups.kwd-group.newKeyword.content").
	Path string `yaml:"path,omitempty"`

	// At is the path of a text node inside the field; Offset and To are
	// rune offsets into it.
	At     []int  `yaml:"at,omitempty"`
	Offset int    `yaml:"offset,omitempty"`
	To     int    `yaml:"to,omitempty"`
	Text   string `yaml:"text,omitempty"`
	Markup string `yaml:"markup,omitempty"`

	ID        string   `yaml:"id,omitempty"`
	Index     int      `yaml:"index,omitempty"`
	Group     string   `yaml:"group,omitempty"`
	Figure    string   `yaml:"figure,omitempty"`
	AuthorIDs []string `yaml:"authors,omitempty"`

	Author         *types.Person             `yaml:"author,omitempty"`
	Affiliation    *types.Affiliation        `yaml:"affiliation,omitempty"`
	Keyword        *types.Keyword            `yaml:"keyword,omitempty"`
	Reference      *types.Reference          `yaml:"reference,omitempty"`
	RelatedArticle *types.RelatedArticle     `yaml:"relatedArticle,omitempty"`
	ArticleInfo    *types.ArticleInformation `yaml:"articleInfo,omitempty"`
}

// LoadActions decodes a YAML list of actions.
func LoadActions(r io.Reader) ([]Action, error) {
	var actions []Action
	if err := yaml.NewDecoder(r).Decode(&actions); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding actions: %w", err)
	}
	return actions, nil
}

// Reduce dispatches an action to its handler.
func Reduce(s State, a Action) (State, []Effect, error) {
	switch a.Action {
	case ActionInsertText, ActionDeleteText:
		return textEdit(s, a)
	case ActionSetMarkup:
		return SetMarkup(s, docpath.Parse(a.Path), a.Markup)
	case ActionSetCaption:
		return setCaption(s, a.Figure, a.Markup)

	case ActionAddAuthor:
		p, err := need(a, a.Author)
		if err != nil {
			return s, nil, err
		}
		return AddAuthor(s, p)
	case ActionUpdateAuthor:
		p, err := need(a, a.Author)
		if err != nil {
			return s, nil, err
		}
		return UpdateAuthor(s, p)
	case ActionDeleteAuthor:
		return DeleteAuthor(s, a.ID)
	case ActionMoveAuthor:
		return MoveAuthor(s, a.ID, a.Index)

	case ActionAddAffiliation:
		aff, err := need(a, a.Affiliation)
		if err != nil {
			return s, nil, err
		}
		return AddAffiliation(s, aff, a.AuthorIDs)
	case ActionUpdateAffiliation:
		aff, err := need(a, a.Affiliation)
		if err != nil {
			return s, nil, err
		}
		return UpdateAffiliation(s, aff, a.AuthorIDs)
	case ActionDeleteAffiliation:
		return DeleteAffiliation(s, a.ID)
	case ActionLinkAffiliation:
		return LinkAffiliation(s, a.ID, a.AuthorIDs)

	case ActionAddKeyword:
		return AddKeyword(s, a.Group)
	case ActionUpdateKeyword:
		kw, err := need(a, a.Keyword)
		if err != nil {
			return s, nil, err
		}
		return UpdateKeyword(s, a.Group, kw)
	case ActionDeleteKeyword:
		return DeleteKeyword(s, a.Group, a.ID)

	case ActionAddReference:
		r, err := need(a, a.Reference)
		if err != nil {
			return s, nil, err
		}
		return AddReference(s, r)
	case ActionUpdateReference:
		r, err := need(a, a.Reference)
		if err != nil {
			return s, nil, err
		}
		return UpdateReference(s, r)
	case ActionDeleteReference:
		return DeleteReference(s, a.ID)

	case ActionAddRelatedArticle:
		r, err := need(a, a.RelatedArticle)
		if err != nil {
			return s, nil, err
		}
		return AddRelatedArticle(s, r)
	case ActionUpdateRelatedArticle:
		r, err := need(a, a.RelatedArticle)
		if err != nil {
			return s, nil, err
		}
		return UpdateRelatedArticle(s, r)
	case ActionDeleteRelatedArticle:
		return DeleteRelatedArticle(s, a.ID)

	case ActionUpdateArticleInfo:
		info, err := need(a, a.ArticleInfo)
		if err != nil {
			return s, nil, err
		}
		return UpdateArticleInformation(s, info)

	case ActionUndo:
		return Undo(s)
	case ActionRedo:
		return Redo(s)
	default:
		return s, nil, fmt.Errorf("unknown action %q", a.Action)
	}
}

func need[T any](a Action, v *T) (T, error) {
	if v == nil {
		var zero T
		return zero, fmt.Errorf("action %q: missing payload", a.Action)
	}
	return *v, nil
}

func textEdit(s State, a Action) (State, []Effect, error) {
	path := docpath.Parse(a.Path)
	f, err := docpath.GetField(s.Manuscript(), path)
	if err != nil {
		return s, nil, err
	}
	at := richtext.Path(a.At)
	if at == nil {
		at = richtext.Path{0, 0}
	}
	b := richtext.NewBuilder(f)
	if a.Action == ActionInsertText {
		err = b.InsertText(at, a.Offset, a.Text)
	} else {
		err = b.DeleteText(at, a.Offset, a.To)
	}
	if err != nil {
		return s, nil, fmt.Errorf("%s at %q: %w", a.Action, a.Path, err)
	}
	end := a.Offset + len([]rune(a.Text))
	b.SetSelection(richtext.Cursor(richtext.Position{Path: at, Offset: end}))

	return UpdateField(s, path, b.Transaction())
}

// setCaption replaces a figure caption with parsed markup through the
// embedded caption editor.
func setCaption(s State, figureID, markup string) (State, []Effect, error) {
	caption, err := CaptionField(s, figureID)
	if err != nil {
		return s, nil, err
	}
	parsed, err := richtext.ParseMarkup(s.schema(), markup)
	if err != nil {
		return s, nil, fmt.Errorf("parsing caption of %q: %w", figureID, err)
	}
	want := caption.WithDoc(&richtext.Node{Type: richtext.TypeCaption, Content: parsed.Doc.Content})
	tx, err := richtext.ReplaceDocument(caption, want)
	if err != nil {
		return s, nil, err
	}
	return UpdateFigureCaption(s, figureID, tx)
}
