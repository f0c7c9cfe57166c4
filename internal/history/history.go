// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps the undo/redo history of a manuscript being edited.
//
// A History is a value: {past, present, future}. Every operation returns a
// new History and leaves its input usable, so a caller may keep any earlier
// History around (for example to discard a stale edit). Past and future are
// persistent stacks that share their tails between versions.
package history

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

var (
	// ErrNothingToUndo is returned by Undo when the past is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when the future is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

var (
	changesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manuscript_history_changes_total",
		Help: "Changes recorded in manuscript histories, by change type",
	}, []string{"kind"})

	undoTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "manuscript_history_undo_total",
		Help: "Changes rolled back by undo",
	})

	redoTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "manuscript_history_redo_total",
		Help: "Changes re-applied by redo",
	})
)

// stack is an immutable linked stack of changes.
type stack struct {
	top  change.Change
	rest *stack
	size int
}

func (s *stack) push(c change.Change) *stack {
	return &stack{top: c, rest: s, size: s.len() + 1}
}

func (s *stack) len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// History is the undo/redo state of one manuscript.
type History struct {
	past    *stack // newest first
	present types.Manuscript
	future  *stack // next to redo first
}

// New returns a history whose present is m, with nothing to undo or redo.
func New(m types.Manuscript) History {
	return History{present: m}
}

// Present returns the current manuscript.
func (h History) Present() types.Manuscript { return h.present }

// CanUndo reports whether Undo has a change to roll back.
func (h History) CanUndo() bool { return h.past != nil }

// CanRedo reports whether Redo has a change to re-apply.
func (h History) CanRedo() bool { return h.future != nil }

// Depth returns how many changes Undo and Redo can step through.
func (h History) Depth() (past, future int) { return h.past.len(), h.future.len() }

// Last returns the newest applied change.
func (h History) Last() (change.Change, bool) {
	if h.past == nil {
		return nil, false
	}
	return h.past.top, true
}

// Next returns the change Redo would re-apply.
func (h History) Next() (change.Change, bool) {
	if h.future == nil {
		return nil, false
	}
	return h.future.top, true
}

// Past returns the applied changes, oldest first.
func (h History) Past() []change.Change {
	out := make([]change.Change, h.past.len())
	i := len(out) - 1
	for s := h.past; s != nil; s = s.rest {
		out[i] = s.top
		i--
	}
	return out
}

// Future returns the undone changes in the order Redo re-applies them.
func (h History) Future() []change.Change {
	out := make([]change.Change, 0, h.future.len())
	for s := h.future; s != nil; s = s.rest {
		out = append(out, s.top)
	}
	return out
}

// UpdateManuscriptState applies a rich-text transaction to the field at
// path. The present always takes the new field, selection included. A
// ProsemirrorChange is recorded, and the future cleared, only when tx changes
// the document; a selection-only transaction leaves past and future alone.
func UpdateManuscriptState(h History, path docpath.Path, tx *richtext.Transaction) (History, error) {
	f, err := docpath.GetField(h.present, path)
	if err != nil {
		return h, err
	}
	next, err := richtext.Apply(f, tx)
	if err != nil {
		return h, fmt.Errorf("updating %q: %w", path.String(), err)
	}
	present, err := docpath.Update(h.present, path, next)
	if err != nil {
		return h, err
	}
	if !tx.DocChanged() {
		return History{past: h.past, present: present, future: h.future}, nil
	}
	c := change.NewProsemirrorChange(path, tx)
	record(c)
	return History{past: h.past.push(c), present: present}, nil
}

// Push applies c to the present and records it. The future is cleared.
// Empty changes are not recorded and return h unchanged.
func Push(h History, c change.Change) (History, error) {
	if c == nil || c.IsEmpty() {
		return h, nil
	}
	present, applied, err := c.Apply(h.present)
	if err != nil {
		return h, fmt.Errorf("applying %s change: %w", c.Type(), err)
	}
	record(applied)
	return History{past: h.past.push(applied), present: present}, nil
}

func record(c change.Change) {
	changesTotal.WithLabelValues(c.Type()).Inc()
	slog.Debug("history: recorded change", "type", c.Type(), "path", c.Path().String())
}

// Undo rolls back the newest change and moves it to the front of the future.
func Undo(h History) (History, error) {
	if h.past == nil {
		return h, ErrNothingToUndo
	}
	c := h.past.top
	present, err := c.Rollback(h.present)
	if err != nil {
		return h, fmt.Errorf("undoing %s change at %q: %w", c.Type(), c.Path().String(), err)
	}
	undoTotal.Inc()
	slog.Debug("history: undo", "type", c.Type(), "path", c.Path().String(), "remaining", h.past.len()-1)
	return History{past: h.past.rest, present: present, future: h.future.push(c)}, nil
}

// Redo re-applies the first change of the future and moves it back to the
// past.
func Redo(h History) (History, error) {
	if h.future == nil {
		return h, ErrNothingToRedo
	}
	c := h.future.top
	present, applied, err := c.Apply(h.present)
	if err != nil {
		return h, fmt.Errorf("redoing %s change at %q: %w", c.Type(), c.Path().String(), err)
	}
	redoTotal.Inc()
	slog.Debug("history: redo", "type", c.Type(), "path", c.Path().String(), "remaining", h.future.len()-1)
	return History{past: h.past.push(applied), present: present, future: h.future.rest}, nil
}
