// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/journal"
)

// Now returns the current time in Unix milliseconds. Undo and redo entries
// are stamped with it. Tests replace it.
var Now = func() int64 { return time.Now().UnixMilli() }

// Session runs actions against a State and records every history entry
// they produce as a journal entry, ready to be appended to a journal.
type Session struct {
	State   State
	pending []journal.Entry
}

// NewSession starts a session from s.
func NewSession(s State) *Session {
	return &Session{State: s}
}

// Apply reduces a and records the history operation it caused, if any.
func (ss *Session) Apply(a Action) ([]Effect, error) {
	before := ss.State
	next, effects, err := Reduce(before, a)
	if err != nil {
		return nil, err
	}
	ss.State = next

	entry, ok, err := recordEntry(before, next, a.Action)
	if err != nil {
		return effects, err
	}
	if ok {
		ss.pending = append(ss.pending, entry)
		slog.Debug("session: recorded", "action", a.Action, "kind", entry.Kind, "type", entry.Change.Type())
	}
	return effects, nil
}

// Flush returns the entries recorded since the last flush.
func (ss *Session) Flush() []journal.Entry {
	out := ss.pending
	ss.pending = nil
	return out
}

// recordEntry works out which history operation took before to next.
// Undo and redo diffs carry the time of the operation, not of the change
// they replay, so they sort after everything recorded before them.
func recordEntry(before, next State, action string) (journal.Entry, bool, error) {
	bp, _ := before.History.Depth()
	np, _ := next.History.Depth()
	switch {
	case action == ActionUndo:
		c, ok := next.History.Next()
		if !ok {
			return journal.Entry{}, false, nil
		}
		diffs, err := change.InverseDiffs(c, next.History.Present())
		if err != nil {
			return journal.Entry{}, false, fmt.Errorf("recording undo: %w", err)
		}
		return journal.Entry{Kind: journal.KindUndo, Change: c, Diffs: stamp(diffs)}, true, nil

	case np > bp:
		c, _ := next.History.Last()
		diffs, err := change.Diffs(c, next.History.Present())
		if err != nil {
			return journal.Entry{}, false, fmt.Errorf("recording %s: %w", action, err)
		}
		if action == ActionRedo {
			return journal.Entry{Kind: journal.KindRedo, Change: c, Diffs: stamp(diffs)}, true, nil
		}
		return journal.Entry{Kind: journal.KindApply, Change: c, Diffs: diffs}, true, nil

	default:
		return journal.Entry{}, false, nil
	}
}

func stamp(diffs []change.Diff) []change.Diff {
	ts := Now()
	for i := range diffs {
		diffs[i].Timestamp = ts
	}
	return diffs
}
