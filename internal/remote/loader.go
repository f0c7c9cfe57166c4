// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pdiddy/manuscript-history/internal/change"
)

// Fetcher fetches the change log of a manuscript.
type Fetcher interface {
	FetchChanges(ctx context.Context, manuscriptID string) ([]change.Diff, error)
}

// Loader serializes change-log loads so that only the latest one wins. A
// load that completes after a newer load started is reported as stale and
// its result dropped.
type Loader struct {
	fetcher Fetcher

	mu         sync.Mutex
	generation uint64
}

// NewLoader returns a loader fetching through f.
func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f}
}

// Load fetches the change log of a manuscript. current is false when a
// newer Load started before this one finished; diffs and err are then nil.
func (l *Loader) Load(ctx context.Context, manuscriptID string) (diffs []change.Diff, current bool, err error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	diffs, err = l.fetcher.FetchChanges(ctx, manuscriptID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		slog.Debug("remote: dropped stale load", "manuscript", manuscriptID, "generation", gen, "latest", l.generation)
		return nil, false, nil
	}
	return diffs, true, err
}
