// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal persists the history entries of edited manuscripts in a
// SQLite database, one row per entry, so edits survive the session and can
// be compacted and submitted to a remote change log.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

const dbFile = "journal.db"

// Entry kinds.
const (
	KindApply = "apply"
	KindUndo  = "undo"
	KindRedo  = "redo"
)

var entriesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "manuscript_journal_entries_appended_total",
	Help: "History entries appended to the journal, by entry kind",
}, []string{"kind"})

// Entry is one recorded history operation. Change is the change as applied
// (for an undo, the change that was rolled back); Diffs are the raw diffs
// that replay the operation.
type Entry struct {
	ID           string
	ManuscriptID string
	Seq          int64
	Kind         string
	Change       change.Change
	Diffs        []change.Diff
}

// Store manages the journal database.
type Store struct {
	db         *sql.DB
	dir        string
	schema     *richtext.Schema
	maxEntries int
}

// Open opens or creates the journal at cfg.Dir/journal.db. Rich-text steps
// read back from the journal are validated against schema.
func Open(cfg types.JournalConfig, schema *richtext.Schema) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.Dir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 500
	}

	s := &Store{db: db, dir: cfg.Dir, schema: schema, maxEntries: maxEntries}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS changes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			manuscript_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			type TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			payload TEXT NOT NULL,
			diffs TEXT NOT NULL,
			UNIQUE (manuscript_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_manuscript ON changes(manuscript_id, seq)`,
		`CREATE TABLE IF NOT EXISTS sync_status (
			manuscript_id TEXT PRIMARY KEY,
			pushed_seq INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append records entries for a manuscript in one transaction. Entries get
// the next sequence numbers and, when they have none, a fresh id. The
// returned entries carry both.
func (s *Store) Append(ctx context.Context, manuscriptID string, entries ...Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM changes WHERE manuscript_id = ?`, manuscriptID,
	).Scan(&seq); err != nil {
		return nil, fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO changes (id, manuscript_id, seq, kind, type, path, timestamp, payload, diffs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		seq++
		e.ManuscriptID, e.Seq = manuscriptID, seq
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		payload, err := change.Marshal(e.Change)
		if err != nil {
			return nil, fmt.Errorf("encoding entry %d: %w", seq, err)
		}
		diffs, err := json.Marshal(orEmpty(e.Diffs))
		if err != nil {
			return nil, fmt.Errorf("encoding diffs of entry %d: %w", seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, manuscriptID, seq, e.Kind, e.Change.Type(), e.Change.Path().String(),
			e.Change.Timestamp(), string(payload), string(diffs),
		); err != nil {
			return nil, fmt.Errorf("inserting entry %d: %w", seq, err)
		}
		out = append(out, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing entries: %w", err)
	}
	for _, e := range out {
		entriesAppended.WithLabelValues(e.Kind).Inc()
	}
	slog.Debug("journal: appended entries", "manuscript", manuscriptID, "count", len(out), "lastSeq", seq)
	return out, nil
}

func orEmpty(diffs []change.Diff) []change.Diff {
	if diffs == nil {
		return []change.Diff{}
	}
	return diffs
}

// List returns the entries of a manuscript with a sequence number above
// since, oldest first.
func (s *Store) List(ctx context.Context, manuscriptID string, since int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, kind, payload, diffs FROM changes
		 WHERE manuscript_id = ? AND seq > ? ORDER BY seq`, manuscriptID, since)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{ManuscriptID: manuscriptID}
		var payload, diffs string
		if err := rows.Scan(&e.ID, &e.Seq, &e.Kind, &payload, &diffs); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if e.Change, err = change.Unmarshal(s.schema, []byte(payload)); err != nil {
			return nil, fmt.Errorf("decoding entry %d: %w", e.Seq, err)
		}
		if e.Diffs, err = change.UnmarshalDiffs(s.schema, []byte(diffs)); err != nil {
			return nil, fmt.Errorf("decoding diffs of entry %d: %w", e.Seq, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recent returns up to limit of the latest entries of a manuscript, oldest
// first. A limit of zero or less uses the configured maximum.
func (s *Store) Recent(ctx context.Context, manuscriptID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxEntries
	}
	var since int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(seq) - 1, 0) FROM (
			SELECT seq FROM changes WHERE manuscript_id = ? ORDER BY seq DESC LIMIT ?
		)`, manuscriptID, limit,
	).Scan(&since)
	if err != nil {
		return nil, fmt.Errorf("finding recent entries: %w", err)
	}
	return s.List(ctx, manuscriptID, since)
}

// Compact folds the diffs of every entry above since into one diff per
// changed path, with descendants merged into changed ancestors, in journal
// order.
func (s *Store) Compact(ctx context.Context, manuscriptID string, since int64) ([]change.Diff, error) {
	entries, err := s.List(ctx, manuscriptID, since)
	if err != nil {
		return nil, err
	}
	// Journal order wins over clocks: a diff never sorts ahead of one
	// journaled before it.
	var diffs []change.Diff
	var last int64
	for _, e := range entries {
		for _, d := range e.Diffs {
			d.Timestamp = max(d.Timestamp, last)
			last = d.Timestamp
			diffs = append(diffs, d)
		}
	}
	reduced, err := change.ReduceHistory(diffs)
	if err != nil {
		return nil, fmt.Errorf("reducing journal of %s: %w", manuscriptID, err)
	}
	compressed, err := change.CompressChanges(reduced)
	if err != nil {
		return nil, fmt.Errorf("compressing journal of %s: %w", manuscriptID, err)
	}
	return change.Sorted(compressed), nil
}

// PushedSeq returns the sequence number of the last entry submitted to the
// remote change log, or zero.
func (s *Store) PushedSeq(ctx context.Context, manuscriptID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT pushed_seq FROM sync_status WHERE manuscript_id = ?`, manuscriptID,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading sync status: %w", err)
	}
	return seq, nil
}

// MarkPushed records that entries up to seq were submitted.
func (s *Store) MarkPushed(ctx context.Context, manuscriptID string, seq int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_status (manuscript_id, pushed_seq) VALUES (?, ?)
		 ON CONFLICT(manuscript_id) DO UPDATE SET pushed_seq=excluded.pushed_seq`,
		manuscriptID, seq,
	)
	if err != nil {
		return fmt.Errorf("updating sync status: %w", err)
	}
	return nil
}
