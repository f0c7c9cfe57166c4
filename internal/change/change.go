// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package change implements reversible mutations of a Manuscript.
//
// A Change is one of ProsemirrorChange, AddObjectChange, DeleteObjectChange,
// UpdateObjectChange, RearrangingChange or BatchChange. Every change applies
// as a pure function of the manuscript it is given and rolls back exactly
// when given the manuscript it produced. Changes serialize to a JSON wire
// form keyed by a type discriminator and can be flattened into per-path raw
// diffs for compaction and replay against a remote change log.
package change

import (
	"errors"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// Wire type discriminators.
const (
	TypeSteps        = "steps"
	TypeObject       = "object"
	TypeAddObject    = "add-object"
	TypeDeleteObject = "delete-object"
	TypeUpdateObject = "update-object"
	TypeRearranging  = "rearranging"
	TypeBatch        = "batch"
)

// ErrNotRecorded is returned when rolling back a DeleteObjectChange whose
// object was not found when it was applied.
var ErrNotRecorded = errors.New("removed index not recorded")

// Change is a reversible mutation of a Manuscript.
type Change interface {
	// Type returns the wire discriminator.
	Type() string

	// Path returns the address the change applies to.
	Path() docpath.Path

	// Timestamp returns the creation time in Unix milliseconds.
	Timestamp() int64

	// IsEmpty reports whether applying the change would leave the
	// manuscript unchanged. Adds and deletes are never empty.
	IsEmpty() bool

	// Apply returns the manuscript with the change applied and the change
	// as applied, which carries anything recorded during application.
	// Roll back the returned change, not the receiver.
	Apply(m types.Manuscript) (types.Manuscript, Change, error)

	// Rollback returns the manuscript as it was before Apply.
	Rollback(m types.Manuscript) (types.Manuscript, error)

	change()
}

// now returns the current time in Unix milliseconds. Tests replace it.
var now = func() int64 {
	return time.Now().UnixMilli()
}

type base struct {
	path      docpath.Path
	timestamp int64
}

func newBase(path docpath.Path) base {
	return base{path: path, timestamp: now()}
}

func (b base) Path() docpath.Path { return b.path }
func (b base) Timestamp() int64   { return b.timestamp }
func (base) change()              {}

// deepEqual compares plain values the way the round-trip tests do: empty
// and nil slices and maps are equal.
func deepEqual(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}
