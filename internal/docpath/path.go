// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docpath addresses values inside a Manuscript. A Path is a
// sequence of segments: field names, list indexes, or keyword-group keys.
// Its wire form joins the segments with dots ("authors.0.affiliations"),
// which is the addressing scheme of every persisted change.
package docpath

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a path segment does not exist.
var ErrNotFound = errors.New("path not found")

// TypeError reports a value of the wrong kind at a path, such as a list
// operation against a non-list or a rich-text edit against plain data.
type TypeError struct {
	Path Path
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error at %q: want %s, got %s", e.Path.String(), e.Want, e.Got)
}

// Path is a dot-separated address into the manuscript tree.
type Path []string

// Parse splits a dot-separated path. The empty string is the root.
func Parse(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

// String returns the wire form of p.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Child returns a new path extending p by segs.
func (p Path) Child(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Field returns p extended by a field name.
func (p Path) Field(name string) Path { return p.Child(name) }

// Key returns p extended by a map key.
func (p Path) Key(key string) Path { return p.Child(key) }

// Index returns p extended by a list index.
func (p Path) Index(i int) Path { return p.Child(strconv.Itoa(i)) }

// Parent returns the parent path and the last segment. The root has no
// parent; ok is false.
func (p Path) Parent() (parent Path, last string, ok bool) {
	if len(p) == 0 {
		return nil, "", false
	}
	return p[: len(p)-1 : len(p)-1], p[len(p)-1], true
}

// Equal reports whether p and q address the same value.
func (p Path) Equal(q Path) bool {
	return slices.Equal(p, q)
}

// HasPrefix reports whether q is p or an ancestor of p.
func (p Path) HasPrefix(q Path) bool {
	return len(q) <= len(p) && slices.Equal(p[:len(q)], q)
}

// Rel returns p relative to ancestor, or false when ancestor is not a
// prefix of p.
func (p Path) Rel(ancestor Path) (Path, bool) {
	if !p.HasPrefix(ancestor) {
		return nil, false
	}
	return slices.Clone(p[len(ancestor):]), true
}

// MarshalText encodes p in its dot-separated wire form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes the dot-separated wire form.
func (p *Path) UnmarshalText(data []byte) error {
	*p = Parse(string(data))
	return nil
}
