// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package change

import (
	"encoding/json"
	"fmt"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// Diff is a raw, path-scoped change as exchanged with the remote change log:
// either rich-text steps to replay against the field at Path (TypeSteps), or
// the new value at Path (TypeObject).
type Diff struct {
	Type      string
	Path      docpath.Path
	Timestamp int64
	Steps     []richtext.Step
	Value     any

	// order is the 1-based stream position set by ReduceHistory.
	order int
}

type wireDiff struct {
	Type             string          `json:"type"`
	Path             string          `json:"path"`
	Timestamp        int64           `json:"timestamp"`
	TransactionSteps json.RawMessage `json:"transactionSteps,omitempty"`
	Value            json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes d in its wire form.
func (d Diff) MarshalJSON() ([]byte, error) {
	w := wireDiff{Type: d.Type, Path: d.Path.String(), Timestamp: d.Timestamp}
	var err error
	switch d.Type {
	case TypeSteps:
		w.TransactionSteps, err = richtext.MarshalSteps(d.Steps)
	case TypeObject:
		if raw, ok := d.Value.(json.RawMessage); ok {
			w.Value = raw
		} else {
			w.Value, err = json.Marshal(d.Value)
		}
	default:
		return nil, fmt.Errorf("marshaling diff: unknown type %q", d.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("marshaling diff at %q: %w", w.Path, err)
	}
	return json.Marshal(w)
}

// UnmarshalDiff decodes one wire diff. Object values are decoded into the
// type addressed by the diff's path.
func UnmarshalDiff(schema *richtext.Schema, data []byte) (Diff, error) {
	var w wireDiff
	if err := json.Unmarshal(data, &w); err != nil {
		return Diff{}, fmt.Errorf("decoding diff: %w", err)
	}
	d := Diff{Type: w.Type, Path: docpath.Parse(w.Path), Timestamp: w.Timestamp}
	switch w.Type {
	case TypeSteps:
		steps, err := richtext.UnmarshalSteps(schema, orEmptyArray(w.TransactionSteps))
		if err != nil {
			return Diff{}, fmt.Errorf("decoding diff at %q: %w", w.Path, err)
		}
		d.Steps = steps
	case TypeObject:
		v, err := docpath.Typed(d.Path, orNull(w.Value))
		if err != nil {
			return Diff{}, fmt.Errorf("decoding diff at %q: %w", w.Path, err)
		}
		d.Value = v
	default:
		return Diff{}, fmt.Errorf("decoding diff: unknown type %q", w.Type)
	}
	return d, nil
}

// UnmarshalDiffs decodes a JSON array of wire diffs.
func UnmarshalDiffs(schema *richtext.Schema, data []byte) ([]Diff, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding diffs: %w", err)
	}
	var out []Diff
	for i, r := range raw {
		d, err := UnmarshalDiff(schema, r)
		if err != nil {
			return nil, fmt.Errorf("diff %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Diffs flattens an applied change into raw diffs. after is the manuscript
// the change produced; list changes are recorded as the whole resulting list.
func Diffs(c Change, after types.Manuscript) ([]Diff, error) {
	return flatten(c, after, false)
}

// InverseDiffs returns the raw diffs that undo c. before is the manuscript
// c was applied to.
func InverseDiffs(c Change, before types.Manuscript) ([]Diff, error) {
	diffs, err := flatten(c, before, true)
	if err != nil {
		return nil, err
	}
	// Undo replays the members of a batch in reverse order.
	for i, j := 0, len(diffs)-1; i < j; i, j = i+1, j-1 {
		diffs[i], diffs[j] = diffs[j], diffs[i]
	}
	return diffs, nil
}

func flatten(c Change, m types.Manuscript, inverse bool) ([]Diff, error) {
	ts := c.Timestamp()
	switch c := c.(type) {
	case *ProsemirrorChange:
		tx := c.Transaction
		if inverse {
			tx = tx.Invert()
		}
		return []Diff{{Type: TypeSteps, Path: c.path, Timestamp: ts, Steps: tx.Steps}}, nil
	case *AddObjectChange, *DeleteObjectChange, *RearrangingChange:
		v, err := docpath.Get(m, c.Path())
		if err != nil {
			return nil, err
		}
		return []Diff{{Type: TypeObject, Path: c.Path(), Timestamp: ts, Value: v}}, nil
	case *UpdateObjectChange:
		var out []Diff
		for _, d := range c.Differences {
			v := d.New
			if inverse {
				v = d.Old
			}
			out = append(out, Diff{Type: TypeObject, Path: c.path.Field(d.Field), Timestamp: ts, Value: v})
		}
		return out, nil
	case *BatchChange:
		var out []Diff
		for _, member := range c.Changes {
			diffs, err := flatten(member, m, inverse)
			if err != nil {
				return nil, err
			}
			out = append(out, diffs...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("flattening change: unsupported change %T", c)
	}
}

// ApplyDiff replays one raw diff. A steps diff against a value that is not
// a rich-text field fails with a *docpath.TypeError.
func ApplyDiff(m types.Manuscript, d Diff) (types.Manuscript, error) {
	switch d.Type {
	case TypeSteps:
		if _, err := docpath.GetField(m, d.Path); err != nil {
			return m, err
		}
		return applySteps(m, d.Path, d.Steps)
	case TypeObject:
		return docpath.Update(m, d.Path, d.Value)
	default:
		return m, fmt.Errorf("applying diff: unknown type %q", d.Type)
	}
}

// ApplyDiffs replays diffs in order.
func ApplyDiffs(m types.Manuscript, diffs []Diff) (types.Manuscript, error) {
	next := m
	for i, d := range diffs {
		var err error
		if next, err = ApplyDiff(next, d); err != nil {
			return m, fmt.Errorf("diff %d at %q: %w", i, d.Path.String(), err)
		}
	}
	return next, nil
}
