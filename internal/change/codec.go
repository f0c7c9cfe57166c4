// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package change

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
)

// wireChange is the JSON form of every change type.
type wireChange struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Timestamp int64  `json:"timestamp"`

	TransactionSteps json.RawMessage `json:"transactionSteps,omitempty"`

	Object       json.RawMessage `json:"object,omitempty"`
	IDField      string          `json:"idField,omitempty"`
	RemovedIndex *int            `json:"removedIndex,omitempty"`

	Differences []wireDifference `json:"differences,omitempty"`

	Order []int `json:"order,omitempty"`

	Changes []json.RawMessage `json:"changes,omitempty"`
}

// wireDifference follows the deep-diff record shape: kind "N" (new),
// "D" (deleted) or "E" (edited), a path, and the left/right values.
type wireDifference struct {
	Kind string          `json:"kind"`
	Path []string        `json:"path"`
	LHS  json.RawMessage `json:"lhs,omitempty"`
	RHS  json.RawMessage `json:"rhs,omitempty"`
}

// Marshal encodes c in its wire form.
func Marshal(c Change) ([]byte, error) {
	w, err := toWire(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWire(c Change) (wireChange, error) {
	w := wireChange{Type: c.Type(), Path: c.Path().String(), Timestamp: c.Timestamp()}
	var err error
	switch c := c.(type) {
	case *ProsemirrorChange:
		w.TransactionSteps, err = richtext.MarshalSteps(c.Transaction.Steps)
	case *AddObjectChange:
		w.IDField = c.IDField
		w.Object, err = json.Marshal(c.Object)
	case *DeleteObjectChange:
		w.IDField = c.IDField
		idx := c.RemovedIndex
		w.RemovedIndex = &idx
		w.Object, err = json.Marshal(c.Object)
	case *UpdateObjectChange:
		for _, d := range c.Differences {
			wd := wireDifference{Kind: diffKind(d), Path: []string{d.Field}}
			if wd.Kind != "N" {
				if wd.LHS, err = json.Marshal(d.Old); err != nil {
					break
				}
			}
			if wd.Kind != "D" {
				if wd.RHS, err = json.Marshal(d.New); err != nil {
					break
				}
			}
			w.Differences = append(w.Differences, wd)
		}
	case *RearrangingChange:
		w.Order = c.Order
	case *BatchChange:
		for _, member := range c.Changes {
			var data []byte
			if data, err = Marshal(member); err != nil {
				break
			}
			w.Changes = append(w.Changes, data)
		}
	default:
		return w, fmt.Errorf("marshaling change: unsupported change %T", c)
	}
	if err != nil {
		return w, fmt.Errorf("marshaling %s change at %q: %w", w.Type, w.Path, err)
	}
	return w, nil
}

func diffKind(d Difference) string {
	switch {
	case isZero(d.Old):
		return "N"
	case isZero(d.New):
		return "D"
	default:
		return "E"
	}
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}

// Unmarshal decodes a change from its wire form. Steps are validated
// against schema; object values are decoded into the types addressed by
// the change's path.
func Unmarshal(schema *richtext.Schema, data []byte) (Change, error) {
	var w wireChange
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding change: %w", err)
	}
	path := docpath.Parse(w.Path)
	b := base{path: path, timestamp: w.Timestamp}

	switch w.Type {
	case TypeSteps:
		steps, err := richtext.UnmarshalSteps(schema, orEmptyArray(w.TransactionSteps))
		if err != nil {
			return nil, fmt.Errorf("decoding steps change at %q: %w", w.Path, err)
		}
		return &ProsemirrorChange{base: b, Transaction: &richtext.Transaction{Steps: steps}}, nil

	case TypeAddObject, TypeDeleteObject:
		obj, err := docpath.Typed(path.Index(0), orNull(w.Object))
		if err != nil {
			return nil, fmt.Errorf("decoding %s object at %q: %w", w.Type, w.Path, err)
		}
		if w.Type == TypeAddObject {
			return &AddObjectChange{base: b, Object: obj, IDField: w.IDField}, nil
		}
		idx := -1
		if w.RemovedIndex != nil {
			idx = *w.RemovedIndex
		}
		return &DeleteObjectChange{base: b, Object: obj, IDField: w.IDField, RemovedIndex: idx}, nil

	case TypeUpdateObject:
		c := &UpdateObjectChange{base: b}
		for _, wd := range w.Differences {
			if len(wd.Path) != 1 {
				return nil, fmt.Errorf("decoding update at %q: nested difference path %v", w.Path, wd.Path)
			}
			fieldPath := path.Field(wd.Path[0])
			oldV, err := docpath.Typed(fieldPath, orNull(wd.LHS))
			if err != nil {
				return nil, fmt.Errorf("decoding update at %q: %w", w.Path, err)
			}
			newV, err := docpath.Typed(fieldPath, orNull(wd.RHS))
			if err != nil {
				return nil, fmt.Errorf("decoding update at %q: %w", w.Path, err)
			}
			c.Differences = append(c.Differences, Difference{Field: wd.Path[0], Old: oldV, New: newV})
		}
		return c, nil

	case TypeRearranging:
		return &RearrangingChange{base: b, Order: w.Order}, nil

	case TypeBatch:
		c := &BatchChange{base: b}
		for i, raw := range w.Changes {
			member, err := Unmarshal(schema, raw)
			if err != nil {
				return nil, fmt.Errorf("decoding batch member %d: %w", i, err)
			}
			c.Changes = append(c.Changes, member)
		}
		return c, nil

	default:
		return nil, fmt.Errorf("decoding change: unknown type %q", w.Type)
	}
}

// MarshalList encodes changes as a JSON array.
func MarshalList(changes []Change) ([]byte, error) {
	out := make([]wireChange, 0, len(changes))
	for _, c := range changes {
		w, err := toWire(c)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

// UnmarshalList decodes a JSON array of changes.
func UnmarshalList(schema *richtext.Schema, data []byte) ([]Change, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding change list: %w", err)
	}
	var out []Change
	for i, r := range raw {
		c, err := Unmarshal(schema, r)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

func orEmptyArray(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}
	return raw
}
