// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"encoding/json"
	"fmt"
)

// stepJSON is the wire form of every step kind, discriminated by StepType.
type stepJSON struct {
	StepType string         `json:"stepType"`
	Path     Path           `json:"path"`
	From     int            `json:"from,omitempty"`
	To       int            `json:"to,omitempty"`
	Removed  json.RawMessage `json:"removed,omitempty"`
	Inserted json.RawMessage `json:"inserted,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Prev     map[string]any `json:"prev,omitempty"`
}

// MarshalStep encodes a step as JSON keyed by its stepType.
func MarshalStep(s Step) ([]byte, error) {
	w := stepJSON{StepType: s.Kind()}
	var err error
	switch s := s.(type) {
	case ReplaceStep:
		w.Path, w.From, w.To = s.Path, s.From, s.To
		if w.Removed, err = json.Marshal(nonNilNodes(s.Removed)); err != nil {
			return nil, err
		}
		if w.Inserted, err = json.Marshal(nonNilNodes(s.Inserted)); err != nil {
			return nil, err
		}
	case TextStep:
		w.Path, w.From, w.To = s.Path, s.From, s.To
		if w.Removed, err = json.Marshal(s.Removed); err != nil {
			return nil, err
		}
		if w.Inserted, err = json.Marshal(s.Inserted); err != nil {
			return nil, err
		}
	case AttrStep:
		w.Path, w.Attrs, w.Prev = s.Path, s.Attrs, s.Prev
	default:
		return nil, fmt.Errorf("marshaling step: unsupported step %T", s)
	}
	return json.Marshal(w)
}

// UnmarshalStep decodes a step produced by MarshalStep. Node content is
// validated against schema so a step can only be replayed if it fits it.
func UnmarshalStep(schema *Schema, data []byte) (Step, error) {
	var w stepJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding step: %w", err)
	}
	switch w.StepType {
	case StepReplace:
		s := ReplaceStep{Path: w.Path, From: w.From, To: w.To}
		if err := decodeNodes(schema, w.Removed, &s.Removed); err != nil {
			return nil, fmt.Errorf("decoding replace step removed content: %w", err)
		}
		if err := decodeNodes(schema, w.Inserted, &s.Inserted); err != nil {
			return nil, fmt.Errorf("decoding replace step inserted content: %w", err)
		}
		return s, nil
	case StepText:
		s := TextStep{Path: w.Path, From: w.From, To: w.To}
		if err := decodeString(w.Removed, &s.Removed); err != nil {
			return nil, fmt.Errorf("decoding text step: %w", err)
		}
		if err := decodeString(w.Inserted, &s.Inserted); err != nil {
			return nil, fmt.Errorf("decoding text step: %w", err)
		}
		return s, nil
	case StepAttrs:
		return AttrStep{Path: w.Path, Attrs: w.Attrs, Prev: w.Prev}, nil
	default:
		return nil, fmt.Errorf("decoding step: unknown stepType %q", w.StepType)
	}
}

// MarshalSteps encodes a list of steps as a JSON array.
func MarshalSteps(steps []Step) (json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(steps))
	for i, s := range steps {
		data, err := MarshalStep(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, data)
	}
	return json.Marshal(out)
}

// UnmarshalSteps decodes a JSON array of steps.
func UnmarshalSteps(schema *Schema, data []byte) ([]Step, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding steps: %w", err)
	}
	var steps []Step
	for i, r := range raw {
		s, err := UnmarshalStep(schema, r)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func decodeNodes(schema *Schema, data json.RawMessage, out *[]*Node) error {
	if len(data) == 0 {
		return nil
	}
	var nodes []*Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}
	for _, n := range nodes {
		if n == nil {
			return fmt.Errorf("null node")
		}
		if err := schema.Validate(n); err != nil {
			return err
		}
	}
	*out = normalize(nodes)
	return nil
}

func decodeString(data json.RawMessage, out *string) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func nonNilNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return []*Node{}
	}
	return nodes
}
