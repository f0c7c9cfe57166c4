// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// Get returns the value at p below root. Root is usually a Manuscript but
// may be any Object or list value.
func Get(root any, p Path) (any, error) {
	cur := root
	for depth, seg := range p {
		switch c := containerOf(cur).(type) {
		case types.List:
			i, err := index(seg, c.Len())
			if err != nil {
				return nil, fmt.Errorf("%q: %w", p[:depth+1].String(), err)
			}
			cur = c.At(i)
		case types.Object:
			v, ok := c.Get(seg)
			if !ok {
				return nil, fmt.Errorf("%q: %w", p[:depth+1].String(), ErrNotFound)
			}
			cur = v
		default:
			return nil, &TypeError{Path: p[:depth+1], Want: "object or list", Got: typeName(cur)}
		}
	}
	return cur, nil
}

// Set returns a copy of root with the value at p replaced by v. Only the
// containers on the path are copied; root itself is never modified. A
// json.RawMessage value is decoded into the type held at p.
func Set(root any, p Path, v any) (any, error) {
	if len(p) == 0 {
		return v, nil
	}
	return set(root, p, 0, v)
}

func set(cur any, p Path, depth int, v any) (any, error) {
	seg := p[depth]
	here := p[:depth+1]
	last := depth == len(p)-1

	switch c := containerOf(cur).(type) {
	case types.List:
		i, err := index(seg, c.Len())
		if err != nil {
			return nil, fmt.Errorf("%q: %w", here.String(), err)
		}
		val := v
		if !last {
			if val, err = set(c.At(i), p, depth+1, v); err != nil {
				return nil, err
			}
		}
		out, err := c.Replace(i, val)
		if err != nil {
			return nil, &TypeError{Path: here, Want: typeName(c.Zero()), Got: typeName(val)}
		}
		return out.Value(), nil

	case types.Object:
		val := v
		if !last {
			child, ok := c.Get(seg)
			if !ok {
				return nil, fmt.Errorf("%q: %w", here.String(), ErrNotFound)
			}
			var err error
			if val, err = set(child, p, depth+1, v); err != nil {
				return nil, err
			}
		}
		out, err := c.Set(seg, val)
		if errors.Is(err, types.ErrUnknownField) {
			return nil, fmt.Errorf("%q: %w", here.String(), ErrNotFound)
		}
		if err != nil {
			want, _ := c.Zero(seg)
			return nil, &TypeError{Path: here, Want: typeName(want), Got: typeName(val)}
		}
		return out, nil

	default:
		return nil, &TypeError{Path: here, Want: "object or list", Got: typeName(cur)}
	}
}

// Update returns a copy of m with the value at p replaced by v.
func Update(m types.Manuscript, p Path, v any) (types.Manuscript, error) {
	out, err := Set(m, p, v)
	if err != nil {
		return m, err
	}
	next, err := types.As[types.Manuscript](out)
	if err != nil {
		return m, &TypeError{Path: p, Want: "manuscript", Got: typeName(out)}
	}
	return next, nil
}

// GetField returns the rich-text field at p.
func GetField(root any, p Path) (*richtext.Field, error) {
	v, err := Get(root, p)
	if err != nil {
		return nil, err
	}
	f, ok := v.(*richtext.Field)
	if !ok {
		return nil, &TypeError{Path: p, Want: "rich-text field", Got: typeName(v)}
	}
	if f == nil {
		return richtext.Empty(), nil
	}
	return f, nil
}

// Typed decodes raw into the Go type of the value addressed by p in a
// Manuscript. List indexes and map keys need not exist.
func Typed(p Path, raw json.RawMessage) (any, error) {
	if len(p) == 0 {
		return types.As[types.Manuscript](raw)
	}
	var cur any = types.Manuscript{}
	for depth, seg := range p {
		here := p[:depth+1]
		last := depth == len(p)-1
		switch c := containerOf(cur).(type) {
		case types.List:
			if _, err := strconv.Atoi(seg); err != nil {
				return nil, fmt.Errorf("%q: %w", here.String(), ErrNotFound)
			}
			if !last {
				cur = c.Zero()
				continue
			}
			l, err := c.Insert(0, raw)
			if err != nil {
				return nil, &TypeError{Path: here, Want: typeName(c.Zero()), Got: string(raw)}
			}
			return l.At(0), nil
		case types.Object:
			zero, ok := c.Zero(seg)
			if !ok {
				return nil, fmt.Errorf("%q: %w", here.String(), ErrNotFound)
			}
			if !last {
				cur = zero
				continue
			}
			o, err := c.Set(seg, raw)
			if err != nil {
				return nil, &TypeError{Path: here, Want: typeName(zero), Got: string(raw)}
			}
			v, _ := o.Get(seg)
			return v, nil
		default:
			return nil, &TypeError{Path: here, Want: "object or list", Got: typeName(cur)}
		}
	}
	return cur, nil
}

// containerOf returns v as a List or Object, or nil if it is neither.
func containerOf(v any) any {
	if l, ok := types.ListOf(v); ok {
		return l
	}
	if o, ok := v.(types.Object); ok {
		return o
	}
	return nil
}

func index(seg string, n int) (int, error) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= n {
		return 0, fmt.Errorf("index %s of list of length %d: %w", seg, n, ErrNotFound)
	}
	return i, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case *richtext.Field:
		return "rich-text field"
	}
	if _, ok := types.ListOf(v); ok {
		return fmt.Sprintf("list %T", v)
	}
	return fmt.Sprintf("%T", v)
}
