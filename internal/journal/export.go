// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manuscript-history/internal/change"
)

// ExportEntry is the exported form of a journal entry.
type ExportEntry struct {
	ID        string `json:"id" yaml:"id"`
	Seq       int64  `json:"seq" yaml:"seq"`
	Kind      string `json:"kind" yaml:"kind"`
	Type      string `json:"type" yaml:"type"`
	Path      string `json:"path" yaml:"path"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Change    any    `json:"change" yaml:"change"`
}

// ExportYAML writes the journal of a manuscript to <dir>/<id>-export.yaml
// and returns the file's path.
func (s *Store) ExportYAML(ctx context.Context, manuscriptID string) (string, error) {
	entries, err := s.exportEntries(ctx, manuscriptID)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.dir, manuscriptID+"-export.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the journal of a manuscript to <dir>/<id>-export.json
// and returns the file's path.
func (s *Store) ExportJSON(ctx context.Context, manuscriptID string) (string, error) {
	entries, err := s.exportEntries(ctx, manuscriptID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.dir, manuscriptID+"-export.json")
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, manuscriptID string) ([]ExportEntry, error) {
	entries, err := s.List(ctx, manuscriptID, 0)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	out := make([]ExportEntry, len(entries))
	for i, e := range entries {
		payload, err := change.Marshal(e.Change)
		if err != nil {
			return nil, err
		}
		// Decode into plain maps so the YAML export shows the wire form.
		var wire any
		if err := json.Unmarshal(payload, &wire); err != nil {
			return nil, fmt.Errorf("decoding entry %d: %w", e.Seq, err)
		}
		out[i] = ExportEntry{
			ID:        e.ID,
			Seq:       e.Seq,
			Kind:      e.Kind,
			Type:      e.Change.Type(),
			Path:      e.Change.Path().String(),
			Timestamp: e.Change.Timestamp(),
			Change:    wire,
		}
	}
	return out, nil
}
