// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manuscript-history/internal/editor"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// loadManuscript reads a manuscript YAML file. Rich-text fields are markup.
func loadManuscript(path string) (types.Manuscript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Manuscript{}, fmt.Errorf("reading manuscript: %w", err)
	}
	var m types.Manuscript
	if err := yaml.Unmarshal(data, &m); err != nil {
		return types.Manuscript{}, fmt.Errorf("parsing manuscript %s: %w", path, err)
	}
	if m.ID == "" {
		return types.Manuscript{}, fmt.Errorf("manuscript %s has no id", path)
	}
	return m, nil
}

// saveManuscript writes m to path as YAML.
func saveManuscript(path string, m types.Manuscript) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manuscript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manuscript: %w", err)
	}
	return nil
}

// printSummary writes a short human-readable overview of m.
func printSummary(w io.Writer, m types.Manuscript) {
	fmt.Fprintf(w, "Manuscript %s\n", m.ID)
	fmt.Fprintf(w, "  Title:      %s\n", text(m.Title))

	labels := editor.AffiliationLabels(m.Authors)
	fmt.Fprintf(w, "  Authors:    %d\n", len(m.Authors))
	for _, a := range m.Authors {
		var sup []string
		for _, id := range a.Affiliations {
			sup = append(sup, labels[id])
		}
		fmt.Fprintf(w, "    %s %s", a.FirstName, a.LastName)
		if len(sup) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(sup, ","))
		}
		fmt.Fprintln(w)
	}
	for _, aff := range m.Affiliations {
		fmt.Fprintf(w, "    %s. %s\n", orDash(aff.Label), aff.Institution)
	}

	fmt.Fprintf(w, "  References: %d\n", len(m.References))
	for _, r := range m.References {
		fmt.Fprintf(w, "    %-10s %s\n", r.ID, editor.CitationLabel(r))
	}
	for _, key := range m.KeywordGroups.Fields() {
		g := m.KeywordGroups[key]
		var kws []string
		for _, k := range g.Keywords {
			kws = append(kws, text(k.Content))
		}
		fmt.Fprintf(w, "  Keywords (%s): %s\n", key, strings.Join(kws, ", "))
	}
	if m.ArticleInfo.CopyrightStatement != "" {
		fmt.Fprintf(w, "  Copyright:  %s\n", m.ArticleInfo.CopyrightStatement)
	}
}

func text(f *richtext.Field) string {
	if f == nil {
		return ""
	}
	return richtext.TextContent(f.Doc)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
