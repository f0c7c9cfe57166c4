// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/docpath"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// licenseCCBY is the license whose copyright statement is derived from the
// author list and publication year.
const licenseCCBY = "CC-BY-4"

// AffiliationLabels numbers affiliations 1, 2, 3... in the order authors
// first reference them. Unreferenced affiliations get no label.
func AffiliationLabels(authors []types.Person) map[string]string {
	labels := make(map[string]string)
	for _, a := range authors {
		for _, id := range a.Affiliations {
			if _, seen := labels[id]; !seen {
				labels[id] = strconv.Itoa(len(labels) + 1)
			}
		}
	}
	return labels
}

// relabelAffiliations returns one label update per affiliation whose label
// no longer matches the author order.
func relabelAffiliations(m types.Manuscript) ([]change.Change, error) {
	labels := AffiliationLabels(m.Authors)
	var out []change.Change
	for i, aff := range m.Affiliations {
		if want := labels[aff.ID]; want != aff.Label {
			out = append(out, change.NewUpdateObjectChange(pathAffiliations.Index(i),
				change.Difference{Field: "label", Old: aff.Label, New: want}))
		}
	}
	return out, nil
}

// CopyrightStatement derives the statement for a CC-BY-4 manuscript:
// "© 2024, Lovelace", "© 2024, Lovelace and Turing" or
// "© 2024, Lovelace et al". It returns "" for other licenses.
func CopyrightStatement(info types.ArticleInformation, authors []types.Person) string {
	if info.LicenseType != licenseCCBY {
		return ""
	}
	var holders string
	switch len(authors) {
	case 0:
	case 1:
		holders = authors[0].LastName
	case 2:
		holders = authors[0].LastName + " and " + authors[1].LastName
	default:
		holders = authors[0].LastName + " et al"
	}

	parts := []string{"©"}
	year := publicationYear(info.PublishedDate)
	switch {
	case year != "" && holders != "":
		parts = append(parts, year+",", holders)
	case year != "":
		parts = append(parts, year)
	case holders != "":
		parts = append(parts, holders)
	}
	return strings.Join(parts, " ")
}

func publicationYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}

// rederiveCopyright updates the copyright statement when the license derives
// it from authorship.
func rederiveCopyright(m types.Manuscript) ([]change.Change, error) {
	if m.ArticleInfo.LicenseType != licenseCCBY {
		return nil, nil
	}
	want := CopyrightStatement(m.ArticleInfo, m.Authors)
	if want == m.ArticleInfo.CopyrightStatement {
		return nil, nil
	}
	c := change.NewUpdateObjectChange(pathArticleInfo,
		change.Difference{Field: "copyrightStatement", Old: m.ArticleInfo.CopyrightStatement, New: want})
	return []change.Change{c}, nil
}

// CitationLabel is the in-text label of one reference: "Smith, 2020",
// "Smith and Jones, 2020" or "Smith et al., 2020".
func CitationLabel(r types.Reference) string {
	var names string
	switch len(r.Authors) {
	case 0:
	case 1:
		names = r.Authors[0].LastName
	case 2:
		names = r.Authors[0].LastName + " and " + r.Authors[1].LastName
	default:
		names = r.Authors[0].LastName + " et al."
	}
	switch {
	case names == "":
		return r.Year
	case r.Year == "":
		return names
	default:
		return names + ", " + r.Year
	}
}

// citationRefs splits the rid attribute of a citation node.
func citationRefs(n *richtext.Node) []string {
	return strings.Fields(n.Attr("rid"))
}

// rewriteCitations returns a derivation that brings every citation of refID
// in the body in line with the references of m: labels are recomputed, and
// ids of references that no longer exist are dropped. A citation left with
// no references is removed. Citations are rewritten last to first so
// removals do not shift the paths of citations still to visit.
func rewriteCitations(refID string) derivation {
	return func(m types.Manuscript) ([]change.Change, error) {
		body, err := docpath.GetField(m, pathBody)
		if err != nil {
			return nil, err
		}
		refs := make(map[string]types.Reference, len(m.References))
		for _, r := range m.References {
			refs[r.ID] = r
		}

		var paths []richtext.Path
		richtext.Walk(body.Doc, func(p richtext.Path, n *richtext.Node) bool {
			if n.Type == richtext.TypeCitation && slices.Contains(citationRefs(n), refID) {
				paths = append(paths, p)
			}
			return true
		})
		if len(paths) == 0 {
			return nil, nil
		}

		b := richtext.NewBuilder(body)
		for _, p := range slices.Backward(paths) {
			n, err := b.Doc().Resolve(p)
			if err != nil {
				return nil, err
			}
			var kept, labels []string
			for _, id := range citationRefs(n) {
				if r, ok := refs[id]; ok {
					kept = append(kept, id)
					labels = append(labels, CitationLabel(r))
				}
			}
			if len(kept) == 0 {
				err = b.RemoveNode(p)
			} else {
				err = b.SetAttrs(p, map[string]any{
					"rid":   strings.Join(kept, " "),
					"label": strings.Join(labels, "; "),
				})
			}
			if err != nil {
				return nil, fmt.Errorf("rewriting citation at %v: %w", p, err)
			}
		}
		return []change.Change{change.NewProsemirrorChange(pathBody, b.Transaction())}, nil
	}
}

// compareReferences orders references by first author surname, then year,
// then title.
func compareReferences(a, b types.Reference) int {
	return cmp.Or(
		cmp.Compare(strings.ToLower(firstSurname(a)), strings.ToLower(firstSurname(b))),
		cmp.Compare(a.Year, b.Year),
		cmp.Compare(strings.ToLower(referenceTitle(a)), strings.ToLower(referenceTitle(b))),
	)
}

func firstSurname(r types.Reference) string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0].LastName
}

func referenceTitle(r types.Reference) string {
	if r.Title == nil {
		return ""
	}
	return richtext.TextContent(r.Title.Doc)
}

// sortReferences returns the rearrangement that restores canonical
// reference order.
func sortReferences(m types.Manuscript) ([]change.Change, error) {
	sorted := slices.Clone(m.References)
	slices.SortStableFunc(sorted, compareReferences)
	c, err := change.RearrangingFromListRearrange(pathReferences, m.References, sorted,
		func(r types.Reference) string { return r.ID })
	if err != nil {
		return nil, err
	}
	return []change.Change{c}, nil
}
