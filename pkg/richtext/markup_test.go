// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkup(t *testing.T) {
	italic := Mark{Type: MarkItalic}
	tests := []struct {
		name   string
		markup string
		want   *Node
	}{
		{
			name:   "empty",
			markup: "",
			want:   NewDoc(NewParagraph()),
		},
		{
			name:   "bare inline text",
			markup: "Hello <italic>world</italic>",
			want:   NewDoc(NewParagraph(NewText("Hello "), NewText("world", italic))),
		},
		{
			name:   "html aliases for marks",
			markup: "<i>in</i> <b>out</b>",
			want:   NewDoc(NewParagraph(NewText("in", italic), NewText(" "), NewText("out", Mark{Type: MarkBold}))),
		},
		{
			name:   "nested marks",
			markup: "<bold>H<sub>2</sub>O</bold>",
			want: NewDoc(NewParagraph(
				NewText("H", Mark{Type: MarkBold}),
				NewText("2", Mark{Type: MarkBold}, Mark{Type: MarkSubscript}),
				NewText("O", Mark{Type: MarkBold}),
			)),
		},
		{
			name:   "paragraphs",
			markup: "<p>One</p>\n<p>Two</p>",
			want:   NewDoc(NewParagraph(NewText("One")), NewParagraph(NewText("Two"))),
		},
		{
			name:   "citation",
			markup: `See <xref ref-type="bibr" rid="bib1 bib2">Smith, 2020</xref>.`,
			want:   NewDoc(NewParagraph(NewText("See "), NewCitation("Smith, 2020", "bib1", "bib2"), NewText("."))),
		},
		{
			name:   "figure with caption",
			markup: `<p>Intro</p><fig id="f1"><caption>A <italic>cat</italic></caption></fig>`,
			want: NewDoc(
				NewParagraph(NewText("Intro")),
				&Node{Type: TypeFigure, Attrs: map[string]any{"id": "f1"}, Content: []*Node{
					{Type: TypeCaption, Content: []*Node{NewParagraph(NewText("A "), NewText("cat", italic))}},
				}},
			),
		},
		{
			name:   "unknown elements keep their text",
			markup: `<span class="x">Hi</span> there`,
			want:   NewDoc(NewParagraph(NewText("Hi there"))),
		},
		{
			name:   "escaped text",
			markup: "a &amp; b &lt; c",
			want:   NewDoc(NewParagraph(NewText("a & b < c"))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseMarkup(DefaultSchema, tt.markup)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, f.Doc, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ParseMarkup() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMarkup_PlainSchemaFlattens(t *testing.T) {
	f, err := ParseMarkup(PlainSchema, `Cell <italic>walls</italic> <xref ref-type="bibr" rid="bib1">[1]</xref>`)
	require.NoError(t, err)
	assert.True(t, Equal(NewDoc(NewParagraph(NewText("Cell walls [1]"))), f.Doc))
}

func TestRenderMarkup_RoundTrip(t *testing.T) {
	tests := []string{
		"",
		"Hello <italic>world</italic>",
		"<p>One</p><p>Two</p>",
		`See <xref ref-type="bibr" rid="bib1">Smith, 2020</xref>.`,
		`<p>Intro</p><fig id="f1"><caption>A <italic>cat</italic></caption></fig>`,
		"a &amp; b",
	}
	for _, markup := range tests {
		t.Run(markup, func(t *testing.T) {
			f, err := ParseMarkup(DefaultSchema, markup)
			require.NoError(t, err)
			assert.Equal(t, markup, RenderMarkup(f))
		})
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(DefaultSchema, `<p onclick="x()">Hi <script>alert(1)</script><xref ref-type="bibr" rid="b1" style="color:red">1</xref></p>`)
	assert.NotContains(t, got, "onclick")
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "style")
	assert.Contains(t, got, `rid="b1"`)
}
