// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"maps"
	"slices"

	"github.com/pdiddy/manuscript-history/pkg/richtext"
)

// Manuscript is the root structured document being edited. It is a value
// type: every edit produces a new Manuscript and never modifies an existing
// one. Rich-text fields are immutable snapshots shared between versions.
type Manuscript struct {
	// ID identifies the manuscript (e.g. "e1000123").
	ID string `json:"id" yaml:"id"`

	// Title, Abstract, ImpactStatement, Acknowledgements and Body are
	// rich-text fields.
	Title            *richtext.Field `json:"title,omitempty" yaml:"title,omitempty"`
	Abstract         *richtext.Field `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	ImpactStatement  *richtext.Field `json:"impactStatement,omitempty" yaml:"impactStatement,omitempty"`
	Acknowledgements *richtext.Field `json:"acknowledgements,omitempty" yaml:"acknowledgements,omitempty"`
	Body             *richtext.Field `json:"body,omitempty" yaml:"body,omitempty"`

	// Authors lists the authors in byline order. Affiliation labels are
	// derived from this order.
	Authors []Person `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Affiliations lists the institutions authors are affiliated with.
	Affiliations []Affiliation `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`

	// References is the bibliography, kept in canonical sort order.
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`

	// RelatedArticles links to other publications (corrections, commentary).
	RelatedArticles []RelatedArticle `json:"relatedArticles,omitempty" yaml:"relatedArticles,omitempty"`

	// KeywordGroups maps a group key (e.g. "author-keywords") to its group.
	KeywordGroups KeywordGroups `json:"keywordGroups,omitempty" yaml:"keywordGroups,omitempty"`

	// ArticleInfo holds publication metadata.
	ArticleInfo ArticleInformation `json:"articleInfo" yaml:"articleInfo"`
}

var manuscriptFields = newFieldTable(
	field("id", func(m *Manuscript) *string { return &m.ID }),
	field("title", func(m *Manuscript) **richtext.Field { return &m.Title }),
	field("abstract", func(m *Manuscript) **richtext.Field { return &m.Abstract }),
	field("impactStatement", func(m *Manuscript) **richtext.Field { return &m.ImpactStatement }),
	field("acknowledgements", func(m *Manuscript) **richtext.Field { return &m.Acknowledgements }),
	field("body", func(m *Manuscript) **richtext.Field { return &m.Body }),
	field("authors", func(m *Manuscript) *[]Person { return &m.Authors }),
	field("affiliations", func(m *Manuscript) *[]Affiliation { return &m.Affiliations }),
	field("references", func(m *Manuscript) *[]Reference { return &m.References }),
	field("relatedArticles", func(m *Manuscript) *[]RelatedArticle { return &m.RelatedArticles }),
	field("keywordGroups", func(m *Manuscript) *KeywordGroups { return &m.KeywordGroups }),
	field("articleInfo", func(m *Manuscript) *ArticleInformation { return &m.ArticleInfo }),
)

func (m Manuscript) Fields() []string                       { return manuscriptFields.fields() }
func (m Manuscript) Get(name string) (any, bool)            { return manuscriptFields.get(m, name) }
func (m Manuscript) Zero(name string) (any, bool)           { return manuscriptFields.zero(name) }
func (m Manuscript) Set(name string, v any) (Object, error) { return setField(manuscriptFields, m, name, v) }

// Person is a manuscript author.
type Person struct {
	ID                    string `json:"id" yaml:"id"`
	FirstName             string `json:"firstName" yaml:"firstName"`
	LastName              string `json:"lastName" yaml:"lastName"`
	Suffix                string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Email                 string `json:"email,omitempty" yaml:"email,omitempty"`
	ORCID                 string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
	IsCorrespondingAuthor bool   `json:"isCorrespondingAuthor,omitempty" yaml:"isCorrespondingAuthor,omitempty"`

	// Affiliations holds affiliation ids in the order the author lists them.
	Affiliations []string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`

	// Bio is the author's competing-interests or biography statement.
	Bio *richtext.Field `json:"bio,omitempty" yaml:"bio,omitempty"`
}

var personFields = newFieldTable(
	field("id", func(p *Person) *string { return &p.ID }),
	field("firstName", func(p *Person) *string { return &p.FirstName }),
	field("lastName", func(p *Person) *string { return &p.LastName }),
	field("suffix", func(p *Person) *string { return &p.Suffix }),
	field("email", func(p *Person) *string { return &p.Email }),
	field("orcid", func(p *Person) *string { return &p.ORCID }),
	field("isCorrespondingAuthor", func(p *Person) *bool { return &p.IsCorrespondingAuthor }),
	field("affiliations", func(p *Person) *[]string { return &p.Affiliations }),
	field("bio", func(p *Person) **richtext.Field { return &p.Bio }),
)

func (p Person) Fields() []string                       { return personFields.fields() }
func (p Person) Get(name string) (any, bool)            { return personFields.get(p, name) }
func (p Person) Zero(name string) (any, bool)           { return personFields.zero(name) }
func (p Person) Set(name string, v any) (Object, error) { return setField(personFields, p, name, v) }

// Affiliation is an institution. Label is derived from author order and is
// never edited directly.
type Affiliation struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`
	Department  string `json:"department,omitempty" yaml:"department,omitempty"`
	City        string `json:"city,omitempty" yaml:"city,omitempty"`
	Country     string `json:"country,omitempty" yaml:"country,omitempty"`
}

var affiliationFields = newFieldTable(
	field("id", func(a *Affiliation) *string { return &a.ID }),
	field("label", func(a *Affiliation) *string { return &a.Label }),
	field("institution", func(a *Affiliation) *string { return &a.Institution }),
	field("department", func(a *Affiliation) *string { return &a.Department }),
	field("city", func(a *Affiliation) *string { return &a.City }),
	field("country", func(a *Affiliation) *string { return &a.Country }),
)

func (a Affiliation) Fields() []string                       { return affiliationFields.fields() }
func (a Affiliation) Get(name string) (any, bool)            { return affiliationFields.get(a, name) }
func (a Affiliation) Zero(name string) (any, bool)           { return affiliationFields.zero(name) }
func (a Affiliation) Set(name string, v any) (Object, error) { return setField(affiliationFields, a, name, v) }

// ReferenceAuthor is one author of a cited work.
type ReferenceAuthor struct {
	FirstName string `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName  string `json:"lastName" yaml:"lastName"`
}

// Reference is one bibliography entry.
type Reference struct {
	ID string `json:"id" yaml:"id"`

	// Type is the publication type (e.g. "journal", "book", "preprint").
	Type    string            `json:"type,omitempty" yaml:"type,omitempty"`
	Authors []ReferenceAuthor `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    string            `json:"year,omitempty" yaml:"year,omitempty"`

	// Title is rich text so it can carry italic species names.
	Title     *richtext.Field `json:"title,omitempty" yaml:"title,omitempty"`
	Source    string          `json:"source,omitempty" yaml:"source,omitempty"`
	Volume    string          `json:"volume,omitempty" yaml:"volume,omitempty"`
	FirstPage string          `json:"firstPage,omitempty" yaml:"firstPage,omitempty"`
	LastPage  string          `json:"lastPage,omitempty" yaml:"lastPage,omitempty"`
	DOI       string          `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID      string          `json:"pmid,omitempty" yaml:"pmid,omitempty"`
}

var referenceFields = newFieldTable(
	field("id", func(r *Reference) *string { return &r.ID }),
	field("type", func(r *Reference) *string { return &r.Type }),
	field("authors", func(r *Reference) *[]ReferenceAuthor { return &r.Authors }),
	field("year", func(r *Reference) *string { return &r.Year }),
	field("title", func(r *Reference) **richtext.Field { return &r.Title }),
	field("source", func(r *Reference) *string { return &r.Source }),
	field("volume", func(r *Reference) *string { return &r.Volume }),
	field("firstPage", func(r *Reference) *string { return &r.FirstPage }),
	field("lastPage", func(r *Reference) *string { return &r.LastPage }),
	field("doi", func(r *Reference) *string { return &r.DOI }),
	field("pmid", func(r *Reference) *string { return &r.PMID }),
)

func (r Reference) Fields() []string                       { return referenceFields.fields() }
func (r Reference) Get(name string) (any, bool)            { return referenceFields.get(r, name) }
func (r Reference) Zero(name string) (any, bool)           { return referenceFields.zero(name) }
func (r Reference) Set(name string, v any) (Object, error) { return setField(referenceFields, r, name, v) }

// RelatedArticle links the manuscript to another publication.
type RelatedArticle struct {
	ID          string `json:"id" yaml:"id"`
	ArticleType string `json:"articleType,omitempty" yaml:"articleType,omitempty"`
	Href        string `json:"href,omitempty" yaml:"href,omitempty"`
}

var relatedArticleFields = newFieldTable(
	field("id", func(r *RelatedArticle) *string { return &r.ID }),
	field("articleType", func(r *RelatedArticle) *string { return &r.ArticleType }),
	field("href", func(r *RelatedArticle) *string { return &r.Href }),
)

func (r RelatedArticle) Fields() []string                       { return relatedArticleFields.fields() }
func (r RelatedArticle) Get(name string) (any, bool)            { return relatedArticleFields.get(r, name) }
func (r RelatedArticle) Zero(name string) (any, bool)           { return relatedArticleFields.zero(name) }
func (r RelatedArticle) Set(name string, v any) (Object, error) { return setField(relatedArticleFields, r, name, v) }

// Keyword is one keyword of a group.
type Keyword struct {
	ID      string          `json:"id" yaml:"id"`
	Content *richtext.Field `json:"content,omitempty" yaml:"content,omitempty"`
}

var keywordFields = newFieldTable(
	field("id", func(k *Keyword) *string { return &k.ID }),
	field("content", func(k *Keyword) **richtext.Field { return &k.Content }),
)

func (k Keyword) Fields() []string                       { return keywordFields.fields() }
func (k Keyword) Get(name string) (any, bool)            { return keywordFields.get(k, name) }
func (k Keyword) Zero(name string) (any, bool)           { return keywordFields.zero(name) }
func (k Keyword) Set(name string, v any) (Object, error) { return setField(keywordFields, k, name, v) }

// KeywordGroup is a titled list of keywords plus the draft keyword being
// typed in the group's input.
type KeywordGroup struct {
	Title      string    `json:"title,omitempty" yaml:"title,omitempty"`
	Keywords   []Keyword `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	NewKeyword Keyword   `json:"newKeyword" yaml:"newKeyword"`
}

var keywordGroupFields = newFieldTable(
	field("title", func(g *KeywordGroup) *string { return &g.Title }),
	field("keywords", func(g *KeywordGroup) *[]Keyword { return &g.Keywords }),
	field("newKeyword", func(g *KeywordGroup) *Keyword { return &g.NewKeyword }),
)

func (g KeywordGroup) Fields() []string                       { return keywordGroupFields.fields() }
func (g KeywordGroup) Get(name string) (any, bool)            { return keywordGroupFields.get(g, name) }
func (g KeywordGroup) Zero(name string) (any, bool)           { return keywordGroupFields.zero(name) }
func (g KeywordGroup) Set(name string, v any) (Object, error) { return setField(keywordGroupFields, g, name, v) }

// KeywordGroups maps group keys to groups. Its fields are the group keys.
type KeywordGroups map[string]KeywordGroup

// Fields returns the group keys in sorted order.
func (g KeywordGroups) Fields() []string {
	return slices.Sorted(maps.Keys(g))
}

func (g KeywordGroups) Get(key string) (any, bool) {
	group, ok := g[key]
	return group, ok
}

func (g KeywordGroups) Zero(string) (any, bool) {
	return KeywordGroup{}, true
}

// Set returns a copy of the map with key set to v.
func (g KeywordGroups) Set(key string, v any) (Object, error) {
	group, err := As[KeywordGroup](v)
	if err != nil {
		return nil, err
	}
	out := maps.Clone(g)
	if out == nil {
		out = KeywordGroups{}
	}
	out[key] = group
	return out, nil
}

// ArticleInformation holds publication metadata.
type ArticleInformation struct {
	DOI         string `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArticleType string `json:"articleType,omitempty" yaml:"articleType,omitempty"`
	Volume      string `json:"volume,omitempty" yaml:"volume,omitempty"`
	ElocationID string `json:"elocationId,omitempty" yaml:"elocationId,omitempty"`

	// PublishedDate is an ISO date ("2024-03-01"); its year feeds the
	// copyright statement.
	PublishedDate string `json:"publishedDate,omitempty" yaml:"publishedDate,omitempty"`

	// LicenseType is the license identifier (e.g. "CC-BY-4").
	LicenseType        string `json:"licenseType,omitempty" yaml:"licenseType,omitempty"`
	CopyrightStatement string `json:"copyrightStatement,omitempty" yaml:"copyrightStatement,omitempty"`
}

var articleInfoFields = newFieldTable(
	field("doi", func(a *ArticleInformation) *string { return &a.DOI }),
	field("articleType", func(a *ArticleInformation) *string { return &a.ArticleType }),
	field("volume", func(a *ArticleInformation) *string { return &a.Volume }),
	field("elocationId", func(a *ArticleInformation) *string { return &a.ElocationID }),
	field("publishedDate", func(a *ArticleInformation) *string { return &a.PublishedDate }),
	field("licenseType", func(a *ArticleInformation) *string { return &a.LicenseType }),
	field("copyrightStatement", func(a *ArticleInformation) *string { return &a.CopyrightStatement }),
)

func (a ArticleInformation) Fields() []string                       { return articleInfoFields.fields() }
func (a ArticleInformation) Get(name string) (any, bool)            { return articleInfoFields.get(a, name) }
func (a ArticleInformation) Zero(name string) (any, bool)           { return articleInfoFields.zero(name) }
func (a ArticleInformation) Set(name string, v any) (Object, error) { return setField(articleInfoFields, a, name, v) }
