// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package richtext

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	policyMu sync.Mutex
	policies = map[*Schema]*bluemonday.Policy{}
)

// Sanitize strips every element and attribute the schema does not know
// from markup. Text content of removed elements is kept.
func Sanitize(schema *Schema, markup string) string {
	return policyFor(schema).Sanitize(markup)
}

func policyFor(schema *Schema) *bluemonday.Policy {
	policyMu.Lock()
	defer policyMu.Unlock()
	if p, ok := policies[schema]; ok {
		return p
	}
	p := bluemonday.NewPolicy()
	for _, spec := range schema.Nodes {
		if len(spec.Tags) == 0 {
			continue
		}
		p.AllowElements(spec.Tags...)
		attrs := append(slices.Clone(spec.Attrs), slices.Collect(maps.Keys(spec.Fixed))...)
		if len(attrs) > 0 {
			p.AllowAttrs(attrs...).OnElements(spec.Tags...)
		}
	}
	for _, spec := range schema.Marks {
		p.AllowElements(spec.Tags...)
	}
	policies[schema] = p
	return p
}

// ParseMarkup sanitizes markup and parses it into a field. Text outside any
// block is wrapped in paragraphs; elements the schema does not know are
// skipped and their text kept.
func ParseMarkup(schema *Schema, markup string) (*Field, error) {
	p := &markupParser{schema: schema, doc: &Node{Type: TypeDoc}}
	p.stack = []*Node{p.doc}

	z := html.NewTokenizer(strings.NewReader(Sanitize(schema, markup)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parsing markup: %w", err)
			}
			doc := p.finish()
			if err := schema.Validate(doc); err != nil {
				return nil, fmt.Errorf("parsing markup: %w", err)
			}
			return &Field{Doc: doc}, nil
		case html.StartTagToken:
			p.start(z.Token())
		case html.SelfClosingTagToken:
			tok := z.Token()
			p.start(tok)
			p.end(tok.Data)
		case html.EndTagToken:
			p.end(z.Token().Data)
		case html.TextToken:
			p.text(string(z.Text()))
		}
	}
}

// MustParseMarkup is ParseMarkup with the default schema for markup known to
// be valid, such as literals in tests and fixtures.
func MustParseMarkup(markup string) *Field {
	f, err := ParseMarkup(DefaultSchema, markup)
	if err != nil {
		panic(err)
	}
	return f
}

type openMark struct {
	tag  string
	mark Mark
}

// markupParser builds a fresh tree; nodes are only appended to while the
// parse is in progress and never after it returns.
type markupParser struct {
	schema  *Schema
	doc     *Node
	stack   []*Node
	marks   []openMark
	atom    *Node
	atomTag string
	label   strings.Builder
}

func (p *markupParser) top() *Node { return p.stack[len(p.stack)-1] }

func (p *markupParser) start(tok html.Token) {
	if p.atom != nil {
		return
	}
	if typ, ok := p.schema.markForTag(tok.Data); ok {
		p.marks = append(p.marks, openMark{tag: tok.Data, mark: Mark{Type: typ}})
		return
	}
	typ, spec, ok := p.schema.nodeForTag(tok.Data)
	if !ok || !matchesFixed(tok, spec.Fixed) {
		slog.Debug("skipping unknown markup element", "element", tok.Data, "schema", p.schema.Name)
		return
	}
	node := &Node{Type: typ, Attrs: attrsFrom(tok, spec.Attrs)}
	if spec.Inline {
		container := p.inlineContainer(typ)
		if container == nil {
			slog.Debug("skipping misplaced inline element", "element", tok.Data, "parent", p.top().Type)
			return
		}
		container.Content = append(container.Content, node)
		if spec.Atom {
			p.atom, p.atomTag = node, tok.Data
			p.label.Reset()
		}
		return
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.schema.Allows(p.stack[i].Type, typ) {
			p.stack = p.stack[:i+1]
			parent := p.top()
			parent.Content = append(parent.Content, node)
			p.stack = append(p.stack, node)
			return
		}
	}
	slog.Debug("skipping misplaced block element", "element", tok.Data, "parent", p.top().Type)
}

func (p *markupParser) end(tag string) {
	if p.atom != nil {
		if tag == p.atomTag {
			p.closeAtom()
		}
		return
	}
	if _, ok := p.schema.markForTag(tag); ok {
		for i := len(p.marks) - 1; i >= 0; i-- {
			if p.marks[i].tag == tag {
				p.marks = slices.Delete(p.marks, i, i+1)
				break
			}
		}
		return
	}
	typ, spec, ok := p.schema.nodeForTag(tag)
	if !ok || spec.Inline {
		return
	}
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].Type == typ {
			p.stack = p.stack[:i]
			return
		}
	}
}

func (p *markupParser) text(s string) {
	if p.atom != nil {
		p.label.WriteString(s)
		return
	}
	if !p.schema.Allows(p.top().Type, TypeText) && strings.TrimSpace(s) == "" {
		return
	}
	container := p.inlineContainer(TypeText)
	if container == nil {
		slog.Debug("dropping text outside any text block", "parent", p.top().Type)
		return
	}
	var marks []Mark
	for _, m := range p.marks {
		marks = append(marks, m.mark)
	}
	if n := len(container.Content); n > 0 {
		last := container.Content[n-1]
		if last.IsText() && reflect.DeepEqual(last.Marks, marks) {
			last.Text += s
			return
		}
	}
	container.Content = append(container.Content, &Node{Type: TypeText, Text: s, Marks: marks})
}

// inlineContainer returns the node that receives an inline node of type typ,
// opening an implicit paragraph when the current block only holds blocks.
func (p *markupParser) inlineContainer(typ string) *Node {
	top := p.top()
	if p.schema.Allows(top.Type, typ) {
		return top
	}
	if p.schema.Allows(top.Type, TypeParagraph) && p.schema.Allows(TypeParagraph, typ) {
		para := &Node{Type: TypeParagraph}
		top.Content = append(top.Content, para)
		p.stack = append(p.stack, para)
		return para
	}
	return nil
}

func (p *markupParser) closeAtom() {
	spec := p.schema.Nodes[p.atom.Type]
	if spec.LabelAttr != "" {
		if p.atom.Attrs == nil {
			p.atom.Attrs = map[string]any{}
		}
		p.atom.Attrs[spec.LabelAttr] = p.label.String()
	}
	p.atom, p.atomTag = nil, ""
}

func (p *markupParser) finish() *Node {
	if p.atom != nil {
		p.closeAtom()
	}
	Walk(p.doc, func(_ Path, n *Node) bool {
		if spec := p.schema.Nodes[n.Type]; spec.Fill != "" && len(n.Content) == 0 {
			n.Content = []*Node{{Type: spec.Fill}}
		}
		return true
	})
	return p.doc
}

func matchesFixed(tok html.Token, fixed map[string]string) bool {
	for _, a := range tok.Attr {
		if want, ok := fixed[a.Key]; ok && a.Val != want {
			return false
		}
	}
	return true
}

func attrsFrom(tok html.Token, keys []string) map[string]any {
	var attrs map[string]any
	for _, a := range tok.Attr {
		if !slices.Contains(keys, a.Key) {
			continue
		}
		if attrs == nil {
			attrs = map[string]any{}
		}
		attrs[a.Key] = a.Val
	}
	return attrs
}

// RenderMarkup renders a field as markup using the default schema. A
// document holding a single paragraph renders without the paragraph element.
func RenderMarkup(f *Field) string {
	if f == nil || f.Doc == nil {
		return ""
	}
	return RenderNode(DefaultSchema, f.Doc)
}

// RenderNode renders the content of n as markup.
func RenderNode(schema *Schema, n *Node) string {
	r := renderer{schema: schema}
	var b strings.Builder
	for _, h := range r.children(n) {
		_ = html.Render(&b, h)
	}
	return b.String()
}

type renderer struct {
	schema *Schema
}

func (r renderer) children(n *Node) []*html.Node {
	content := n.Content
	if spec := r.schema.Nodes[n.Type]; spec.Fill != "" && len(content) == 1 && content[0].Type == spec.Fill {
		content = content[0].Content
	}
	var out []*html.Node
	for _, child := range content {
		if h := r.node(child); h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (r renderer) node(n *Node) *html.Node {
	if n.IsText() {
		h := &html.Node{Type: html.TextNode, Data: n.Text}
		for i := len(n.Marks) - 1; i >= 0; i-- {
			tag := r.schema.tagFor(n.Marks[i].Type)
			if tag == "" {
				continue
			}
			el := &html.Node{Type: html.ElementNode, Data: tag}
			el.AppendChild(h)
			h = el
		}
		return h
	}
	spec, ok := r.schema.Nodes[n.Type]
	tag := r.schema.tagFor(n.Type)
	if !ok || tag == "" {
		slog.Debug("not rendering node without markup element", "type", n.Type)
		return nil
	}
	el := &html.Node{Type: html.ElementNode, Data: tag}
	for _, k := range slices.Sorted(maps.Keys(spec.Fixed)) {
		el.Attr = append(el.Attr, html.Attribute{Key: k, Val: spec.Fixed[k]})
	}
	for _, k := range spec.Attrs {
		if v := n.Attr(k); v != "" {
			el.Attr = append(el.Attr, html.Attribute{Key: k, Val: v})
		}
	}
	if spec.LabelAttr != "" {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: n.Attr(spec.LabelAttr)})
		return el
	}
	for _, h := range r.children(n) {
		el.AppendChild(h)
	}
	return el
}
