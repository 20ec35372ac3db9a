// Package document builds the generator's document views from Markdown.
package document

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"document_editing_agent/generator"
)

const (
	maxHeadingLevel  = 3
	maxRelevant      = 3
	summaryRuneLimit = 1000
)

type block struct {
	id   string
	kind string
	text string
}

type section struct {
	id     string
	title  string
	level  int
	blocks []block
}

// Document is a parsed Markdown file. Sections appear in source order; text
// before the first heading lives in an untitled section "s0".
type Document struct {
	sections []section
}

// Analyze parses src as CommonMark.
func Analyze(src []byte) *Document {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	doc := &Document{}
	cur := &section{id: "s0"}
	nextSection, nextBlock := 0, 0
	add := func(kind, txt string) {
		if txt == "" {
			return
		}
		nextBlock++
		cur.blocks = append(cur.blocks, block{id: fmt.Sprintf("b%d", nextBlock), kind: kind, text: txt})
	}
	flush := func() {
		if cur.id != "s0" || len(cur.blocks) > 0 {
			doc.sections = append(doc.sections, *cur)
		}
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch t := n.(type) {
		case *ast.Heading:
			flush()
			level := t.Level
			if level > maxHeadingLevel {
				level = maxHeadingLevel
			}
			nextSection++
			cur = &section{id: fmt.Sprintf("s%d", nextSection), title: inlineText(t, src), level: level}
		case *ast.Paragraph, *ast.TextBlock:
			add("paragraph", inlineText(n, src))
		case *ast.List:
			for item := t.FirstChild(); item != nil; item = item.NextSibling() {
				add("list_item", inlineText(item, src))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			add("code", codeText(n, src))
		case *ast.Blockquote:
			add("quote", inlineText(n, src))
		}
	}
	flush()
	return doc
}

// HasContent reports whether the file had any heading or block.
func (d *Document) HasContent() bool {
	return len(d.sections) > 0
}

// Headings lists every heading in order.
func (d *Document) Headings() []generator.Heading {
	var out []generator.Heading
	for _, s := range d.sections {
		if s.level > 0 {
			out = append(out, generator.Heading{Text: s.title, Level: s.level})
		}
	}
	return out
}

// Hierarchy renders headings as an indented outline.
func (d *Document) Hierarchy() string {
	var sb strings.Builder
	for _, h := range d.Headings() {
		sb.WriteString(strings.Repeat("  ", h.Level-1))
		sb.WriteString(fmt.Sprintf("- %s (H%d)\n", h.Text, h.Level))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Summary joins paragraph text in order, whitespace-compacted and capped.
func (d *Document) Summary() string {
	var parts []string
	for _, s := range d.sections {
		for _, b := range s.blocks {
			if b.kind == "paragraph" || b.kind == "list_item" {
				parts = append(parts, b.text)
			}
		}
	}
	return digest(strings.Join(parts, " "), summaryRuneLimit)
}

// SemanticDocument returns the block graph for semantic mode.
func (d *Document) SemanticDocument() *generator.SemanticDocument {
	sd := &generator.SemanticDocument{Blocks: make(map[string]generator.Block)}
	for _, s := range d.sections {
		ids := make([]string, 0, len(s.blocks))
		for _, b := range s.blocks {
			ids = append(ids, b.id)
			sd.Blocks[b.id] = generator.Block{Type: b.kind, Text: b.text}
		}
		sd.Sections = append(sd.Sections, generator.Section{ID: s.id, Title: s.title, Level: s.level, Blocks: ids})
	}
	return sd
}

// Context returns the legacy view, with sections ranked against prompt.
func (d *Document) Context(prompt string) *generator.DocumentContext {
	return &generator.DocumentContext{
		Headings:         d.Headings(),
		HeadingHierarchy: d.Hierarchy(),
		RelevantContent:  d.Relevant(prompt),
		ContentSummary:   d.Summary(),
		HasContent:       d.HasContent(),
	}
}

// Relevant returns up to three sections sharing terms with prompt, best
// first. Title matches weigh double.
func (d *Document) Relevant(prompt string) []generator.ContentSection {
	terms := queryTerms(prompt)
	if len(terms) == 0 {
		return nil
	}
	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i, s := range d.sections {
		if len(s.blocks) == 0 {
			continue
		}
		score := 2 * countTerms(s.title, terms)
		for _, b := range s.blocks {
			score += countTerms(b.text, terms)
		}
		if score > 0 {
			hits = append(hits, scored{idx: i, score: score})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > maxRelevant {
		hits = hits[:maxRelevant]
	}

	out := make([]generator.ContentSection, 0, len(hits))
	for _, h := range hits {
		s := d.sections[h.idx]
		cs := generator.ContentSection{Heading: s.title, Level: s.level}
		for _, b := range s.blocks {
			cs.Paragraphs = append(cs.Paragraphs, b.text)
		}
		out = append(out, cs)
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "about": true, "this": true,
	"that": true, "add": true, "insert": true, "more": true, "into": true, "from": true,
	"his": true, "her": true, "their": true, "some": true, "section": true,
}

func queryTerms(prompt string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(prompt), notWordRune) {
		if len([]rune(w)) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func countTerms(s string, terms []string) int {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), notWordRune) {
		words[w] = true
	}
	n := 0
	for _, t := range terms {
		if words[t] {
			n++
		}
	}
	return n
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c != n && c.Type() == ast.TypeBlock && c.PreviousSibling() != nil {
			sb.WriteByte(' ')
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.AutoLink:
			sb.Write(t.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

func codeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// digest compacts whitespace and cuts to limit runes.
func digest(s string, limit int) string {
	joined := strings.Join(strings.Fields(s), " ")
	r := []rune(joined)
	if len(r) <= limit {
		return joined
	}
	return string(r[:limit])
}
