package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document_editing_agent/generator"
)

const bio = "Intro paragraph.\n\n" +
	"# Biography\n\n" +
	"Max is an engineer\nin Berlin.\n\n" +
	"- Likes hiking\n- Plays *chess*\n\n" +
	"## Career\n\n" +
	"He worked at Acme.\n\n" +
	"```go\nfmt.Println(\"hi\")\n```\n\n" +
	"> Quote here\n\n" +
	"#### Deep heading\n"

func TestAnalyzeSemanticDocument(t *testing.T) {
	sd := Analyze([]byte(bio)).SemanticDocument()

	require.Len(t, sd.Sections, 4)
	assert.Equal(t, generator.Section{ID: "s0", Blocks: []string{"b1"}}, sd.Sections[0])
	assert.Equal(t, generator.Section{ID: "s1", Title: "Biography", Level: 1, Blocks: []string{"b2", "b3", "b4"}}, sd.Sections[1])
	assert.Equal(t, generator.Section{ID: "s2", Title: "Career", Level: 2, Blocks: []string{"b5", "b6", "b7"}}, sd.Sections[2])
	assert.Equal(t, generator.Section{ID: "s3", Title: "Deep heading", Level: 3, Blocks: []string{}}, sd.Sections[3])

	assert.Equal(t, map[string]generator.Block{
		"b1": {Type: "paragraph", Text: "Intro paragraph."},
		"b2": {Type: "paragraph", Text: "Max is an engineer in Berlin."},
		"b3": {Type: "list_item", Text: "Likes hiking"},
		"b4": {Type: "list_item", Text: "Plays chess"},
		"b5": {Type: "paragraph", Text: "He worked at Acme."},
		"b6": {Type: "code", Text: `fmt.Println("hi")`},
		"b7": {Type: "quote", Text: "Quote here"},
	}, sd.Blocks)
	assert.True(t, generator.ShouldUseSemantic(sd))
	assert.Empty(t, sd.DanglingRefs())
}

func TestAnalyzeWithoutLeadingText(t *testing.T) {
	sd := Analyze([]byte("# Title\n\nBody.\n")).SemanticDocument()
	require.Len(t, sd.Sections, 1)
	assert.Equal(t, "s1", sd.Sections[0].ID)
}

func TestAnalyzeEmpty(t *testing.T) {
	doc := Analyze(nil)
	assert.False(t, doc.HasContent())
	assert.False(t, generator.ShouldUseSemantic(doc.SemanticDocument()))

	ctx := doc.Context("anything")
	assert.False(t, ctx.HasContent)
	assert.Empty(t, ctx.Headings)
	assert.Empty(t, ctx.HeadingHierarchy)
	assert.Empty(t, ctx.RelevantContent)
	assert.Empty(t, ctx.ContentSummary)
}

func TestHeadingsAndHierarchy(t *testing.T) {
	doc := Analyze([]byte(bio))
	assert.Equal(t, []generator.Heading{
		{Text: "Biography", Level: 1},
		{Text: "Career", Level: 2},
		{Text: "Deep heading", Level: 3},
	}, doc.Headings())
	assert.Equal(t, "- Biography (H1)\n  - Career (H2)\n    - Deep heading (H3)", doc.Hierarchy())
}

func TestSummary(t *testing.T) {
	doc := Analyze([]byte(bio))
	assert.Equal(t, "Intro paragraph. Max is an engineer in Berlin. Likes hiking Plays chess He worked at Acme.", doc.Summary())

	assert.Equal(t, "a b", digest("  a\tb\n c ", 3))
	assert.Equal(t, "héé", digest("héé llo", 3))
}

func TestRelevant(t *testing.T) {
	doc := Analyze([]byte(bio))

	got := doc.Relevant("Add career history at Acme")
	require.Len(t, got, 1)
	assert.Equal(t, "Career", got[0].Heading)
	assert.Equal(t, 2, got[0].Level)
	assert.Equal(t, []string{"He worked at Acme.", `fmt.Println("hi")`, "Quote here"}, got[0].Paragraphs)

	assert.Empty(t, doc.Relevant("add the more"))
	assert.Empty(t, doc.Relevant("zebra"))
}

func TestRelevantRanksTitleMatches(t *testing.T) {
	src := "# Hiking\n\nTrails.\n\n# Notes\n\nI like hiking and chess.\n\n# Other\n\nNothing.\n"
	got := Analyze([]byte(src)).Relevant("hiking")
	require.Len(t, got, 2)
	assert.Equal(t, "Hiking", got[0].Heading)
	assert.Equal(t, "Notes", got[1].Heading)
}

func TestContext(t *testing.T) {
	ctx := Analyze([]byte(bio)).Context("career at acme")
	assert.True(t, ctx.HasContent)
	assert.Len(t, ctx.Headings, 3)
	assert.NotEmpty(t, ctx.HeadingHierarchy)
	require.Len(t, ctx.RelevantContent, 1)
	assert.Contains(t, ctx.ContentSummary, "Max is an engineer")
}
