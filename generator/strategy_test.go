package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func bioDocument() *SemanticDocument {
	return &SemanticDocument{
		Sections: []Section{{ID: "s1", Title: "Biography", Level: 1, Blocks: []string{"b1"}}},
		Blocks:   map[string]Block{"b1": {Type: "paragraph", Text: "Max is an engineer."}},
	}
}

func TestShouldUseSemantic(t *testing.T) {
	tests := []struct {
		name string
		doc  *SemanticDocument
		want bool
	}{
		{"nil", nil, false},
		{"empty", &SemanticDocument{}, false},
		{"blocks without sections", &SemanticDocument{Blocks: map[string]Block{"b1": {Type: "paragraph"}}}, false},
		{"sections without blocks", &SemanticDocument{Sections: []Section{{ID: "s1"}}}, false},
		{"empty sections slice", &SemanticDocument{Sections: []Section{}, Blocks: map[string]Block{"b1": {}}}, false},
		{"both", bioDocument(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldUseSemantic(tt.doc))
			assert.Equal(t, tt.want, NewStrategy(tt.doc, PromptLimits{}, nil).Mode() == ModeSemantic)
		})
	}
}

func TestLegacyUserMessageMinimal(t *testing.T) {
	s := NewStrategy(nil, DefaultPromptLimits(), zap.NewNop())
	assert.Equal(t, legacySystemPrompt, s.SystemPrompt())

	msg, err := s.UserMessage(Request{Prompt: "Write an introduction about climate change"})
	require.NoError(t, err)
	assert.Equal(t, "User request: Write an introduction about climate change\n\nGenerate the EditPlan JSON:", msg)
}

func TestLegacyUserMessageSelection(t *testing.T) {
	s := NewStrategy(nil, DefaultPromptLimits(), nil)

	msg, err := s.UserMessage(Request{Prompt: "Fix this", SelectedRange: &SelectedRange{Text: "teh cat", Tag: "sel1"}})
	require.NoError(t, err)
	assert.Contains(t, msg, `Selected text: "teh cat"`)
	assert.Contains(t, msg, "replace_section with anchor 'selected'")
	assert.Less(t, strings.Index(msg, "User request: Fix this"), strings.Index(msg, "Selected text"))

	// a selection without a tag is not actionable
	msg, err = s.UserMessage(Request{Prompt: "Fix this", SelectedRange: &SelectedRange{Text: "teh cat"}})
	require.NoError(t, err)
	assert.NotContains(t, msg, "Selected text")
}

func TestLegacyUserMessageDocumentContext(t *testing.T) {
	limits := PromptLimits{MaxParagraphs: 2, MaxParagraphChars: 5, MaxSummaryChars: 4}
	s := NewStrategy(nil, limits, nil)

	dc := &DocumentContext{
		Headings:         []Heading{{Text: "John F Kennedy", Level: 1}, {Text: "Career", Level: 2}},
		HeadingHierarchy: "- John F Kennedy\n  - Career",
		RelevantContent: []ContentSection{{
			Heading:    "Career",
			Level:      2,
			Paragraphs: []string{"abcdefgh", "abc", "never shown"},
		}},
		ContentSummary: "summary text",
		HasContent:     true,
	}
	msg, err := s.UserMessage(Request{Prompt: "add more about his career", DocumentContext: dc})
	require.NoError(t, err)

	assert.Contains(t, msg, "hierarchical view")
	assert.NotContains(t, msg, "Current document structure (headings)")
	assert.Contains(t, msg, "Section (Heading 2): Career")
	assert.Contains(t, msg, "  abcde...\n")
	assert.Contains(t, msg, "  abc\n")
	assert.NotContains(t, msg, "never shown")
	assert.Contains(t, msg, "INTELLIGENT PLACEMENT INSTRUCTIONS")
	assert.NotContains(t, msg, "Document content summary")
	assert.Contains(t, msg, "CONTEXT AWARENESS INSTRUCTIONS")
	assert.Contains(t, msg, "already has content")
	assert.True(t, strings.HasSuffix(msg, "Generate the EditPlan JSON:"))

	order := []string{"User request:", "Document structure", "Relevant document content", "INTELLIGENT PLACEMENT", "CONTEXT AWARENESS", "already has content"}
	last := -1
	for _, marker := range order {
		i := strings.Index(msg, marker)
		require.Greater(t, i, last, marker)
		last = i
	}
}

func TestLegacyUserMessageFlatHeadingsAndSummary(t *testing.T) {
	s := NewStrategy(nil, PromptLimits{MaxSummaryChars: 4}, nil)
	dc := &DocumentContext{
		Headings:       []Heading{{Text: "Pyramids", Level: 1}},
		ContentSummary: "summary text",
	}
	msg, err := s.UserMessage(Request{Prompt: "add construction", DocumentContext: dc})
	require.NoError(t, err)
	assert.Contains(t, msg, "Current document structure (headings):\n  - Heading 1: Pyramids\n")
	assert.Contains(t, msg, "Document content summary (for context): summ...")
	assert.NotContains(t, msg, "already has content")
	assert.NotContains(t, msg, "INTELLIGENT PLACEMENT")
}

func TestLegacyUserMessageSkipsEmptyParagraphs(t *testing.T) {
	s := NewStrategy(nil, PromptLimits{MaxParagraphs: 2}, nil)
	dc := &DocumentContext{RelevantContent: []ContentSection{{
		Heading:    "Career",
		Level:      2,
		Paragraphs: []string{"", "first", "past the limit"},
	}}}
	msg, err := s.UserMessage(Request{Prompt: "x", DocumentContext: dc})
	require.NoError(t, err)
	assert.Contains(t, msg, "Section (Heading 2): Career\n  first\n\n")
	assert.NotContains(t, msg, "past the limit")
}

func TestLegacyUserMessageInstructionBlocks(t *testing.T) {
	s := NewStrategy(nil, DefaultPromptLimits(), nil)
	dc := &DocumentContext{
		Headings:        []Heading{{Text: "John F Kennedy", Level: 1}},
		RelevantContent: []ContentSection{{Heading: "John F Kennedy", Level: 1, Paragraphs: []string{"Born 1917."}}},
	}
	msg, err := s.UserMessage(Request{Prompt: "add more about career", DocumentContext: dc})
	require.NoError(t, err)
	assert.Contains(t, msg, "If 'Career' (H2) exists under 'John F Kennedy' (H1) and user says 'add more about career'")
	assert.Contains(t, msg, "* User: 'add construction details' + Doc has 'Pyramids' (H1) → insert after 'Pyramids' (H1)\n\n")
	assert.Contains(t, msg, "- If document has existing content, use insert_text instead of replace_section unless explicitly asked to replace\n\n")
}

func TestLegacyUserMessageHierarchyOnly(t *testing.T) {
	s := NewStrategy(nil, DefaultPromptLimits(), nil)
	msg, err := s.UserMessage(Request{Prompt: "x", DocumentContext: &DocumentContext{HeadingHierarchy: "- Intro (H1)"}})
	require.NoError(t, err)
	assert.Contains(t, msg, "- Intro (H1)\n\n")
	assert.NotContains(t, msg, "CONTEXT AWARENESS")
}

func TestLegacyUserMessageEmptyContext(t *testing.T) {
	s := NewStrategy(nil, DefaultPromptLimits(), nil)
	msg, err := s.UserMessage(Request{Prompt: "hello", DocumentContext: &DocumentContext{}})
	require.NoError(t, err)
	assert.NotContains(t, msg, "CONTEXT AWARENESS")
}

func TestSemanticUserMessage(t *testing.T) {
	doc := bioDocument()
	s := NewStrategy(doc, DefaultPromptLimits(), nil)
	assert.Equal(t, semanticSystemPrompt, s.SystemPrompt())

	req := Request{
		Prompt:           "Add his birth date",
		SemanticDocument: doc,
		DocumentContext:  &DocumentContext{ContentSummary: "ignored summary"},
		SelectedRange:    &SelectedRange{Text: "ignored", Tag: "t"},
	}
	msg, err := s.UserMessage(req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(msg, "User request: Add his birth date\n\n"))
	assert.Contains(t, msg, "Do NOT invent block IDs")
	assert.Contains(t, msg, "Do NOT use 'edit_plan' format")
	assert.Contains(t, msg, `"target_block_id"`)
	assert.NotContains(t, msg, "ignored")

	_, rest, ok := strings.Cut(msg, semanticDocumentHeader)
	require.True(t, ok)
	var embedded SemanticDocument
	require.NoError(t, json.NewDecoder(strings.NewReader(rest)).Decode(&embedded))
	assert.Equal(t, doc.Sections, embedded.Sections)
	assert.Equal(t, doc.Blocks, embedded.Blocks)
}

func TestSemanticUserMessageKeepsCallerGraph(t *testing.T) {
	body := `{"sections":[{"id":"s1","title":"Max","level":"1","parent":"root","blocks":["b2","b1"]}],
		"blocks":{"b2":{"type":"heading","text":"Max","level":2,"style":"Heading2"},
		"b1":{"type":"paragraph","text":"A <b>bold</b> engineer.","runs":[{"bold":true}]}},
		"version":7}`
	var doc SemanticDocument
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, 1, doc.Sections[0].Level)
	assert.Equal(t, []string{"b2", "b1"}, doc.Sections[0].Blocks)
	assert.Equal(t, Block{Type: "heading", Text: "Max"}, doc.Blocks["b2"])

	msg, err := NewStrategy(&doc, DefaultPromptLimits(), nil).UserMessage(Request{Prompt: "x"})
	require.NoError(t, err)
	_, rest, ok := strings.Cut(msg, semanticDocumentHeader)
	require.True(t, ok)
	graph, _, ok := strings.Cut(rest, "\n\nIMPORTANT")
	require.True(t, ok)

	assert.JSONEq(t, `{"sections":[{"id":"s1","title":"Max","level":"1","parent":"root","blocks":["b2","b1"]}],
		"blocks":{"b2":{"type":"heading","text":"Max","level":2,"style":"Heading2"},
		"b1":{"type":"paragraph","text":"A <b>bold</b> engineer.","runs":[{"bold":true}]}}}`, graph)
	assert.Less(t, strings.Index(graph, `"b2": {`), strings.Index(graph, `"b1": {`))
	assert.Contains(t, graph, "<b>bold</b>")
	assert.NotContains(t, graph, "version")
}

func TestSemanticGraphOfBuiltDocument(t *testing.T) {
	doc := &SemanticDocument{
		Sections: []Section{{ID: "s1", Title: "Q&A", Level: 1, Blocks: []string{"b1"}}},
		Blocks:   map[string]Block{"b1": {Type: "paragraph", Text: "a < b"}},
	}
	graph, err := doc.Graph()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sections":[{"id":"s1","title":"Q&A","level":1,"blocks":["b1"]}],"blocks":{"b1":{"type":"paragraph","text":"a < b"}}}`, string(graph))
	assert.Contains(t, string(graph), `"Q&A"`)
}

func TestSemanticValidateWarnsOnUnknownTarget(t *testing.T) {
	s := NewStrategy(bioDocument(), DefaultPromptLimits(), nil)
	res, err := s.Validate(json.RawMessage(`{"ops":[{"action":"replace","target_block_id":"b9","content":"x","reason":"y"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "b9", res.Ops[0].TargetBlockID)
}

func TestPromptLimitsDefaults(t *testing.T) {
	assert.Equal(t, DefaultPromptLimits(), PromptLimits{}.withDefaults())
	assert.Equal(t, 7, PromptLimits{MaxParagraphs: 7}.withDefaults().MaxParagraphs)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 3))
	assert.Equal(t, "ab...", clip("abc", 2))
}
