package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Strategy owns the mode-specific parts of a generation: the system prompt,
// the final user message and the reply contract. The only implementations are
// the legacy and semantic strategies returned by NewStrategy.
type Strategy interface {
	Mode() Mode
	SystemPrompt() string
	UserMessage(req Request) (string, error)
	Validate(raw json.RawMessage) (*GenerationResult, error)

	sealed()
}

// PromptLimits bounds how much of a DocumentContext is inlined.
type PromptLimits struct {
	MaxParagraphs     int
	MaxParagraphChars int
	MaxSummaryChars   int
}

func DefaultPromptLimits() PromptLimits {
	return PromptLimits{MaxParagraphs: 3, MaxParagraphChars: 200, MaxSummaryChars: 500}
}

func (l PromptLimits) withDefaults() PromptLimits {
	d := DefaultPromptLimits()
	if l.MaxParagraphs <= 0 {
		l.MaxParagraphs = d.MaxParagraphs
	}
	if l.MaxParagraphChars <= 0 {
		l.MaxParagraphChars = d.MaxParagraphChars
	}
	if l.MaxSummaryChars <= 0 {
		l.MaxSummaryChars = d.MaxSummaryChars
	}
	return l
}

// NewStrategy returns the semantic strategy bound to doc when doc is usable,
// otherwise the legacy strategy.
func NewStrategy(doc *SemanticDocument, limits PromptLimits, logger *zap.Logger) Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ShouldUseSemantic(doc) {
		return &semanticStrategy{doc: doc, logger: logger}
	}
	return &legacyStrategy{limits: limits.withDefaults(), logger: logger}
}

const (
	userRequestPrefix      = "User request: "
	semanticDocumentHeader = "DOCUMENT STRUCTURE (with stable block IDs):\n"
	legacyClosing          = "Generate the EditPlan JSON:"
)

// ---------------------------------------------------------------------------
// legacy

type legacyStrategy struct {
	limits PromptLimits
	logger *zap.Logger
}

func (s *legacyStrategy) sealed()              {}
func (s *legacyStrategy) Mode() Mode           { return ModeLegacy }
func (s *legacyStrategy) SystemPrompt() string { return legacySystemPrompt }

func (s *legacyStrategy) UserMessage(req Request) (string, error) {
	var sb strings.Builder
	sb.WriteString(userRequestPrefix + req.Prompt + "\n\n")

	if req.SelectedRange.Active() {
		sb.WriteString("IMPORTANT: The user has selected specific text in the document:\n")
		sb.WriteString("Selected text: \"" + req.SelectedRange.Text + "\"\n\n")
		sb.WriteString("You MUST use replace_section with anchor '" + AnchorSelected + "' to replace ONLY this selected section. ")
		sb.WriteString("The selection is marked with a Content Control tag. Do NOT replace the entire document.\n\n")
	}

	if dc := req.DocumentContext; dc != nil {
		s.writeDocumentContext(&sb, dc)
	}

	sb.WriteString(legacyClosing)
	return sb.String(), nil
}

func (s *legacyStrategy) writeDocumentContext(sb *strings.Builder, dc *DocumentContext) {
	hierarchy := strings.TrimSpace(dc.HeadingHierarchy)
	switch {
	case hierarchy != "":
		sb.WriteString("Document structure (hierarchical view - use this to understand parent-child relationships):\n")
		sb.WriteString(hierarchy + "\n\n")
	case len(dc.Headings) > 0:
		sb.WriteString("Current document structure (headings):\n")
		for _, h := range dc.Headings {
			sb.WriteString(fmt.Sprintf("  - Heading %d: %s\n", h.Level, h.Text))
		}
		sb.WriteString("\n")
	}

	switch {
	case len(dc.RelevantContent) > 0:
		sb.WriteString("Relevant document content (sections matching your query):\n")
		for _, sec := range dc.RelevantContent {
			sb.WriteString(fmt.Sprintf("\nSection (Heading %d): %s\n", sec.Level, sec.Heading))
			for i, p := range sec.Paragraphs {
				if i == s.limits.MaxParagraphs {
					break
				}
				if p == "" {
					continue
				}
				sb.WriteString("  " + clip(p, s.limits.MaxParagraphChars) + "\n")
			}
		}
		sb.WriteString("\n")
		sb.WriteString(placementInstructions)
	case strings.TrimSpace(dc.ContentSummary) != "":
		sb.WriteString("Document content summary (for context): " + clip(dc.ContentSummary, s.limits.MaxSummaryChars) + "\n\n")
	}

	if len(dc.Headings) > 0 || len(dc.RelevantContent) > 0 || strings.TrimSpace(dc.ContentSummary) != "" {
		sb.WriteString(contextInstructions)
	}
	if dc.HasContent {
		sb.WriteString("IMPORTANT: This document already has content. Preserve existing content unless explicitly asked to replace it.\n\n")
	}
}

func (s *legacyStrategy) Validate(raw json.RawMessage) (*GenerationResult, error) {
	res, err := ValidateLegacy(raw, false)
	if err != nil {
		return nil, err
	}
	if len(res.EditPlan.Actions) == 0 {
		s.logger.Warn("legacy edit plan has no actions")
	}
	return res, nil
}

const placementInstructions = `INTELLIGENT PLACEMENT INSTRUCTIONS:
- Use the hierarchical structure above to understand parent-child relationships between headings
- Analyze the document structure to find the BEST placement location
- When user says 'add X about Y' or 'insert more about X':
  1. Identify the main topic Y from the user request (e.g., 'his career' → person, 'methodology' → thesis)
  2. Find the most relevant main heading (e.g., 'John F Kennedy' for person, 'Bachelor Thesis' for thesis)
  3. Check the hierarchy for a more specific subsection that matches X:
     - If 'Career' (H2) exists under 'John F Kennedy' (H1) and user says 'add more about career' → insert after 'Career' (H2)
     - If 'Methodology' (H2) exists under 'Bachelor Thesis' (H1) and user says 'add methodology' → insert after 'Methodology' (H2)
     - If NO subsection exists, insert after the main heading
  4. Always prefer the MOST SPECIFIC matching heading (lower level number = more specific)
  5. Use semantic matching: 'career' matches 'Career', 'methodology' matches 'Methodology', etc.
- Examples:
  * User: 'add more about career' + Doc has 'John F Kennedy' (H1) with 'Career' (H2) → insert after 'Career' (H2)
  * User: 'add methodology' + Doc has 'Bachelor Thesis' (H1) with 'Methodology' (H2) → insert after 'Methodology' (H2)
  * User: 'add methodology' + Doc has 'Bachelor Thesis' (H1) but NO 'Methodology' → insert after 'Bachelor Thesis' (H1)
  * User: 'add construction details' + Doc has 'Pyramids' (H1) → insert after 'Pyramids' (H1)

`

const contextInstructions = `CONTEXT AWARENESS INSTRUCTIONS:
- Use the headings and relevant content above to understand document structure and context
- When user refers to a heading (e.g., 'john f', 'early life'), match it to the closest heading above using partial matching
- When user says 'insert more about X' or 'add information about Y', analyze the relevant content sections to find the best location
- Look for semantic relationships: match user's topic to relevant headings and content (persons, topics, concepts, objects, etc.)
- Examples: 'his career' → person heading, 'methodology' → thesis/research heading, 'construction' → object/topic heading
- Use the relevant content sections to understand what already exists and where new content should be placed
- Make intelligent placement decisions based on document structure and relevant content
- If document has existing content, use insert_text instead of replace_section unless explicitly asked to replace

`

// clip cuts s to n runes and marks the cut with "...".
func clip(s string, n int) string {
	t := truncateRunes(s, n)
	if len(t) < len(s) {
		return t + "..."
	}
	return t
}

// ---------------------------------------------------------------------------
// semantic

type semanticStrategy struct {
	doc    *SemanticDocument
	logger *zap.Logger
}

func (s *semanticStrategy) sealed()              {}
func (s *semanticStrategy) Mode() Mode           { return ModeSemantic }
func (s *semanticStrategy) SystemPrompt() string { return semanticSystemPrompt }

func (s *semanticStrategy) UserMessage(req Request) (string, error) {
	graph, err := s.doc.Graph()
	if err != nil {
		return "", errors.Wrap(err, "encode semantic document")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, graph, "", "  "); err != nil {
		return "", errors.Wrap(err, "indent semantic document")
	}

	var sb strings.Builder
	sb.WriteString(userRequestPrefix + req.Prompt + "\n\n")
	sb.WriteString(semanticDocumentHeader)
	sb.Write(buf.Bytes())
	sb.WriteString("\n\n")
	sb.WriteString("IMPORTANT: Use the block IDs above to reference specific blocks. Do NOT invent block IDs.\n")
	sb.WriteString("When choosing where to insert content, analyze the semantic structure and choose the most appropriate block_id.\n\n")
	sb.WriteString("IMPORTANT: You MUST respond with JSON in this exact format:\n")
	sb.WriteString(opsExample + "\n")
	sb.WriteString("Do NOT use 'edit_plan' format. Use 'ops' format only.\n")
	return sb.String(), nil
}

const opsExample = `{
  "response": "Your explanation",
  "ops": [
    {
      "action": "insert_after",
      "target_block_id": "b1",
      "content": "Text to insert",
      "reason": "Why this location"
    }
  ]
}`

func (s *semanticStrategy) Validate(raw json.RawMessage) (*GenerationResult, error) {
	res, err := ValidateSemantic(raw)
	if err != nil {
		return nil, err
	}
	for i, op := range res.Ops {
		if !s.doc.HasBlock(op.TargetBlockID) {
			s.logger.Warn("op targets unknown block",
				zap.Int("index", i), zap.String("target_block_id", op.TargetBlockID))
		}
		switch op.Action {
		case OpInsertAfter, OpInsertBefore, OpReplace:
		default:
			s.logger.Warn("op has unknown action", zap.Int("index", i), zap.String("action", string(op.Action)))
		}
	}
	return res, nil
}
