package generator

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// It answers with a fixed plan in whichever format the prompt asks for.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt, _ CompletionOptions) (string, error) {
	request := mockRequestLine(prompt.User)
	if doc, ok := mockEmbeddedDocument(prompt.User); ok {
		target := mockFirstBlock(doc)
		out := map[string]any{
			"response": "I will add the requested content after the first relevant block.",
			"ops": []Op{{
				Action:        OpInsertAfter,
				TargetBlockID: target,
				Content:       request,
				Reason:        "First block of the document.",
			}},
		}
		b, err := json.Marshal(out)
		return string(b), err
	}

	var action Action
	if strings.Contains(prompt.User, "anchor '"+AnchorSelected+"'") {
		action = Action{
			Type:   ActionReplaceSection,
			Anchor: AnchorSelected,
			Blocks: []ContentBlock{{Type: "paragraph", Text: request}},
		}
	} else {
		action = Action{
			Type:   ActionReplaceSection,
			Anchor: AnchorMain,
			Blocks: []ContentBlock{
				{Type: "heading", Level: 1, Text: "Draft"},
				{Type: "paragraph", Text: request},
			},
		}
	}
	out := map[string]any{
		"response":  "I will apply the requested change.",
		"edit_plan": EditPlan{Version: EditPlanVersion, Actions: []Action{action}},
	}
	b, err := json.Marshal(out)
	return string(b), err
}

func mockRequestLine(user string) string {
	line, _, _ := strings.Cut(strings.TrimPrefix(user, userRequestPrefix), "\n")
	return strings.TrimSpace(line)
}

func mockEmbeddedDocument(user string) (*SemanticDocument, bool) {
	_, rest, ok := strings.Cut(user, semanticDocumentHeader)
	if !ok {
		return nil, false
	}
	var doc SemanticDocument
	if err := json.NewDecoder(strings.NewReader(rest)).Decode(&doc); err != nil {
		return nil, false
	}
	return &doc, ShouldUseSemantic(&doc)
}

func mockFirstBlock(doc *SemanticDocument) string {
	for _, s := range doc.Sections {
		for _, id := range s.Blocks {
			if doc.HasBlock(id) {
				return id
			}
		}
	}
	ids := make([]string, 0, len(doc.Blocks))
	for id := range doc.Blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[0]
}
