package generator

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Mode identifies which output contract produced a result.
type Mode string

const (
	ModeLegacy   Mode = "legacy"
	ModeSemantic Mode = "semantic"
)

// Message is one caller-supplied conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Heading is a document heading as seen by the editor.
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// ContentSection 是与用户请求相关的章节摘录。
type ContentSection struct {
	Heading    string   `json:"heading"`
	Level      int      `json:"level,omitempty"`
	Paragraphs []string `json:"paragraphs"`
}

// DocumentContext describes the document for legacy mode.
type DocumentContext struct {
	Headings         []Heading        `json:"headings"`
	HeadingHierarchy string           `json:"heading_hierarchy,omitempty"`
	RelevantContent  []ContentSection `json:"relevant_content,omitempty"`
	ContentSummary   string           `json:"content_summary,omitempty"`
	HasContent       bool             `json:"has_content"`
}

// Section groups block ids under a heading.
type Section struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Level  int      `json:"level"`
	Blocks []string `json:"blocks"`
}

// UnmarshalJSON reads the known fields leniently and ignores the rest.
func (s *Section) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	*s = Section{
		ID:    r.Get("id").String(),
		Title: r.Get("title").String(),
		Level: int(r.Get("level").Int()),
	}
	for _, id := range r.Get("blocks").Array() {
		s.Blocks = append(s.Blocks, id.String())
	}
	return nil
}

// Block is an addressable unit of the semantic document.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	*b = Block{Type: r.Get("type").String(), Text: r.Get("text").String()}
	return nil
}

// SemanticDocument is the block graph used by semantic mode. Block ids are
// assigned by the caller and are only valid for the current request.
//
// A decoded document also keeps the caller's own encoding of sections and
// blocks, fields without a typed counterpart included. Graph prefers it over
// the typed view.
type SemanticDocument struct {
	Sections []Section       `json:"sections"`
	Blocks   map[string]Block `json:"blocks"`

	rawSections json.RawMessage
	rawBlocks   json.RawMessage
}

func (d *SemanticDocument) UnmarshalJSON(data []byte) error {
	type plain SemanticDocument
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = SemanticDocument(p)
	r := gjson.ParseBytes(data)
	if v := r.Get("sections"); v.IsArray() {
		d.rawSections = json.RawMessage(v.Raw)
	}
	if v := r.Get("blocks"); v.IsObject() {
		d.rawBlocks = json.RawMessage(v.Raw)
	}
	return nil
}

// Graph returns {"sections": ..., "blocks": ...} as the caller sent them.
// Documents built in Go are encoded from the typed fields.
func (d *SemanticDocument) Graph() (json.RawMessage, error) {
	sections, blocks := d.rawSections, d.rawBlocks
	var err error
	if sections == nil {
		if sections, err = marshalPlain(d.Sections); err != nil {
			return nil, err
		}
	}
	if blocks == nil {
		if blocks, err = marshalPlain(d.Blocks); err != nil {
			return nil, err
		}
	}
	out, err := sjson.SetRawBytes([]byte(`{}`), "sections", sections)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, "blocks", blocks)
}

// marshalPlain encodes v without HTML escaping.
func marshalPlain(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// HasBlock reports whether id is a key of Blocks.
func (d *SemanticDocument) HasBlock(id string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Blocks[id]
	return ok
}

// DanglingRefs returns the section block ids missing from Blocks, sorted.
func (d *SemanticDocument) DanglingRefs() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, s := range d.Sections {
		for _, id := range s.Blocks {
			if d.HasBlock(id) {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// SelectedRange is the excerpt highlighted by the user.
type SelectedRange struct {
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

// Active reports whether the selection carries both text and tag.
func (r *SelectedRange) Active() bool {
	return r != nil && r.Text != "" && r.Tag != ""
}

// Request is the input of one generation.
type Request struct {
	Prompt              string            `json:"prompt"`
	ConversationHistory []Message         `json:"conversation_history,omitempty"`
	DocumentContext     *DocumentContext  `json:"document_context,omitempty"`
	SemanticDocument    *SemanticDocument `json:"semantic_document,omitempty"`
	SelectedRange       *SelectedRange    `json:"selected_range,omitempty"`
}

const (
	EditPlanVersion = "1.0"

	// AnchorMain addresses the whole document, AnchorSelected the current selection.
	AnchorMain     = "main"
	AnchorSelected = "selected"
)

// ActionType tags the variants of Action.
type ActionType string

const (
	ActionReplaceSection     ActionType = "replace_section"
	ActionUpdateHeadingStyle ActionType = "update_heading_style"
	ActionUpdateTextFormat   ActionType = "update_text_format"
	ActionCorrectText        ActionType = "correct_text"
	ActionInsertText         ActionType = "insert_text"
)

// FlexBool decodes JSON booleans as well as "true"/"false" strings.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = FlexBool(v)
	return nil
}

// FlexInt decodes JSON numbers as well as numeric strings.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		*n = FlexInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = FlexInt(f)
	return nil
}

// Style is the formatting applied to a block or heading.
type Style struct {
	Color     string    `json:"color,omitempty"`
	Alignment string    `json:"alignment,omitempty"`
	Bold      *FlexBool `json:"bold,omitempty"`
}

// ContentBlock is a paragraph or heading emitted by a legacy action.
type ContentBlock struct {
	Type  string `json:"type"`
	Level FlexInt `json:"level,omitempty"`
	Text  string  `json:"text"`
	Style *Style  `json:"style,omitempty"`
}

// Action is one legacy edit. Type selects which of the other fields apply.
type Action struct {
	Type            ActionType     `json:"type"`
	Anchor          string         `json:"anchor,omitempty"`
	Target          string         `json:"target,omitempty"`
	Location        string         `json:"location,omitempty"`
	HeadingText     string         `json:"heading_text,omitempty"`
	Position        *FlexInt       `json:"position,omitempty"`
	SearchText      string         `json:"search_text,omitempty"`
	ReplacementText *string        `json:"replacement_text,omitempty"`
	CaseSensitive   *FlexBool      `json:"case_sensitive,omitempty"`
	Style           *Style         `json:"style,omitempty"`
	Blocks          []ContentBlock `json:"blocks,omitzero"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the model's encoding of the action, which MarshalJSON
// writes back unchanged. If the typed view cannot be decoded only its scalar
// fields are filled.
func (a *Action) UnmarshalJSON(data []byte) error {
	type plain Action
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		r := gjson.ParseBytes(data)
		p = plain{
			Type:        ActionType(r.Get("type").String()),
			Anchor:      r.Get("anchor").String(),
			Target:      r.Get("target").String(),
			Location:    r.Get("location").String(),
			HeadingText: r.Get("heading_text").String(),
			SearchText:  r.Get("search_text").String(),
		}
	}
	*a = Action(p)
	a.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	if a.raw != nil {
		return a.raw, nil
	}
	type plain Action
	return json.Marshal(plain(a))
}

// EditPlan is the legacy output contract.
type EditPlan struct {
	Version string   `json:"version"`
	Actions []Action `json:"actions"`
}

// OpAction is the placement of a semantic op relative to its target block.
type OpAction string

const (
	OpInsertAfter  OpAction = "insert_after"
	OpInsertBefore OpAction = "insert_before"
	OpReplace      OpAction = "replace"
)

// Op is one block-anchored semantic edit. Content that is not a string
// holds its JSON text; the op itself is written back as the model sent it.
type Op struct {
	Action        OpAction `json:"action"`
	TargetBlockID string   `json:"target_block_id"`
	Content       string   `json:"content"`
	Reason        string   `json:"reason"`

	raw json.RawMessage
}

func (o *Op) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	*o = Op{
		Action:        OpAction(r.Get("action").String()),
		TargetBlockID: r.Get("target_block_id").String(),
		Content:       r.Get("content").String(),
		Reason:        r.Get("reason").String(),
		raw:           append(json.RawMessage(nil), data...),
	}
	return nil
}

func (o Op) MarshalJSON() ([]byte, error) {
	if o.raw != nil {
		return o.raw, nil
	}
	type plain Op
	return json.Marshal(plain(o))
}

// GenerationResult is returned for both modes. Ops is nil for legacy plans,
// which serializes as null.
type GenerationResult struct {
	Response string   `json:"response"`
	EditPlan EditPlan `json:"edit_plan"`
	Ops      []Op     `json:"ops"`
	Mode     Mode     `json:"-"`
}
