package generator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingRecorder struct {
	outcomes  []string
	fallbacks int
}

func (r *countingRecorder) ObserveGeneration(_ Mode, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) ObserveFallback(Mode) { r.fallbacks++ }

func newTestAgent(t *testing.T, llm LLMClient, opts ...Option) *Agent {
	t.Helper()
	a, err := NewAgent(llm, opts...)
	require.NoError(t, err)
	return a
}

func TestNewAgentRequiresClient(t *testing.T) {
	_, err := NewAgent(nil)
	require.EqualError(t, err, "llm client is required")
}

func TestGenerateScenarioLegacyNoContent(t *testing.T) {
	a := newTestAgent(t, MockLLM{})
	res, err := a.Generate(context.Background(), Request{Prompt: "Write an introduction about climate change"})
	require.NoError(t, err)

	assert.Equal(t, ModeLegacy, res.Mode)
	assert.Nil(t, res.Ops)
	require.Len(t, res.EditPlan.Actions, 1)
	act := res.EditPlan.Actions[0]
	assert.Equal(t, ActionReplaceSection, act.Type)
	assert.Equal(t, AnchorMain, act.Anchor)
	var kinds []string
	for _, b := range act.Blocks {
		kinds = append(kinds, b.Type)
	}
	assert.Contains(t, kinds, "heading")
	assert.Contains(t, kinds, "paragraph")
}

func TestGenerateScenarioSelection(t *testing.T) {
	a := newTestAgent(t, MockLLM{})
	res, err := a.Generate(context.Background(), Request{
		Prompt:        "Fix this",
		SelectedRange: &SelectedRange{Text: "teh cat", Tag: "sel1"},
	})
	require.NoError(t, err)
	require.Len(t, res.EditPlan.Actions, 1)
	assert.Equal(t, ActionReplaceSection, res.EditPlan.Actions[0].Type)
	assert.Equal(t, AnchorSelected, res.EditPlan.Actions[0].Anchor)
}

func TestGenerateScenarioSemantic(t *testing.T) {
	a := newTestAgent(t, MockLLM{})
	res, err := a.Generate(context.Background(), Request{Prompt: "Add his birth date", SemanticDocument: bioDocument()})
	require.NoError(t, err)

	assert.Equal(t, ModeSemantic, res.Mode)
	require.NotEmpty(t, res.Ops)
	assert.Equal(t, "b1", res.Ops[0].TargetBlockID)
	assert.Empty(t, res.EditPlan.Actions)
	assert.Equal(t, EditPlanVersion, res.EditPlan.Version)
}

func TestGenerateMessageAssembly(t *testing.T) {
	llm := newScripted(reply{text: `{"response":"ok","edit_plan":{"version":"1.0","actions":[]}}`})
	a := newTestAgent(t, llm, WithMaxOutputTokens(1234))

	_, err := a.Generate(context.Background(), Request{
		Prompt: "Change that to 'new text'",
		ConversationHistory: []Message{
			{Role: "user", Content: "first"},
			{Role: "ai", Content: "second"},
			{Role: "", Content: "no role"},
			{Role: "robot", Content: "bad role"},
			{Role: "tool", Content: "third"},
		},
	})
	require.NoError(t, err)

	calls := llm.Calls()
	require.Len(t, calls, 1)
	c := calls[0]
	assert.Equal(t, CompletionOptions{JSONMode: true, MaxOutputTokens: 1234}, c.opts)
	assert.Equal(t, legacySystemPrompt, c.prompt.System)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "second"},
		{Role: RoleTool, Content: "third"},
	}, c.prompt.History)
	assert.True(t, strings.HasPrefix(c.prompt.User, "User request: Change that to 'new text'"))

	msgs := c.prompt.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[4].Role)
}

func TestGenerateStructuredOutputFallback(t *testing.T) {
	unsupported := &UnsupportedOptionError{Option: "response_format", Err: errors.New("400 response_format is not supported")}
	llm := newScripted(
		reply{err: unsupported},
		reply{text: "```json\n{\"ops\":[{\"action\":\"insert_after\",\"target_block_id\":\"b1\",\"content\":\"x\",\"reason\":\"y\"}]}\n```"},
	)
	rec := &countingRecorder{}
	a := newTestAgent(t, llm, WithRecorder(rec))

	res, err := a.Generate(context.Background(), Request{
		Prompt:              "Add his birth date",
		SemanticDocument:    bioDocument(),
		ConversationHistory: []Message{{Role: "user", Content: "earlier"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "b1", res.Ops[0].TargetBlockID)

	calls := llm.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].prompt.History, 1)
	assert.True(t, calls[0].opts.JSONMode)

	retry := calls[1]
	assert.False(t, retry.opts.JSONMode)
	assert.Empty(t, retry.prompt.History)
	assert.Equal(t, calls[0].prompt.System, retry.prompt.System)
	assert.Equal(t, calls[0].prompt.User+rawJSONSuffix, retry.prompt.User)

	assert.Equal(t, 1, rec.fallbacks)
	assert.Equal(t, []string{"success"}, rec.outcomes)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		replies []reply
		req     Request
		stage   Stage
		calls   int
	}{
		{
			name:    "invoke error is fatal without retry",
			replies: []reply{{err: errors.New("401 unauthorized")}},
			req:     Request{Prompt: "x"},
			stage:   StageInvoke,
			calls:   1,
		},
		{
			name: "fallback failure is fatal",
			replies: []reply{
				{err: &UnsupportedOptionError{Option: "response_format"}},
				{err: errors.New("boom")},
			},
			req:   Request{Prompt: "x"},
			stage: StageInvoke,
			calls: 2,
		},
		{
			name:    "empty response",
			replies: []reply{{text: "  \n "}},
			req:     Request{Prompt: "x"},
			stage:   StageEmpty,
			calls:   1,
		},
		{
			name:    "unparseable response",
			replies: []reply{{text: "I cannot help with that."}},
			req:     Request{Prompt: "x"},
			stage:   StageParse,
			calls:   1,
		},
		{
			name:    "semantic reply with empty ops",
			replies: []reply{{text: `{"response":"nothing","ops":[]}`}},
			req:     Request{Prompt: "x", SemanticDocument: bioDocument()},
			stage:   StageValidate,
			calls:   1,
		},
		{
			name:    "legacy reply in semantic mode",
			replies: []reply{{text: `{"edit_plan":{"actions":[]}}`}},
			req:     Request{Prompt: "x", SemanticDocument: bioDocument()},
			stage:   StageValidate,
			calls:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newScripted(tt.replies...)
			rec := &countingRecorder{}
			a := newTestAgent(t, llm, WithRecorder(rec))

			res, err := a.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			var ge *GenerationError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.stage, ge.Stage)
			assert.Len(t, llm.Calls(), tt.calls)
			assert.Equal(t, []string{string(tt.stage)}, rec.outcomes)
		})
	}
}

func TestGenerateEmptyResponseMessage(t *testing.T) {
	a := newTestAgent(t, newScripted(reply{text: ""}))
	_, err := a.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

type blockingLLM struct{}

func (blockingLLM) Complete(ctx context.Context, _ Prompt, _ CompletionOptions) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerateTimeout(t *testing.T) {
	a := newTestAgent(t, blockingLLM{}, WithTimeout(20*time.Millisecond))
	_, err := a.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, StageInvoke, StageOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newTestAgent(t, blockingLLM{})
	_, err := a.Generate(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateWarnsOnRejectedSemanticDocument(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	llm := newScripted(reply{text: `{"edit_plan":{"actions":[]}}`})
	a := newTestAgent(t, llm, WithLogger(zap.New(core)))

	res, err := a.Generate(context.Background(), Request{
		Prompt:           "x",
		SemanticDocument: &SemanticDocument{Blocks: map[string]Block{"b1": {Type: "paragraph"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, res.Mode)
	assert.Equal(t, legacySystemPrompt, llm.Calls()[0].prompt.System)

	assert.Equal(t, 1, logs.FilterMessage("semantic document rejected, using legacy mode").Len())
	assert.Equal(t, 1, logs.FilterMessage("legacy edit plan has no actions").Len())
}

func TestGenerateWarnsOnDanglingRefs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	doc := bioDocument()
	doc.Sections[0].Blocks = append(doc.Sections[0].Blocks, "b7")
	a := newTestAgent(t, MockLLM{}, WithLogger(zap.New(core)))

	_, err := a.Generate(context.Background(), Request{Prompt: "x", SemanticDocument: doc})
	require.NoError(t, err)
	entries := logs.FilterMessage("semantic document references missing blocks").All()
	require.Len(t, entries, 1)
}
