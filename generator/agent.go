package generator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultMaxOutputTokens = 4000
	DefaultTimeout         = 120 * time.Second
)

// Recorder receives generation outcomes. metrics.Collector implements it.
type Recorder interface {
	ObserveGeneration(mode Mode, outcome string, elapsed time.Duration)
	ObserveFallback(mode Mode)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(Mode, string, time.Duration) {}
func (nopRecorder) ObserveFallback(Mode)                          {}

// Agent 负责根据请求选择生成模式、调用模型并规范化结果。
// It holds no per-request state and is safe for concurrent use.
type Agent struct {
	llm       LLMClient
	logger    *zap.Logger
	limits    PromptLimits
	timeout   time.Duration
	maxTokens int
	recorder  Recorder
}

type Option func(*Agent)

func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithPromptLimits(l PromptLimits) Option {
	return func(a *Agent) { a.limits = l.withDefaults() }
}

// WithTimeout bounds each model call. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithMaxOutputTokens(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(a *Agent) {
		if r != nil {
			a.recorder = r
		}
	}
}

func NewAgent(llm LLMClient, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	a := &Agent{
		llm:       llm,
		logger:    zap.NewNop(),
		limits:    DefaultPromptLimits(),
		timeout:   DefaultTimeout,
		maxTokens: DefaultMaxOutputTokens,
		recorder:  nopRecorder{},
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// ShouldUseSemantic reports whether doc has both sections and blocks.
func ShouldUseSemantic(doc *SemanticDocument) bool {
	return doc != nil && len(doc.Sections) > 0 && len(doc.Blocks) > 0
}

func (a *Agent) selectStrategy(doc *SemanticDocument, log *zap.Logger) Strategy {
	s := NewStrategy(doc, a.limits, log)
	switch {
	case s.Mode() == ModeSemantic:
		if refs := doc.DanglingRefs(); len(refs) > 0 {
			log.Warn("semantic document references missing blocks", zap.Strings("block_ids", refs))
		}
	case doc != nil:
		log.Warn("semantic document rejected, using legacy mode",
			zap.Bool("has_sections", len(doc.Sections) > 0),
			zap.Bool("has_blocks", len(doc.Blocks) > 0))
	}
	return s
}

// Generate turns one request into a normalized result. Every failure is a
// *GenerationError.
func (a *Agent) Generate(ctx context.Context, req Request) (*GenerationResult, error) {
	start := time.Now()
	log := a.logger.With(zap.String("generation_id", uuid.NewString()))

	strategy := a.selectStrategy(req.SemanticDocument, log)
	mode := strategy.Mode()
	log.Info("generating edit plan",
		zap.String("mode", string(mode)),
		zap.String("prompt", truncateRunes(req.Prompt, 100)),
		zap.Int("history", len(req.ConversationHistory)))

	res, err := a.generate(ctx, strategy, req, log)
	outcome := "success"
	if err != nil {
		outcome = string(StageOf(err))
		log.Error("edit plan generation failed", zap.String("stage", outcome), zap.Error(err))
	}
	a.recorder.ObserveGeneration(mode, outcome, time.Since(start))
	return res, err
}

func (a *Agent) generate(ctx context.Context, strategy Strategy, req Request, log *zap.Logger) (*GenerationResult, error) {
	user, err := strategy.UserMessage(req)
	if err != nil {
		return nil, &GenerationError{Stage: StageBuild, Err: err}
	}
	prompt := Prompt{
		System:  strategy.SystemPrompt(),
		User:    user,
		History: normalizeHistory(req.ConversationHistory, log),
	}

	text, err := a.complete(ctx, prompt, strategy.Mode(), log)
	if err != nil {
		return nil, &GenerationError{Stage: StageInvoke, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &GenerationError{Stage: StageEmpty, Err: ErrEmptyResponse}
	}
	log.Debug("model reply", zap.String("content", truncateRunes(text, 500)))

	raw, err := ParseJSON(text)
	if err != nil {
		return nil, &GenerationError{Stage: StageParse, Err: err}
	}
	var keys []string
	gjson.ParseBytes(raw).ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	log.Debug("parsed model reply", zap.Strings("keys", keys))

	res, err := strategy.Validate(raw)
	if err != nil {
		return nil, &GenerationError{Stage: StageValidate, Err: err}
	}
	log.Info("edit plan generated",
		zap.String("mode", string(res.Mode)),
		zap.Int("actions", len(res.EditPlan.Actions)),
		zap.Int("ops", len(res.Ops)))
	return res, nil
}

// complete calls the model in JSON mode. When the provider refuses JSON mode
// it retries once with system and user only and asks for raw JSON in text.
func (a *Agent) complete(ctx context.Context, prompt Prompt, mode Mode, log *zap.Logger) (string, error) {
	text, err := a.call(ctx, prompt, CompletionOptions{JSONMode: true, MaxOutputTokens: a.maxTokens})
	if err == nil || !errors.Is(err, ErrStructuredOutputUnsupported) {
		return text, err
	}
	log.Warn("structured output unsupported, retrying with plain prompt", zap.Error(err))
	a.recorder.ObserveFallback(mode)
	fallback := Prompt{System: prompt.System, User: prompt.User + rawJSONSuffix}
	return a.call(ctx, fallback, CompletionOptions{MaxOutputTokens: a.maxTokens})
}

func (a *Agent) call(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.llm.Complete(ctx, prompt, opts)
}
