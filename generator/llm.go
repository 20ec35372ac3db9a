package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error)
}

// CompletionOptions are the per-call knobs understood by every provider.
type CompletionOptions struct {
	JSONMode        bool
	MaxOutputTokens int
}

// ErrStructuredOutputUnsupported is matched by errors.Is when a provider or
// deployment rejects JSON mode.
var ErrStructuredOutputUnsupported = errors.New("structured output not supported")

// UnsupportedOptionError reports a request option the provider refused.
type UnsupportedOptionError struct {
	Option string
	Err    error
}

func (e *UnsupportedOptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unsupported option %q", e.Option)
	}
	return fmt.Sprintf("unsupported option %q: %v", e.Option, e.Err)
}

func (e *UnsupportedOptionError) Unwrap() error { return e.Err }

func (e *UnsupportedOptionError) Is(target error) bool {
	return target == ErrStructuredOutputUnsupported
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	APIVersion string
}

// NewLLM picks the adapter for cfg.Provider.
func NewLLM(ctx context.Context, cfg *LLMSettings) (LLMClient, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	switch p := strings.ToLower(strings.TrimSpace(cfg.Provider)); p {
	case "", "azure", "openai":
		return NewOpenAILLMFromConfig(cfg)
	case "deepseek", "ollama", "openrouter", "siliconflow", "compatible":
		return NewCompatLLMFromConfig(cfg)
	case "anthropic", "claude":
		return NewAnthropicLLMFromConfig(cfg)
	case "gemini", "google":
		return NewGeminiLLMFromConfig(ctx, cfg)
	case "mock":
		return MockLLM{}, nil
	default:
		return nil, errors.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// mentionsOption is the last-resort classifier for providers whose errors
// carry no structured parameter name.
func mentionsOption(err error, names ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, n := range names {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}
