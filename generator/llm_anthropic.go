package generator

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

const anthropicDefaultMaxTokens = 4000

// AnthropicLLM implements LLMClient with the Messages API. The API has no
// JSON response mode, so JSON-mode calls are refused with
// ErrStructuredOutputUnsupported and the agent falls back to a plain prompt.
type AnthropicLLM struct {
	Model  string
	client *anthropic.Client
}

func NewAnthropicLLMFromConfig(cfg *LLMSettings) (*AnthropicLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicLLM{Model: cfg.Model, client: &client}, nil
}

func (a *AnthropicLLM) Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	if opts.JSONMode {
		return "", &UnsupportedOptionError{Option: "response_format"}
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	system := []anthropic.TextBlockParam{{Text: prompt.System}}
	var msgs []anthropic.MessageParam
	for _, h := range prompt.History {
		switch h.Role {
		case RoleSystem, RoleDeveloper:
			system = append(system, anthropic.TextBlockParam{Text: h.Content})
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(h.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(h.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)))

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(maxTokens),
		System:    system,
		Messages:  msgs,
	})
	if err != nil {
		return "", errors.Wrap(err, "anthropic messages")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
