package generator

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	goopenai "github.com/sashabaranov/go-openai"
)

var compatBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
}

// CompatLLM talks to OpenAI-compatible gateways through go-openai.
type CompatLLM struct {
	Model  string
	client *goopenai.Client
}

func NewCompatLLMFromConfig(cfg *LLMSettings) (*CompatLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	provider := strings.ToLower(cfg.Provider)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = compatBaseURLs[provider]
	}
	if baseURL == "" {
		return nil, errors.Errorf("%s: base url missing; provide llm.base_url", provider)
	}
	if cfg.APIKey == "" && provider != "ollama" {
		return nil, errors.Errorf("%s: api key missing; provide llm.api_key", provider)
	}
	cc := goopenai.DefaultConfig(cfg.APIKey)
	cc.BaseURL = baseURL
	return &CompatLLM{Model: cfg.Model, client: goopenai.NewClientWithConfig(cc)}, nil
}

func (c *CompatLLM) Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:     c.Model,
		Messages:  compatMessages(prompt),
		MaxTokens: opts.MaxOutputTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if opts.JSONMode && compatRejectsResponseFormat(err) {
			return "", &UnsupportedOptionError{Option: "response_format", Err: err}
		}
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func compatMessages(prompt Prompt) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(prompt.History)+2)
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: prompt.System})
	for _, h := range prompt.History {
		role := goopenai.ChatMessageRoleUser
		switch h.Role {
		case RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		case RoleSystem, RoleDeveloper:
			// most gateways do not know the developer role
			role = goopenai.ChatMessageRoleSystem
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: role, Content: h.Content})
	}
	return append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt.User})
}

func compatRejectsResponseFormat(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.Param != nil && *apiErr.Param == "response_format" {
		return true
	}
	return mentionsOption(err, "response_format")
}
