package generator

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/pkg/errors"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// With provider "azure" the base URL is treated as an Azure OpenAI endpoint.
type OpenAILLM struct {
	Model string
	Opts  []option.RequestOption
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	var opts []option.RequestOption
	if strings.EqualFold(cfg.Provider, "azure") {
		if cfg.BaseURL == "" {
			return nil, errors.New("azure endpoint missing; provide llm.base_url")
		}
		opts = append(opts, azure.WithEndpoint(cfg.BaseURL, cfg.APIVersion), azure.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
	}
	// retries are owned by the Retry middleware
	opts = append(opts, option.WithMaxRetries(0))
	return &OpenAILLM{Model: cfg.Model, Opts: opts}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	client := openai.NewClient(o.Opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: openAIMessages(prompt),
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxOutputTokens))
	}
	if opts.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		if opts.JSONMode && openAIRejectsResponseFormat(err) {
			return "", &UnsupportedOptionError{Option: "response_format", Err: err}
		}
		return "", errors.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIMessages(prompt Prompt) []openai.ChatCompletionMessageParamUnion {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt.System),
	}
	for _, h := range prompt.History {
		switch h.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(h.Content))
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(h.Content))
		case RoleDeveloper:
			msgs = append(msgs, openai.DeveloperMessage(h.Content))
		default:
			// tool and function turns need call ids the caller never supplies
			msgs = append(msgs, openai.UserMessage(h.Content))
		}
	}
	return append(msgs, openai.UserMessage(prompt.User))
}

func openAIRejectsResponseFormat(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.Param == "response_format" {
		return true
	}
	return mentionsOption(err, "response_format")
}
