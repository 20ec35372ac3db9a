package generator

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// GeminiLLM is a thin wrapper around the official genai client.
type GeminiLLM struct {
	Model string
	cli   *genai.Client
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "gemini client")
	}
	return &GeminiLLM{Model: cfg.Model, cli: cli}, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	system := []*genai.Part{{Text: prompt.System}}
	var contents []*genai.Content
	for _, h := range prompt.History {
		switch h.Role {
		case RoleSystem, RoleDeveloper:
			system = append(system, &genai.Part{Text: h.Content})
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: h.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: h.Content}}})
		}
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: prompt.User}}})

	gc := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: system},
		MaxOutputTokens:   int32(opts.MaxOutputTokens),
	}
	if opts.JSONMode {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.Model, contents, gc)
	if err != nil {
		if opts.JSONMode && mentionsOption(err, "response_mime_type", "responsemimetype") {
			return "", &UnsupportedOptionError{Option: "response_mime_type", Err: err}
		}
		return "", errors.Wrap(err, "gemini generate content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), nil
}
