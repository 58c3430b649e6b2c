package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ErrSearchUnsupported is returned by providers without search grounding.
var ErrSearchUnsupported = errors.New("search grounding is not supported by this provider")

// LLMCompleter drives any ADK model.LLM as a Completer.
type LLMCompleter struct {
	llm model.LLM
}

// NewLLMCompleter wraps an ADK model. Models behind OpenAI-compatible
// APIs cannot ground on search, so UseSearch requests fail fast.
func NewLLMCompleter(llm model.LLM) *LLMCompleter {
	return &LLMCompleter{llm: llm}
}

func (c *LLMCompleter) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if opts.UseSearch {
		return "", ErrSearchUnsupported
	}

	cfg := &genai.GenerateContentConfig{Temperature: opts.Temperature}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if opts.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}

	req := &model.LLMRequest{
		Model:    c.llm.Name(),
		Contents: []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		Config:   cfg,
	}

	var out strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil && part.Text != "" {
				out.WriteString(part.Text)
			}
		}
	}
	if out.Len() == 0 {
		return "", errors.New("model returned no text")
	}
	return out.String(), nil
}
