package ai

import (
	"context"
	"fmt"

	"leadagent_backend/platform/ai/moonshot"
	"leadagent_backend/platform/config"
)

// NewFromConfig builds the configured provider wrapped in the request limiter.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	var completer Completer

	switch cfg.GetAIProvider() {
	case config.AIProviderGemini:
		gemini, err := NewGemini(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
		if err != nil {
			return nil, err
		}
		completer = gemini
	case config.AIProviderMoonshot:
		completer = NewLLMCompleter(moonshot.NewModel(moonshot.Config{
			APIKey: cfg.GetMoonshotAPIKey(),
			Model:  cfg.GetMoonshotModel(),
		}))
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.GetAIProvider())
	}

	return WithRateLimit(completer, cfg.GetAIRequestsPerMinute()), nil
}
