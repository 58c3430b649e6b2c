// Package ai exposes a single text/JSON completion capability over the
// configured generative provider, plus the tolerant decoding and error
// classification the agent needs around it.
package ai

import "context"

// Options tune one completion request.
type Options struct {
	// UseSearch enables provider-side web search grounding.
	UseSearch bool
	// JSON asks the provider for a JSON-only response when it supports it.
	JSON              bool
	Temperature       *float32
	SystemInstruction string
}

// Completer turns a prompt into model text. Implementations may fail or
// return malformed output; callers decode with DecodeLenient.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// Float32 returns a pointer for Options.Temperature.
func Float32(v float32) *float32 {
	return &v
}
