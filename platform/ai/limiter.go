package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedCompleter spaces out provider calls to stay under a per-minute quota.
type RateLimitedCompleter struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit wraps next so at most perMinute calls start per minute.
// A non-positive perMinute disables limiting.
func WithRateLimit(next Completer, perMinute int) Completer {
	if perMinute <= 0 {
		return next
	}
	return &RateLimitedCompleter{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *RateLimitedCompleter) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Complete(ctx, prompt, opts)
}
