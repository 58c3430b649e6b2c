package ai

import (
	"context"
	"errors"
	"strings"
)

// Category is a user-facing class of AI failure.
type Category string

const (
	CategorySearchUnsupported    Category = "search_unsupported"
	CategoryModelNotFound        Category = "model_not_found"
	CategoryInvalidKey           Category = "invalid_key"
	CategoryRateLimited          Category = "rate_limited"
	CategoryUnsupportedOperation Category = "unsupported_operation"
	CategoryOther                Category = "other"
)

var categoryMessages = map[Category]string{
	CategorySearchUnsupported:    "search grounding is not available for this model or key",
	CategoryModelNotFound:        "configured AI model was not found",
	CategoryInvalidKey:           "AI API key is invalid or unauthorized",
	CategoryRateLimited:          "AI provider rate limit or quota reached",
	CategoryUnsupportedOperation: "AI provider does not support this operation",
	CategoryOther:                "AI request failed",
}

// Error is a classified provider failure with a short human-readable message.
type Error struct {
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps a provider error to a Category by inspecting its message.
// Already-classified errors pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	category := categorize(err)
	return &Error{Category: category, Message: categoryMessages[category], Err: err}
}

func categorize(err error) Category {
	if errors.Is(err, ErrSearchUnsupported) {
		return CategorySearchUnsupported
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryOther
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "google_search", "googlesearch", "search grounding", "grounding is not", "search tool"):
		return CategorySearchUnsupported
	case containsAny(msg, "api key not valid", "api_key_invalid", "invalid api key", "unauthorized", "permission denied", "permission_denied", "401", "403"):
		return CategoryInvalidKey
	case containsAny(msg, "429", "rate limit", "quota", "resource_exhausted", "too many requests"):
		return CategoryRateLimited
	case strings.Contains(msg, "model") && containsAny(msg, "not found", "404", "does not exist"):
		return CategoryModelNotFound
	case containsAny(msg, "not supported", "unsupported", "not implemented"):
		return CategoryUnsupportedOperation
	default:
		return CategoryOther
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
