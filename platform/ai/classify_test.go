package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Category
	}{
		{ErrSearchUnsupported, CategorySearchUnsupported},
		{fmt.Errorf("call: %w", ErrSearchUnsupported), CategorySearchUnsupported},
		{errors.New("Error 400: google_search tool is not supported for this model"), CategorySearchUnsupported},
		{errors.New("Error 400: API key not valid. Please pass a valid API key."), CategoryInvalidKey},
		{errors.New("Error 429: RESOURCE_EXHAUSTED quota exceeded"), CategoryRateLimited},
		{errors.New("Error 404: models/gemini-9 is not found for API version v1beta"), CategoryModelNotFound},
		{errors.New("generateContent is not supported"), CategoryUnsupportedOperation},
		{errors.New("connection reset by peer"), CategoryOther},
		{context.DeadlineExceeded, CategoryOther},
	}

	for _, tc := range cases {
		got := Classify(tc.err)
		if got.Category != tc.want {
			t.Fatalf("Classify(%q): expected %s, got %s", tc.err, tc.want, got.Category)
		}
		if got.Message == "" {
			t.Fatalf("expected a user-facing message for %s", tc.want)
		}
		if !errors.Is(got, tc.err) {
			t.Fatalf("expected classified error to wrap the original")
		}
	}
}

func TestClassifyPassesThroughClassifiedErrors(t *testing.T) {
	original := &Error{Category: CategoryRateLimited, Message: "slow down"}
	wrapped := fmt.Errorf("discovery: %w", original)
	if got := Classify(wrapped); got != original {
		t.Fatalf("expected existing classification to be reused")
	}
	if Classify(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
