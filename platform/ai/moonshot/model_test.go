package moonshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func TestGenerateContentSendsJSONModeAndSystemPrompt(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	m := NewModel(Config{APIKey: "secret", BaseURL: server.URL})
	temp := float32(0.2)
	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("find leads", genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			Temperature:       &temp,
			SystemInstruction: genai.NewContentFromText("be terse", genai.RoleUser),
		},
	}

	var text string
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		text = resp.Content.Parts[0].Text
	}

	if text != `{"ok":true}` {
		t.Fatalf("unexpected text %q", text)
	}
	if captured.Model != DefaultModel {
		t.Fatalf("expected default model, got %q", captured.Model)
	}
	if captured.ResponseFormat["type"] != "json_object" {
		t.Fatalf("expected json response format, got %#v", captured.ResponseFormat)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "find leads" {
		t.Fatalf("unexpected messages: %#v", captured.Messages)
	}
}

func TestGenerateContentSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Authentication","type":"invalid_authentication_error"}}`))
	}))
	defer server.Close()

	m := NewModel(Config{APIKey: "bad", BaseURL: server.URL})
	for _, err := range m.GenerateContent(context.Background(), &model.LLMRequest{}, false) {
		if err == nil {
			t.Fatalf("expected error")
		}
		if got := err.Error(); got != "kimi api error 401: Invalid Authentication" {
			t.Fatalf("unexpected error %q", got)
		}
	}
}
