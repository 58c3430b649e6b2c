package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadagent_backend/platform/logger"
)

type testConfig struct {
	url string
}

func (c testConfig) GetWhatsAppURL() string           { return c.url }
func (c testConfig) GetWhatsAppKey() string           { return "user:pass" }
func (c testConfig) GetWhatsAppDeviceID() string      { return "device-7" }
func (c testConfig) GetWhatsAppOperatorPhone() string { return "" }

func TestSendMessageNormalisesPhoneAndAuth(t *testing.T) {
	var got gowaRequest
	var auth, device string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send/message" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		device = r.Header.Get("X-Device-Id")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(testConfig{url: server.URL + "/"}, "TR", logger.Nop())
	if err := c.SendMessage(context.Background(), "0532 123 45 67", "Takip zamanı"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got.Phone != "905321234567" {
		t.Fatalf("expected E.164 digits without plus, got %q", got.Phone)
	}
	if got.Message != "Takip zamanı" {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if auth != "Basic dXNlcjpwYXNz" || device != "device-7" {
		t.Fatalf("unexpected headers auth=%q device=%q", auth, device)
	}
}

func TestSendMessageSurfacesGatewayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("device offline"))
	}))
	defer server.Close()

	c := NewClient(testConfig{url: server.URL}, "", logger.Nop())
	err := c.SendMessage(context.Background(), "+905321234567", "hi")
	if err == nil || !strings.Contains(err.Error(), "503: device offline") {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestNilClientDropsMessages(t *testing.T) {
	c := NewClient(testConfig{}, "TR", logger.Nop())
	if c != nil {
		t.Fatalf("expected nil client without URL")
	}
	if err := c.SendMessage(context.Background(), "+905321234567", "hi"); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}
