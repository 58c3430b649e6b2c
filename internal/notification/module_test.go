package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadagent_backend/internal/events"
	"leadagent_backend/internal/notification/sse"
	"leadagent_backend/platform/logger"
)

type sentMessage struct {
	phone   string
	message string
}

type testWhatsApp struct {
	sent []sentMessage
	err  error
}

func (w *testWhatsApp) SendMessage(_ context.Context, phone, message string) error {
	if w.err != nil {
		return w.err
	}
	w.sent = append(w.sent, sentMessage{phone: phone, message: message})
	return nil
}

func TestAgentNotificationsForwardedBySeverity(t *testing.T) {
	tests := []struct {
		name      string
		event     events.AgentNotificationRaised
		wantAlert bool
	}{
		{"budget warning", events.AgentNotificationRaised{Severity: "warning", Title: "Daily AI limit reached"}, true},
		{"draft ready", events.AgentNotificationRaised{Severity: "success", Title: "Reply draft ready", LeadID: "lead-1"}, true},
		{"plain success", events.AgentNotificationRaised{Severity: "success", Title: "Done"}, false},
		{"info", events.AgentNotificationRaised{Severity: "info", Title: "FYI"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wa := &testWhatsApp{}
			m := New(wa, "+905321234567", nil, logger.Nop())

			if err := m.Handle(context.Background(), tt.event); err != nil {
				t.Fatalf("handle: %v", err)
			}
			if got := len(wa.sent) == 1; got != tt.wantAlert {
				t.Fatalf("expected alert=%v, got %d messages", tt.wantAlert, len(wa.sent))
			}
			if tt.wantAlert && !strings.Contains(wa.sent[0].message, tt.event.Title) {
				t.Fatalf("expected title in message, got %q", wa.sent[0].message)
			}
		})
	}
}

func TestFollowUpDueAlertsOperator(t *testing.T) {
	wa := &testWhatsApp{}
	m := New(wa, "+905321234567", nil, logger.Nop())

	err := m.Handle(context.Background(), events.FollowUpDue{
		BaseEvent:   events.NewBaseEvent(),
		TaskID:      "task-1",
		LeadID:      "lead-1",
		CompanyName: "Acme Kahve",
		Description: "Check back on the proposal",
		DueDate:     time.Now(),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(wa.sent) != 1 || wa.sent[0].phone != "+905321234567" || !strings.Contains(wa.sent[0].message, "Acme Kahve") {
		t.Fatalf("unexpected messages: %+v", wa.sent)
	}
}

func TestAlertsSkippedWithoutOperatorPhone(t *testing.T) {
	wa := &testWhatsApp{}
	m := New(wa, " ", nil, logger.Nop())

	if err := m.Handle(context.Background(), events.FollowUpDue{CompanyName: "Acme"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(wa.sent) != 0 {
		t.Fatalf("expected no WhatsApp without an operator phone")
	}
}

func TestAlertFailureIsReturned(t *testing.T) {
	wa := &testWhatsApp{err: errors.New("gateway down")}
	m := New(wa, "+905321234567", nil, logger.Nop())

	if err := m.Handle(context.Background(), events.FollowUpDue{CompanyName: "Acme"}); err == nil {
		t.Fatalf("expected the gateway error to propagate to the bus")
	}
}

func TestEventsAreStreamed(t *testing.T) {
	stream := sse.New(logger.Nop())
	m := New(nil, "", stream, logger.Nop())

	// No clients connected: broadcasting must not block.
	if err := m.Handle(context.Background(), events.LeadContacted{LeadID: "lead-1", CompanyName: "Acme", Kind: "outreach"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if stream.Clients() != 0 {
		t.Fatalf("expected no clients")
	}
}
