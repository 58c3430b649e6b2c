// Package notification reacts to agent events: it streams them to connected
// UIs over SSE and forwards the ones that need a human to the operator's
// WhatsApp.
package notification

import (
	"context"
	"fmt"
	"strings"

	"leadagent_backend/internal/events"
	"leadagent_backend/internal/notification/sse"
	"leadagent_backend/platform/logger"
)

// WhatsAppSender sends WhatsApp messages.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

type Module struct {
	whatsapp      WhatsAppSender
	operatorPhone string
	sse           *sse.Service
	log           *logger.Logger
}

// New wires the module. whatsapp may be nil; alerts are then only streamed.
func New(whatsapp WhatsAppSender, operatorPhone string, stream *sse.Service, log *logger.Logger) *Module {
	return &Module{
		whatsapp:      whatsapp,
		operatorPhone: strings.TrimSpace(operatorPhone),
		sse:           stream,
		log:           log,
	}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes the module to the events it handles.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AgentNotificationRaised{}.EventName(), m)
	bus.Subscribe(events.LeadContacted{}.EventName(), m)
	bus.Subscribe(events.FollowUpDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.AgentNotificationRaised:
		return m.handleAgentNotification(ctx, e)
	case events.LeadContacted:
		return m.handleLeadContacted(ctx, e)
	case events.FollowUpDue:
		return m.handleFollowUpDue(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleAgentNotification(ctx context.Context, e events.AgentNotificationRaised) error {
	m.stream(sse.Event{Type: sse.EventNotification, LeadID: e.LeadID, Message: e.Title, Data: e})

	if !shouldAlertOperator(e) {
		return nil
	}
	return m.alert(ctx, fmt.Sprintf("*%s*\n%s", e.Title, e.Message))
}

func (m *Module) handleLeadContacted(_ context.Context, e events.LeadContacted) error {
	m.stream(sse.Event{
		Type:    sse.EventLeadContacted,
		LeadID:  e.LeadID,
		Message: fmt.Sprintf("%s emailed (%s)", e.CompanyName, e.Kind),
		Data:    e,
	})
	return nil
}

func (m *Module) handleFollowUpDue(ctx context.Context, e events.FollowUpDue) error {
	m.stream(sse.Event{Type: sse.EventFollowUpDue, LeadID: e.LeadID, Message: e.Description, Data: e})
	return m.alert(ctx, fmt.Sprintf("*Follow-up due: %s*\n%s", e.CompanyName, e.Description))
}

// shouldAlertOperator keeps WhatsApp for things a human must act on:
// problems and drafts waiting for approval.
func shouldAlertOperator(e events.AgentNotificationRaised) bool {
	switch e.Severity {
	case "warning", "error":
		return true
	case "success":
		return e.LeadID != ""
	}
	return false
}

func (m *Module) stream(event sse.Event) {
	if m.sse != nil {
		m.sse.Broadcast(event)
	}
}

func (m *Module) alert(ctx context.Context, message string) error {
	if m.whatsapp == nil || m.operatorPhone == "" {
		return nil
	}
	if err := m.whatsapp.SendMessage(ctx, m.operatorPhone, message); err != nil {
		m.log.WithContext(ctx).Error("operator_alert_failed", "error", err)
		return err
	}
	return nil
}
