// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadagent_backend/platform/events"
	"leadagent_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// InMemoryBus is the process-local bus used by both binaries.
type InMemoryBus = events.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Agent Events
// =============================================================================

// AgentNotificationRaised mirrors every user-facing agent notification.
type AgentNotificationRaised struct {
	BaseEvent
	NotificationID string `json:"notificationId"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	LeadID         string `json:"leadId,omitempty"`
}

func (e AgentNotificationRaised) EventName() string { return "agent.notification" }

// LeadContacted is published after an email to a lead was accepted by the mailer.
type LeadContacted struct {
	BaseEvent
	LeadID      string `json:"leadId"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Kind        string `json:"kind"` // outreach | reply
	MessageID   string `json:"messageId,omitempty"`
}

func (e LeadContacted) EventName() string { return "leads.contacted" }

// =============================================================================
// Follow-up Events
// =============================================================================

// FollowUpDue is published by the scheduler worker when an open follow-up task comes due.
type FollowUpDue struct {
	BaseEvent
	TaskID      string    `json:"taskId"`
	LeadID      string    `json:"leadId"`
	CompanyName string    `json:"companyName"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
}

func (e FollowUpDue) EventName() string { return "leads.followup.due" }
