package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	maxThoughts      = 50
	maxNotifications = 20
)

// ThoughtCategory classifies an entry of the agent's reasoning log.
type ThoughtCategory string

const (
	ThoughtAction   ThoughtCategory = "action"
	ThoughtDecision ThoughtCategory = "decision"
	ThoughtAnalysis ThoughtCategory = "analysis"
	ThoughtSuccess  ThoughtCategory = "success"
	ThoughtWarning  ThoughtCategory = "warning"
	ThoughtError    ThoughtCategory = "error"
	ThoughtWait     ThoughtCategory = "wait"
)

// Thought is one observability entry. Never read back by decision logic.
type Thought struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Category  ThoughtCategory `json:"type"`
	Message   string          `json:"message"`
}

// Notification is a user-facing alert.
type Notification struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Severity  domain.Severity `json:"severity"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	LeadID    string          `json:"leadId,omitempty"`
}

// Sink keeps the bounded thought log and notification list, newest first.
type Sink struct {
	mu            sync.RWMutex
	thoughts      []Thought
	notifications []Notification
	log           *logger.Logger
	bus           events.Bus
	now           func() time.Time
}

func NewSink(log *logger.Logger, bus events.Bus, now func() time.Time) *Sink {
	if now == nil {
		now = time.Now
	}
	return &Sink{log: log, bus: bus, now: now}
}

// Think records a thought and mirrors it to the structured log.
func (s *Sink) Think(ctx context.Context, category ThoughtCategory, message string) {
	t := Thought{ID: uuid.NewString(), Timestamp: s.now(), Category: category, Message: message}

	s.mu.Lock()
	s.thoughts = prepend(s.thoughts, t, maxThoughts)
	s.mu.Unlock()

	level := slog.LevelInfo
	switch category {
	case ThoughtWarning:
		level = slog.LevelWarn
	case ThoughtError:
		level = slog.LevelError
	case ThoughtWait, ThoughtAnalysis:
		level = slog.LevelDebug
	}
	s.log.WithContext(ctx).Log(ctx, level, "agent_thought", slog.String("type", string(category)), slog.String("message", message))
}

// Notify records a notification and publishes it on the bus.
func (s *Sink) Notify(ctx context.Context, severity domain.Severity, title, message, leadID string) {
	n := Notification{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Severity:  severity,
		Title:     title,
		Message:   message,
		LeadID:    leadID,
	}

	s.mu.Lock()
	s.notifications = prepend(s.notifications, n, maxNotifications)
	s.mu.Unlock()

	s.log.WithContext(ctx).Info("agent_notification",
		slog.String("severity", string(severity)),
		slog.String("title", title),
		slog.String("lead_id", leadID),
	)

	if s.bus != nil {
		s.bus.Publish(ctx, events.AgentNotificationRaised{
			BaseEvent:      events.BaseEvent{EventID: n.ID, Timestamp: n.Timestamp},
			NotificationID: n.ID,
			Severity:       string(severity),
			Title:          title,
			Message:        message,
			LeadID:         leadID,
		})
	}
}

// Thoughts returns a copy of the thought log, newest first.
func (s *Sink) Thoughts() []Thought {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Thought, len(s.thoughts))
	copy(out, s.thoughts)
	return out
}

// Notifications returns a copy of the notifications, newest first.
func (s *Sink) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func prepend[T any](list []T, item T, limit int) []T {
	list = append(list, item)
	copy(list[1:], list[:len(list)-1])
	list[0] = item
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
