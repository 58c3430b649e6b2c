package domain

import "time"

// TaskStatus is open until a user closes the follow-up.
type TaskStatus string

const (
	TaskOpen   TaskStatus = "open"
	TaskClosed TaskStatus = "closed"
)

// TaskPriority orders follow-ups in the UI.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is a scheduled follow-up on a lead.
type Task struct {
	ID          string
	LeadID      string
	CompanyName string
	Description string
	Priority    TaskPriority
	DueDate     time.Time
	Status      TaskStatus
	CreatedAt   time.Time
}

// Severity classifies action log entries.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ActionLogEntry is one row of the persisted action log.
type ActionLogEntry struct {
	ID        int64
	Action    string
	Detail    string
	Severity  Severity
	CreatedAt time.Time
}
