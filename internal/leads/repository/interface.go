package repository

import (
	"context"
	"errors"

	"leadagent_backend/internal/leads/domain"
)

var (
	ErrNotFound     = errors.New("lead not found")
	ErrTaskNotFound = errors.New("task not found")
)

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	// GetLeads returns every lead in insertion order.
	GetLeads(ctx context.Context) ([]domain.Lead, error)
	GetLead(ctx context.Context, id string) (domain.Lead, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	CreateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	UpdateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error)
}

// TaskStore manages follow-up tasks.
type TaskStore interface {
	GetTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	CreateTask(ctx context.Context, task domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error)
}

// ActionLogger records the audit trail of agent actions.
type ActionLogger interface {
	LogAction(ctx context.Context, action, detail string, severity domain.Severity) error
	ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error)
}

// Repository is the uniform store capability. The backing variant
// (LocalRepository or RemoteRepository) is chosen once at startup.
type Repository interface {
	LeadReader
	LeadWriter
	TaskStore
	ActionLogger
}

var (
	_ Repository = (*LocalRepository)(nil)
	_ Repository = (*RemoteRepository)(nil)
)
