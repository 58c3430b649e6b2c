package agent

import (
	"context"
	"errors"
	"fmt"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/platform/apperr"
)

func (a *Agent) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	return a.repo.GetLeads(ctx)
}

// SetLeadStatus applies an explicit user edit of the lifecycle state.
func (a *Agent) SetLeadStatus(ctx context.Context, leadID, status string) (domain.Lead, error) {
	lead, err := a.getLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	to, _ := domain.ParseStatus(status)
	if reason := domain.ValidateUserTransition(lead.Status, to); reason != "" {
		return domain.Lead{}, apperr.Validation(reason)
	}
	if to == lead.Status {
		return lead, nil
	}

	from := lead.Status
	lead.Status = to
	if from == domain.StatusAwaitingApproval {
		lead.DraftResponse = nil
	}
	lead.PrependNote(a.localNow(), fmt.Sprintf("Status changed from %s to %s", from, to))
	lead, err = a.repo.UpdateLead(ctx, lead)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	if from == domain.StatusAwaitingApproval {
		a.runtime.AddPendingDrafts(-1)
	}
	a.logAction(ctx, "status_changed", fmt.Sprintf("%s: %s → %s", lead.CompanyName, from, to), domain.SeverityInfo)
	return lead, nil
}

func (a *Agent) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return a.repo.GetTasks(ctx)
}

// CloseTask marks a follow-up done; a pending reminder for it becomes a no-op.
func (a *Agent) CloseTask(ctx context.Context, taskID string) (domain.Task, error) {
	task, err := a.repo.GetTask(ctx, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return domain.Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task.Status == domain.TaskClosed {
		return task, nil
	}
	task.Status = domain.TaskClosed
	return a.repo.UpdateTask(ctx, task)
}

func (a *Agent) ListActions(ctx context.Context, limit int) ([]domain.ActionLogEntry, error) {
	return a.repo.ListActions(ctx, limit)
}
