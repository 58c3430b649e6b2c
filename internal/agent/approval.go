package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadagent_backend/internal/email"
	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/platform/apperr"
)

const (
	followUpDelay       = 72 * time.Hour
	followUpDescription = "Check back on the proposal"
	actionApproval      = "draft_approved"
	actionRejection     = "draft_rejected"
)

// DraftEdit optionally overrides the drafted subject or body before sending.
type DraftEdit struct {
	Subject *string
	Body    *string
}

// ApprovalResult is what an approved draft produced.
type ApprovalResult struct {
	Lead    domain.Lead
	Task    *domain.Task
	Receipt email.Receipt
}

// ApproveDraft sends the (optionally edited) draft reply. The lead is only
// updated after the mailer accepted the message.
func (a *Agent) ApproveDraft(ctx context.Context, leadID string, edit DraftEdit) (ApprovalResult, error) {
	lead, err := a.awaitingLead(ctx, leadID)
	if err != nil {
		return ApprovalResult{}, err
	}
	draft := *lead.DraftResponse
	if edit.Subject != nil {
		draft.Subject = strings.TrimSpace(*edit.Subject)
	}
	if edit.Body != nil {
		draft.Body = strings.TrimSpace(*edit.Body)
	}
	if draft.Body == "" {
		return ApprovalResult{}, apperr.Validation("draft body is empty")
	}
	if !lead.HasEmail() {
		return ApprovalResult{}, apperr.Conflict("lead has no email address")
	}

	subject, body, err := email.RenderReply(draft.Subject, draft.Body, a.settings.SenderCompany)
	if err != nil {
		return ApprovalResult{}, apperr.Wrap(apperr.KindInternal, "render reply", err).WithOp("agent.ApproveDraft")
	}
	receipt, err := a.mailer.Send(ctx, lead.Email, subject, body)
	if err != nil {
		a.log.WithContext(ctx).Error("draft_send_failed", "leadId", lead.ID, "error", err)
		a.sink.Think(ctx, ThoughtError, fmt.Sprintf("Reply to %s could not be sent", lead.CompanyName))
		return ApprovalResult{}, apperr.Wrap(apperr.KindUnavailable, "email could not be sent", err)
	}

	now := a.localNow()
	if draft.Intent == IntentProposal || draft.Intent == IntentMeeting {
		lead.Status = domain.StatusProposalSent
	} else {
		lead.Status = domain.StatusNurturing
	}
	lead.MarkContacted(now)
	lead.PrependNote(now, "Reply sent: "+subject)
	lead.DraftResponse = nil
	lead, err = a.repo.UpdateLead(ctx, lead)
	if err != nil {
		return ApprovalResult{}, fmt.Errorf("update lead after reply: %w", err)
	}
	a.runtime.AddPendingDrafts(-1)

	result := ApprovalResult{Lead: lead, Receipt: receipt}
	if lead.Status == domain.StatusProposalSent {
		task, err := a.createFollowUp(ctx, lead)
		if err != nil {
			return result, err
		}
		result.Task = &task
	}

	a.logAction(ctx, actionApproval, fmt.Sprintf("%s: reply sent (%s)", lead.CompanyName, draft.Intent), domain.SeveritySuccess)
	a.sink.Think(ctx, ThoughtSuccess, fmt.Sprintf("Approved reply sent to %s", lead.CompanyName))
	a.publish(ctx, events.LeadContacted{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		CompanyName: lead.CompanyName,
		Email:       lead.Email,
		Kind:        "reply",
		MessageID:   receipt.MessageID,
	})
	return result, nil
}

// RejectDraft discards the draft and returns the lead to nurturing.
func (a *Agent) RejectDraft(ctx context.Context, leadID string) (domain.Lead, error) {
	lead, err := a.awaitingLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.StatusNurturing
	lead.DraftResponse = nil
	lead.PrependNote(a.localNow(), "Draft reply rejected")
	lead, err = a.repo.UpdateLead(ctx, lead)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead after rejection: %w", err)
	}
	a.runtime.AddPendingDrafts(-1)
	a.logAction(ctx, actionRejection, lead.CompanyName, domain.SeverityInfo)
	a.sink.Think(ctx, ThoughtDecision, fmt.Sprintf("Draft for %s rejected", lead.CompanyName))
	return lead, nil
}

func (a *Agent) awaitingLead(ctx context.Context, leadID string) (domain.Lead, error) {
	lead, err := a.getLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Status != domain.StatusAwaitingApproval || lead.DraftResponse == nil {
		return domain.Lead{}, apperr.Conflict("lead has no draft awaiting approval")
	}
	return lead, nil
}

func (a *Agent) getLead(ctx context.Context, leadID string) (domain.Lead, error) {
	lead, err := a.repo.GetLead(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("load lead %s: %w", leadID, err)
	}
	return lead, nil
}

// createFollowUp persists the reminder task. Scheduling failures are logged only;
// the task stays visible in the task list either way.
func (a *Agent) createFollowUp(ctx context.Context, lead domain.Lead) (domain.Task, error) {
	task, err := a.repo.CreateTask(ctx, domain.Task{
		LeadID:      lead.ID,
		CompanyName: lead.CompanyName,
		Description: followUpDescription,
		Priority:    domain.PriorityHigh,
		DueDate:     a.now().Add(followUpDelay),
		Status:      domain.TaskOpen,
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("create follow-up task: %w", err)
	}

	if a.followUps != nil {
		if err := a.followUps.ScheduleFollowUp(ctx, task.ID, lead.ID, task.DueDate); err != nil {
			a.log.WithContext(ctx).Warn("followup_schedule_failed", "taskId", task.ID, "error", err)
		}
	}
	return task, nil
}
