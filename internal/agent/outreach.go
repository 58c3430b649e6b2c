package agent

import (
	"context"
	"fmt"

	"leadagent_backend/internal/email"
	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads/domain"
)

type outreachHandler struct {
	*env
}

func (h *outreachHandler) Name() string { return ActionOutreach }

func (h *outreachHandler) Run(ctx context.Context, pool []domain.Lead, cfg Config) (bool, error) {
	now := h.localNow()
	if !IsBusinessHours(now) {
		h.sink.Think(ctx, ThoughtWait, "Outreach ready but outside business hours; holding first-contact emails")
		return false, nil
	}

	candidates := filterLeads(pool, func(l domain.Lead) bool {
		return l.IsOutreachEligible() && l.MatchesFilter(cfg.District, cfg.Sector)
	})
	if len(candidates) == 0 {
		return false, nil
	}
	lead := preferSocial(candidates)

	data := email.OutreachData{
		CompanyName:   lead.CompanyName,
		District:      lead.District,
		Sector:        lead.Sector,
		SenderCompany: h.settings.SenderCompany,
	}
	if lead.SocialProfile != nil {
		data.TalkingPoints = lead.SocialProfile.TalkingPoints
	}
	subject, body, err := email.RenderOutreach(data)
	if err != nil {
		return false, fmt.Errorf("render outreach: %w", err)
	}

	h.sink.Think(ctx, ThoughtAction, fmt.Sprintf("Sending first-contact email to %s", lead.CompanyName))
	receipt, err := h.mailer.Send(ctx, lead.Email, subject, body)
	if err != nil {
		return true, fmt.Errorf("send outreach to %s: %w", lead.CompanyName, err)
	}

	lead.Status = domain.StatusNurturing
	lead.MarkContacted(now)
	lead.PrependNote(now, "First-contact email sent: "+subject)
	if _, err := h.repo.UpdateLead(ctx, lead); err != nil {
		return true, fmt.Errorf("update lead %s after send: %w", lead.ID, err)
	}

	h.logAction(ctx, ActionOutreach, fmt.Sprintf("%s <%s>", lead.CompanyName, lead.Email), domain.SeveritySuccess)
	h.sink.Think(ctx, ThoughtSuccess, fmt.Sprintf("Contacted %s; now nurturing", lead.CompanyName))
	h.publish(ctx, events.LeadContacted{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		CompanyName: lead.CompanyName,
		Email:       lead.Email,
		Kind:        "outreach",
		MessageID:   receipt.MessageID,
	})
	return true, nil
}

// preferSocial returns the first lead with a social profile, else the first lead.
func preferSocial(candidates []domain.Lead) domain.Lead {
	for _, l := range candidates {
		if l.SocialProfile != nil {
			return l
		}
	}
	return candidates[0]
}
