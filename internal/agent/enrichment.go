package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/ai"
	"leadagent_backend/platform/phone"
)

const scoreEmailFound = 2

// lookupRetryAfter holds back a lead whose last lookup failed.
const lookupRetryAfter = 24 * time.Hour

type contactLookup struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

type enrichmentHandler struct {
	*env
}

func (h *enrichmentHandler) Name() string { return ActionEnrichment }

func (h *enrichmentHandler) Run(ctx context.Context, pool []domain.Lead, cfg Config) (bool, error) {
	candidate, ok := h.pick(pool, cfg, h.localNow())
	if !ok {
		return false, nil
	}
	if !h.guard.CheckAndCharge(ctx) {
		return false, nil
	}

	h.sink.Think(ctx, ThoughtAction, fmt.Sprintf("Looking up contact details for %s", candidate.CompanyName))
	raw, err := h.completeGrounded(ctx, ActionEnrichment, enrichmentPrompt(candidate))
	if errors.Is(err, errBudgetExhausted) {
		return true, nil
	}
	if err != nil {
		h.recordFailure(ctx, candidate, err)
		return true, err
	}

	var found contactLookup
	if err := ai.DecodeLenient(raw, &found); err != nil {
		h.log.WithContext(ctx).Warn("enrichment_unparseable", "leadId", candidate.ID, "error", err)
		found = contactLookup{}
	}

	lead := candidate
	now := h.localNow()
	hadEmail := lead.HasEmail()
	gotPhone := h.merge(&lead, found)
	lead.EnrichedAt = &now
	lead.RecomputeMissingFields()

	switch {
	case !lead.HasEmail():
		lead.Status = domain.StatusInvalid
		lead.PrependNote(now, "No email found during contact lookup; skipped.")
		if _, err := h.repo.UpdateLead(ctx, lead); err != nil {
			return true, fmt.Errorf("update lead %s: %w", lead.ID, err)
		}
		h.sink.Think(ctx, ThoughtWarning, fmt.Sprintf("No email for %s; marked invalid", lead.CompanyName))
		h.logAction(ctx, ActionEnrichment, lead.CompanyName+": no email, marked invalid", domain.SeverityWarning)

	case !hadEmail:
		lead.AddScore(scoreEmailFound, "email_found")
		lead.PrependNote(now, "Email found: "+lead.Email)
		if _, err := h.repo.UpdateLead(ctx, lead); err != nil {
			return true, fmt.Errorf("update lead %s: %w", lead.ID, err)
		}
		h.sink.Think(ctx, ThoughtSuccess, fmt.Sprintf("Found email for %s", lead.CompanyName))
		h.logAction(ctx, ActionEnrichment, lead.CompanyName+": email found", domain.SeveritySuccess)

	default:
		if gotPhone {
			lead.PrependNote(now, "Phone found: "+lead.Phone)
		}
		if _, err := h.repo.UpdateLead(ctx, lead); err != nil {
			return true, fmt.Errorf("update lead %s: %w", lead.ID, err)
		}
		msg := fmt.Sprintf("No new phone for %s", lead.CompanyName)
		if gotPhone {
			msg = fmt.Sprintf("Added phone for %s", lead.CompanyName)
		}
		h.sink.Think(ctx, ThoughtAnalysis, msg)
		h.logAction(ctx, ActionEnrichment, msg, domain.SeverityInfo)
	}
	return true, nil
}

func (h *enrichmentHandler) pick(pool []domain.Lead, cfg Config, now time.Time) (domain.Lead, bool) {
	for _, l := range pool {
		if l.EnrichedAt != nil && now.Sub(*l.EnrichedAt) < lookupRetryAfter {
			continue
		}
		if l.NeedsContactLookup() && l.MatchesFilter(cfg.District, cfg.Sector) {
			return l, true
		}
	}
	return domain.Lead{}, false
}

// recordFailure stamps the attempt so the next pass moves on to another lead.
func (h *enrichmentHandler) recordFailure(ctx context.Context, lead domain.Lead, cause error) {
	now := h.localNow()
	lead.EnrichedAt = &now
	lead.PrependNote(now, "Contact lookup failed: "+userMessage(cause))
	if _, err := h.repo.UpdateLead(ctx, lead); err != nil {
		h.log.WithContext(ctx).DatabaseError("record_lookup_failure", err)
	}
}

// merge fills empty contact attributes only. It reports whether a phone was added.
func (h *enrichmentHandler) merge(lead *domain.Lead, found contactLookup) bool {
	if !lead.HasEmail() {
		if email := strings.TrimSpace(found.Email); strings.Contains(email, "@") {
			lead.Email = strings.ToLower(email)
		}
	}
	if strings.TrimSpace(lead.Website) == "" {
		lead.Website = strings.TrimSpace(found.Website)
	}
	if lead.HasPhone() {
		return false
	}
	number := strings.TrimSpace(found.Phone)
	if number == "" || !phone.IsPlausible(number, h.settings.PhoneRegion) {
		return false
	}
	lead.Phone = phone.NormalizeE164(number, h.settings.PhoneRegion)
	return true
}
