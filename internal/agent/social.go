package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/ai"
)

const (
	minSocialScore    = 2
	maxSummaryRunes   = 500
	noPresenceSummary = "No public social presence found"
)

type socialResult struct {
	Summary       string   `json:"summary"`
	Platforms     []string `json:"platforms"`
	Tone          string   `json:"tone"`
	TalkingPoints []string `json:"talkingPoints"`
}

type socialHandler struct {
	*env
}

func (h *socialHandler) Name() string { return ActionSocial }

func (h *socialHandler) Run(ctx context.Context, pool []domain.Lead, _ Config) (bool, error) {
	var candidate *domain.Lead
	for i := range pool {
		l := pool[i]
		if l.Status == domain.StatusActive && l.HasEmail() && l.Score >= minSocialScore &&
			(l.SocialProfile == nil || strings.TrimSpace(l.SocialProfile.Summary) == "") {
			candidate = &l
			break
		}
	}
	if candidate == nil {
		return false, nil
	}
	if !h.guard.CheckAndCharge(ctx) {
		return false, nil
	}

	h.sink.Think(ctx, ThoughtAction, fmt.Sprintf("Analysing social presence of %s", candidate.CompanyName))
	raw, err := h.completeGrounded(ctx, ActionSocial, socialPrompt(*candidate))
	if errors.Is(err, errBudgetExhausted) {
		return true, nil
	}
	lead := *candidate
	now := h.now()
	if err != nil {
		// A placeholder profile keeps the lead from blocking every later pass.
		lead.SocialProfile = &domain.SocialProfile{Summary: noPresenceSummary, AnalyzedAt: now}
		lead.PrependNote(h.localNow(), "Social analysis failed: "+userMessage(err))
		if _, updateErr := h.repo.UpdateLead(ctx, lead); updateErr != nil {
			h.log.WithContext(ctx).DatabaseError("record_social_failure", updateErr)
		}
		return true, err
	}

	lead.SocialProfile = parseSocial(raw, now)
	if _, err := h.repo.UpdateLead(ctx, lead); err != nil {
		return true, fmt.Errorf("update lead %s: %w", lead.ID, err)
	}

	h.sink.Think(ctx, ThoughtSuccess, fmt.Sprintf("Social profile ready for %s", lead.CompanyName))
	h.logAction(ctx, ActionSocial, lead.CompanyName+": social profile attached", domain.SeveritySuccess)
	return true, nil
}

// parseSocial never fails: unstructured output becomes the summary itself.
func parseSocial(raw string, now time.Time) *domain.SocialProfile {
	profile := &domain.SocialProfile{AnalyzedAt: now}

	var res socialResult
	if err := ai.DecodeLenient(raw, &res); err == nil && strings.TrimSpace(res.Summary) != "" {
		profile.Summary = strings.TrimSpace(res.Summary)
		profile.Platforms = res.Platforms
		profile.Tone = res.Tone
		profile.TalkingPoints = res.TalkingPoints
		return profile
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		profile.Summary = noPresenceSummary
		return profile
	}
	profile.Summary = truncateRunes(text, maxSummaryRunes)
	return profile
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
