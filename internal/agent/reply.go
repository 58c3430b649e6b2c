package agent

import (
	"context"
	"fmt"
	"strings"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/ai"
)

// Draft intents. Proposal and meeting move an approved lead to proposal_sent.
const (
	IntentInterested    = "interested"
	IntentMeeting       = "meeting"
	IntentProposal      = "proposal"
	IntentQuestion      = "question"
	IntentNotInterested = "not_interested"
	IntentOther         = "other"
)

var knownIntents = map[string]struct{}{
	IntentInterested:    {},
	IntentMeeting:       {},
	IntentProposal:      {},
	IntentQuestion:      {},
	IntentNotInterested: {},
	IntentOther:         {},
}

type incomingMessage struct {
	Message string `json:"message"`
}

type draftResult struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Intent  string `json:"intent"`
}

type replyHandler struct {
	*env
}

func (h *replyHandler) Name() string { return ActionReply }

func (h *replyHandler) Run(ctx context.Context, pool []domain.Lead, _ Config) (bool, error) {
	lead, ok := h.admit(pool)
	if !ok {
		return false, nil
	}
	if !h.guard.CheckAndCharge(ctx) {
		return false, nil
	}

	h.sink.Think(ctx, ThoughtAnalysis, fmt.Sprintf("%s replied; reading their message", lead.CompanyName))
	raw, err := h.complete(ctx, ActionReply, incomingReplyPrompt(lead), ai.Options{JSON: true})
	if err != nil {
		return true, err
	}
	incoming := parseIncoming(raw)

	if !h.guard.CheckAndCharge(ctx) {
		return true, nil
	}
	raw, err = h.complete(ctx, ActionReply, draftReplyPrompt(lead, incoming, h.settings.SenderCompany), ai.Options{JSON: true})
	if err != nil {
		return true, err
	}
	var draft draftResult
	if err := ai.DecodeLenient(raw, &draft); err != nil {
		return true, fmt.Errorf("parse reply draft: %w", err)
	}
	if strings.TrimSpace(draft.Body) == "" {
		return true, fmt.Errorf("parse reply draft: %w", ai.ErrMalformedJSON)
	}

	now := h.now()
	lead.Status = domain.StatusAwaitingApproval
	lead.DraftResponse = &domain.DraftResponse{
		Subject:         strings.TrimSpace(draft.Subject),
		Body:            strings.TrimSpace(draft.Body),
		Intent:          normalizeIntent(draft.Intent),
		IncomingMessage: incoming,
		CreatedAt:       now,
	}
	lead.PrependNote(h.localNow(), "Reply received; draft awaiting approval")
	if _, err := h.repo.UpdateLead(ctx, lead); err != nil {
		return true, fmt.Errorf("update lead %s: %w", lead.ID, err)
	}

	h.runtime.AddPendingDrafts(1)
	h.sink.Notify(ctx, domain.SeveritySuccess, "Reply draft ready",
		fmt.Sprintf("%s replied (%s). A draft is waiting for your approval.", lead.CompanyName, lead.DraftResponse.Intent), lead.ID)
	h.sink.Think(ctx, ThoughtSuccess, fmt.Sprintf("Drafted reply to %s; awaiting approval", lead.CompanyName))
	h.logAction(ctx, ActionReply, fmt.Sprintf("%s: draft (%s)", lead.CompanyName, lead.DraftResponse.Intent), domain.SeveritySuccess)
	return true, nil
}

// admit rolls once per candidate in pool order and returns the first admitted lead.
func (h *replyHandler) admit(pool []domain.Lead) (domain.Lead, bool) {
	for _, l := range pool {
		if !l.Status.AwaitsReply() || l.DraftResponse != nil {
			continue
		}
		if h.rng.Float64() < h.settings.ReplyProbability {
			return l, true
		}
	}
	return domain.Lead{}, false
}

func parseIncoming(raw string) string {
	var msg incomingMessage
	if err := ai.DecodeLenient(raw, &msg); err == nil && strings.TrimSpace(msg.Message) != "" {
		return strings.TrimSpace(msg.Message)
	}
	return strings.TrimSpace(raw)
}

func normalizeIntent(intent string) string {
	intent = strings.ToLower(strings.TrimSpace(intent))
	intent = strings.ReplaceAll(intent, " ", "_")
	if _, ok := knownIntents[intent]; ok {
		return intent
	}
	return IntentOther
}
