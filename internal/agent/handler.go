package agent

import (
	"context"

	"leadagent_backend/internal/leads/domain"
)

// Handler is one candidate action of the decision policy. Run reports
// whether it acted; a handler that charged the guard and called the AI
// has acted even when it returns an error.
type Handler interface {
	Name() string
	Run(ctx context.Context, pool []domain.Lead, cfg Config) (bool, error)
}

// Action names, also used in the persisted action log.
const (
	ActionDiscovery  = "discovery"
	ActionEnrichment = "enrichment"
	ActionSocial     = "social_analysis"
	ActionOutreach   = "outreach"
	ActionReply      = "reply_drafting"
)

func filterLeads(pool []domain.Lead, keep func(domain.Lead) bool) []domain.Lead {
	out := make([]domain.Lead, 0, len(pool))
	for _, l := range pool {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
