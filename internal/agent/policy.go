package agent

import (
	"context"
	"fmt"

	"leadagent_backend/internal/leads/domain"
)

const (
	lowPoolThreshold          = 5
	discoveryFocusLowPoolSize = 10
)

// policy runs one decision pass: at most one handler acts per tick.
type policy struct {
	*env
	reply      Handler
	social     Handler
	outreach   Handler
	enrichment Handler
	discovery  Handler
}

func newPolicy(e *env) *policy {
	return &policy{
		env:        e,
		reply:      &replyHandler{e},
		social:     &socialHandler{e},
		outreach:   &outreachHandler{e},
		enrichment: &enrichmentHandler{e},
		discovery:  &discoveryHandler{e},
	}
}

// run returns the name of the handler that acted or failed, if any.
// A guard pause during the pass ends it.
func (p *policy) run(ctx context.Context) (string, bool, error) {
	cfg := p.runtime.Config()
	pauses := p.guard.Pauses()
	pool, err := p.repo.GetLeads(ctx)
	if err != nil {
		return "", false, fmt.Errorf("load leads: %w", err)
	}

	// Cheap actions on existing relationships first.
	for _, h := range []Handler{p.reply, p.social} {
		acted, err := h.Run(ctx, pool, cfg)
		if acted || err != nil {
			return h.Name(), acted, err
		}
		if p.guard.Pauses() != pauses {
			return "", false, nil
		}
	}

	scoped := filterLeads(pool, func(l domain.Lead) bool {
		return l.MatchesFilter(cfg.District, cfg.Sector)
	})
	var ready, needs, active int
	for _, l := range scoped {
		if l.IsOutreachEligible() {
			ready++
		}
		if l.NeedsEnrichment() {
			needs++
		}
		if l.Status == domain.StatusActive {
			active++
		}
	}

	type step struct {
		handler Handler
		reason  string
	}
	var steps []step
	if ready > 0 {
		steps = append(steps, step{p.outreach, fmt.Sprintf("%d leads ready to contact", ready)})
	}
	if needs > 0 {
		steps = append(steps, step{p.enrichment, fmt.Sprintf("%d leads missing an email", needs)})
	}
	if lowPool(cfg.FocusMode, active) {
		steps = append(steps, step{p.discovery, fmt.Sprintf("Only %d active leads in scope; prospecting", active)})
	}

	for _, s := range steps {
		p.sink.Think(ctx, ThoughtDecision, s.reason)
		acted, err := s.handler.Run(ctx, pool, cfg)
		if acted || err != nil {
			return s.handler.Name(), acted, err
		}
		if p.guard.Pauses() != pauses {
			return "", false, nil
		}
	}
	return "", false, nil
}

func lowPool(mode FocusMode, active int) bool {
	switch mode {
	case FocusDiscovery:
		return active < discoveryFocusLowPoolSize
	case FocusOutreach:
		return active == 0
	default:
		return active < lowPoolThreshold
	}
}
