package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/targeting"
	"leadagent_backend/platform/ai"
)

var errBudgetExhausted = errors.New("daily AI limit reached")

// DiscoveryError is returned when both the grounded search and the
// degraded retry failed.
type DiscoveryError struct {
	Primary  error
	Fallback error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed: search: %s; retry: %s", describe(e.Primary), describe(e.Fallback))
}

func (e *DiscoveryError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

func describe(err error) string {
	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		return aiErr.Message
	}
	if err == nil {
		return "ok"
	}
	return err.Error()
}

type discoveredBusiness struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type discoveryHandler struct {
	*env
}

func (h *discoveryHandler) Name() string { return ActionDiscovery }

func (h *discoveryHandler) Run(ctx context.Context, pool []domain.Lead, cfg Config) (bool, error) {
	if !h.guard.CheckAndCharge(ctx) {
		return false, nil
	}

	district := chooseDistrict(cfg.District, h.catalog, h.rng)
	sector := chooseSector(cfg.Sector, h.catalog, h.rng)
	strategy := h.rotator.Next()
	h.sink.Think(ctx, ThoughtAction, fmt.Sprintf("Searching for %s businesses in %s (%s)", sector, district, strategy.Name))

	found, err := h.search(ctx, district, sector, strategy)
	if err != nil {
		return true, err
	}

	known := make(map[string]struct{}, len(pool))
	for _, l := range pool {
		known[strings.TrimSpace(l.CompanyName)] = struct{}{}
	}

	added := 0
	for _, b := range found {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			continue
		}
		if _, dup := known[name]; dup {
			continue
		}
		known[name] = struct{}{}

		lead := domain.Lead{
			CompanyName:   name,
			Address:       strings.TrimSpace(b.Address),
			District:      district,
			Sector:        sector,
			Status:        domain.StatusActive,
			Score:         domain.MinScore,
			MissingFields: []string{domain.FieldEmail, domain.FieldPhone},
			Source:        "discovery:" + strategy.Name,
		}
		if _, err := h.repo.CreateLead(ctx, lead); err != nil {
			return true, fmt.Errorf("create discovered lead %q: %w", name, err)
		}
		added++
	}

	if added == 0 {
		h.sink.Think(ctx, ThoughtAnalysis, fmt.Sprintf("No new businesses in %s (%d results, all already known)", district, len(found)))
		h.logAction(ctx, ActionDiscovery, fmt.Sprintf("%s / %s: no new leads", district, sector), domain.SeverityInfo)
		return true, nil
	}

	h.sink.Think(ctx, ThoughtSuccess, fmt.Sprintf("Added %d new leads in %s (%s)", added, district, sector))
	h.logAction(ctx, ActionDiscovery, fmt.Sprintf("%s / %s: %d new leads", district, sector, added), domain.SeveritySuccess)
	return true, nil
}

// search tries a grounded search first, then a degraded prompt without tools.
// Each attempt is charged against the guard.
func (h *discoveryHandler) search(ctx context.Context, district, sector string, strategy targeting.Strategy) ([]discoveredBusiness, error) {
	primary, primaryErr := h.attempt(ctx, discoveryPrompt(district, sector, strategy), ai.Options{UseSearch: true})
	if primaryErr == nil {
		return primary, nil
	}

	h.sink.Think(ctx, ThoughtWarning, "Search result unusable, retrying with a simplified request")
	if !h.guard.CheckAndCharge(ctx) {
		return nil, &DiscoveryError{Primary: primaryErr, Fallback: errBudgetExhausted}
	}

	fallback, fallbackErr := h.attempt(ctx, discoveryFallbackPrompt(district, sector), ai.Options{JSON: true})
	if fallbackErr == nil {
		return fallback, nil
	}
	return nil, &DiscoveryError{Primary: primaryErr, Fallback: fallbackErr}
}

func (h *discoveryHandler) attempt(ctx context.Context, prompt string, opts ai.Options) ([]discoveredBusiness, error) {
	raw, err := h.complete(ctx, ActionDiscovery, prompt, opts)
	if err != nil {
		return nil, err
	}

	var list []discoveredBusiness
	if err := ai.DecodeLenient(raw, &list); err == nil {
		return list, nil
	}
	// JSON mode may wrap the array in an object.
	var wrapped struct {
		Businesses []discoveredBusiness `json:"businesses"`
	}
	if err := ai.DecodeLenient(raw, &wrapped); err == nil && wrapped.Businesses != nil {
		return wrapped.Businesses, nil
	}
	return nil, ai.ErrMalformedJSON
}
