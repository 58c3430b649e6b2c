package agent

import (
	"sync"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/targeting"
)

// RandomSource is the injectable randomness used for targeting and reply admission.
// *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

// Rotator cycles discovery strategies round-robin across ticks.
type Rotator struct {
	mu         sync.Mutex
	strategies []targeting.Strategy
	counter    int
}

func NewRotator(strategies []targeting.Strategy) *Rotator {
	if len(strategies) == 0 {
		strategies = []targeting.Strategy{{Name: "general", Description: "local small businesses"}}
	}
	return &Rotator{strategies: strategies}
}

// Next returns the current strategy and advances the counter.
func (r *Rotator) Next() targeting.Strategy {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.strategies[r.counter%len(r.strategies)]
	r.counter++
	return s
}

// Index is the number of strategies handed out so far.
func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

// chooseDistrict honours an explicit filter; otherwise it prefers a priority
// district with the catalog's priority probability.
func chooseDistrict(filter string, catalog *targeting.Catalog, rng RandomSource) string {
	if !domain.IsWildcard(filter) {
		return filter
	}
	if len(catalog.PriorityDistricts) > 0 && rng.Float64() < catalog.PriorityProbability {
		return catalog.PriorityDistricts[rng.IntN(len(catalog.PriorityDistricts))]
	}
	return catalog.Districts[rng.IntN(len(catalog.Districts))]
}

func chooseSector(filter string, catalog *targeting.Catalog, rng RandomSource) string {
	if !domain.IsWildcard(filter) {
		return filter
	}
	return catalog.Sectors[rng.IntN(len(catalog.Sectors))]
}
