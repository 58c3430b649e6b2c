package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/usage"
	"leadagent_backend/platform/logger"
)

// StatusBudgetExhausted is shown while the agent is paused for the day.
const StatusBudgetExhausted = "paused — daily AI limit reached"

// Guard meters AI calls against the daily limit. Every AI-consuming path
// must call CheckAndCharge before issuing the call.
type Guard struct {
	mu      sync.Mutex
	store   usage.Store
	limit   int
	runtime *Runtime
	sink    *Sink
	log     *logger.Logger
	now     func() time.Time
	loc     *time.Location

	notifiedDay string
	pauses      uint64
}

func NewGuard(store usage.Store, limit int, runtime *Runtime, sink *Sink, log *logger.Logger, now func() time.Time, loc *time.Location) *Guard {
	if loc == nil {
		loc = time.Local
	}
	return &Guard{store: store, limit: limit, runtime: runtime, sink: sink, log: log, now: now, loc: loc}
}

// CheckAndCharge returns true and increments the counter when budget remains.
// On exhaustion it pauses the agent, notifies once per day and returns false.
// Store failures deny the call without pausing.
func (g *Guard) CheckAndCharge(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats, err := g.current(ctx)
	if err != nil {
		g.log.WithContext(ctx).Error("usage_load_failed", "error", err)
		g.sink.Think(ctx, ThoughtError, "Usage counter unavailable; skipping AI call")
		return false
	}

	if stats.Exhausted() {
		g.exhaust(ctx, stats)
		return false
	}

	stats.Calls++
	if err := g.store.Save(ctx, stats); err != nil {
		g.log.WithContext(ctx).Error("usage_save_failed", "error", err)
		g.sink.Think(ctx, ThoughtError, "Usage counter could not be updated; skipping AI call")
		return false
	}
	return true
}

// Exhausted peeks at the budget without charging. Store failures read as not exhausted.
func (g *Guard) Exhausted(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats, err := g.current(ctx)
	if err != nil {
		g.log.WithContext(ctx).Warn("usage_load_failed", "error", err)
		return false
	}
	return stats.Exhausted()
}

// Usage returns today's counters for display.
func (g *Guard) Usage(ctx context.Context) usage.Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats, err := g.current(ctx)
	if err != nil {
		return usage.Stats{Date: g.today(), Limit: g.limit}
	}
	return stats
}

func (g *Guard) current(ctx context.Context) (usage.Stats, error) {
	stats, err := g.store.Load(ctx)
	if err != nil {
		return usage.Stats{}, fmt.Errorf("load usage: %w", err)
	}
	stats = stats.ForDay(g.today())
	stats.Limit = g.limit
	return stats, nil
}

func (g *Guard) today() string {
	return usage.Today(g.now().In(g.loc))
}

// Pauses counts how often exhaustion has paused the agent.
func (g *Guard) Pauses() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pauses
}

func (g *Guard) exhaust(ctx context.Context, stats usage.Stats) {
	g.pauses++
	g.runtime.SetRunning(false)
	g.runtime.SetStatus(StatusBudgetExhausted)
	g.sink.Think(ctx, ThoughtError, fmt.Sprintf("Daily AI limit reached (%d/%d); agent paused until tomorrow", stats.Calls, stats.Limit))

	if g.notifiedDay == stats.Date {
		return
	}
	g.notifiedDay = stats.Date
	g.sink.Notify(ctx, domain.SeverityWarning, "Daily AI limit reached",
		fmt.Sprintf("The agent used %d of %d AI calls today and has been paused.", stats.Calls, stats.Limit), "")
}
