// Package agent runs the autonomous sales loop: a cycle scheduler drives a
// decision policy that invokes at most one action handler per tick, every AI
// call metered by the usage guard.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/ai"
	"leadagent_backend/platform/apperr"
	"leadagent_backend/platform/logger"

	"github.com/google/uuid"
)

const maxStatusMessageRunes = 160

// TickResult summarises one decision pass.
type TickResult struct {
	TickID string `json:"tickId"`
	Action string `json:"action,omitempty"`
	Acted  bool   `json:"acted"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// State is the read-only view exposed to the UI.
type State struct {
	IsRunning     bool   `json:"isRunning"`
	Status        string `json:"status"`
	DailyUsage    int    `json:"dailyUsage"`
	DailyLimit    int    `json:"dailyLimit"`
	PendingDrafts int    `json:"pendingDraftsCount"`
	Config        Config `json:"config"`
}

// Agent is the cycle scheduler and the entry point for user commands.
type Agent struct {
	*env
	policy   *policy
	inFlight atomic.Bool
	trigger  chan struct{}
}

func New(deps Deps, settings Settings) *Agent {
	e := newEnv(deps, settings)
	return &Agent{
		env:     e,
		policy:  newPolicy(e),
		trigger: make(chan struct{}, 1),
	}
}

// Run drives ticks until ctx is cancelled. Ticks only execute while running.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.settings.TickInterval)
	defer ticker.Stop()

	a.log.Info("agent_scheduler_started", "interval", a.settings.TickInterval.String())
	for {
		select {
		case <-ctx.Done():
			a.log.Info("agent_scheduler_stopped")
			return nil
		case <-a.trigger:
			ticker.Reset(a.settings.TickInterval)
			a.tickIfRunning(ctx)
		case <-ticker.C:
			a.tickIfRunning(ctx)
		}
	}
}

func (a *Agent) tickIfRunning(ctx context.Context) {
	if !a.runtime.IsRunning() {
		return
	}
	if _, err := a.runTick(ctx); err != nil {
		a.log.WithContext(ctx).Debug("agent_tick_skipped", "reason", err.Error())
	}
}

// Toggle flips between stopped and running. Starting fires an immediate pass
// and is refused while the daily budget is exhausted.
func (a *Agent) Toggle(ctx context.Context) (bool, error) {
	if a.runtime.IsRunning() {
		a.runtime.SetRunning(false)
		a.runtime.SetStatus(StatusStopped)
		a.sink.Think(ctx, ThoughtDecision, "Agent stopped by user")
		return false, nil
	}

	if a.guard.Exhausted(ctx) {
		a.sink.Notify(ctx, domain.SeverityWarning, "Cannot start agent", "The daily AI limit is already reached. Try again tomorrow.", "")
		return false, apperr.TooManyRequests("daily AI limit reached")
	}

	a.runtime.SetRunning(true)
	a.runtime.SetStatus(StatusRunning)
	a.sink.Think(ctx, ThoughtDecision, "Agent started")
	a.kick()
	return true, nil
}

// RunCycleNow runs one pass immediately, whether or not the scheduler is running.
func (a *Agent) RunCycleNow(ctx context.Context) (TickResult, error) {
	// In-flight actions complete even if the caller goes away.
	return a.runTick(context.WithoutCancel(ctx))
}

// UpdateConfig applies a partial edit; the next tick reads it.
func (a *Agent) UpdateConfig(ctx context.Context, patch ConfigPatch) (Config, error) {
	cfg, err := a.runtime.ApplyPatch(patch)
	if err != nil {
		return Config{}, apperr.Validation(err.Error())
	}
	a.sink.Think(ctx, ThoughtDecision, fmt.Sprintf("Targeting updated: district=%s sector=%s focus=%s", cfg.District, cfg.Sector, cfg.FocusMode))
	return cfg, nil
}

func (a *Agent) State(ctx context.Context) State {
	stats := a.guard.Usage(ctx)
	return State{
		IsRunning:     a.runtime.IsRunning(),
		Status:        a.runtime.Status(),
		DailyUsage:    stats.Calls,
		DailyLimit:    stats.Limit,
		PendingDrafts: a.runtime.PendingDrafts(),
		Config:        a.runtime.Config(),
	}
}

func (a *Agent) Thoughts() []Thought {
	return a.sink.Thoughts()
}

func (a *Agent) Notifications() []Notification {
	return a.sink.Notifications()
}

// Restore rebuilds in-memory counters from the store after a restart.
func (a *Agent) Restore(ctx context.Context) error {
	leads, err := a.repo.GetLeads(ctx)
	if err != nil {
		return fmt.Errorf("restore agent state: %w", err)
	}
	pending := 0
	for _, l := range leads {
		if l.Status == domain.StatusAwaitingApproval {
			pending++
		}
	}
	a.runtime.SetPendingDrafts(pending)
	return nil
}

func (a *Agent) kick() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

func (a *Agent) runTick(ctx context.Context) (result TickResult, err error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return TickResult{}, apperr.Conflict("a decision pass is already running")
	}
	defer a.inFlight.Store(false)

	result.TickID = uuid.NewString()
	ctx = context.WithValue(ctx, logger.TickIDKey, result.TickID)
	start := a.now()
	wasRunning := a.runtime.IsRunning()

	action, acted, tickErr := a.safeRun(ctx)
	result.Action = action
	result.Acted = acted

	switch {
	case tickErr != nil:
		result.Error = a.fail(ctx, action, tickErr)
	case acted:
		a.setStatus("working — " + action)
	default:
		a.idle(ctx)
	}
	// A stop that arrived mid-pass stays visible.
	if wasRunning && !a.runtime.IsRunning() {
		a.setStatus(StatusStopped)
	}

	result.Status = a.runtime.Status()
	a.log.WithContext(ctx).AgentTick(action, acted, result.Status, a.now().Sub(start))
	return result, nil
}

func (a *Agent) safeRun(ctx context.Context) (action string, acted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decision pass panicked: %v", r)
		}
	}()
	return a.policy.run(ctx)
}

func (a *Agent) idle(ctx context.Context) {
	if IsBusinessHours(a.localNow()) {
		a.setStatus(StatusIdle)
		a.sink.Think(ctx, ThoughtWait, "Nothing to do right now; waiting for the next cycle")
		return
	}
	a.setStatus(StatusSleeping)
	a.sink.Think(ctx, ThoughtWait, "Outside business hours and nothing else to do; sleeping")
}

// setStatus keeps the budget pause visible until the user restarts the agent.
func (a *Agent) setStatus(status string) {
	if a.runtime.Status() == StatusBudgetExhausted {
		return
	}
	a.runtime.SetStatus(status)
}

func (a *Agent) fail(ctx context.Context, action string, err error) string {
	msg := userMessage(err)
	if action == "" {
		action = "cycle"
	}
	a.log.WithContext(ctx).Error("agent_tick_failed", "action", action, "error", err)
	a.setStatus("error: " + msg)
	a.sink.Think(ctx, ThoughtError, fmt.Sprintf("%s failed: %s", action, msg))
	a.logAction(ctx, action, msg, domain.SeverityError)
	return msg
}

// userMessage reduces err to a short, classified, human-readable string.
func userMessage(err error) string {
	var discoveryErr *DiscoveryError
	if errors.As(err, &discoveryErr) {
		return discoveryErr.Error()
	}
	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		return aiErr.Message
	}
	msg := err.Error()
	if utf8.RuneCountInString(msg) > maxStatusMessageRunes {
		msg = string([]rune(msg)[:maxStatusMessageRunes]) + "…"
	}
	return msg
}
