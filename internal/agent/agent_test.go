package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/usage"
	"leadagent_backend/platform/apperr"
)

func TestToggleRefusedWhenBudgetExhausted(t *testing.T) {
	store := usage.NewMemoryStore()
	_ = store.Save(context.Background(), usage.Stats{Date: "2026-10-21", Calls: 10, Limit: 10})
	h := newHarness(t, newFakeRepo(), newScriptedAI(), withStore(store))

	running, err := h.agent.Toggle(context.Background())

	if running || !apperr.Is(err, apperr.KindTooManyRequests) {
		t.Fatalf("expected refusal, got running=%v err=%v", running, err)
	}
	state := h.agent.State(context.Background())
	if state.IsRunning || state.Status != StatusStopped {
		t.Fatalf("expected no state change, got %+v", state)
	}
	notes := h.agent.Notifications()
	if len(notes) != 1 || notes[0].Severity != domain.SeverityWarning {
		t.Fatalf("expected a warning notification, got %+v", notes)
	}
}

func TestToggleStartsAndStops(t *testing.T) {
	h := newHarness(t, newFakeRepo(), newScriptedAI())
	ctx := context.Background()

	running, err := h.agent.Toggle(ctx)
	if err != nil || !running {
		t.Fatalf("expected start, got running=%v err=%v", running, err)
	}
	if h.agent.State(ctx).Status != StatusRunning {
		t.Fatalf("expected running status")
	}

	running, err = h.agent.Toggle(ctx)
	if err != nil || running {
		t.Fatalf("expected stop, got running=%v err=%v", running, err)
	}
	if h.agent.State(ctx).Status != StatusStopped {
		t.Fatalf("expected stopped status")
	}
}

func TestRunStartsImmediatePassOnToggle(t *testing.T) {
	repo := newFakeRepo(eligibleLead("Acme Kahve", "info@acme.test"))
	h := newHarness(t, repo, newScriptedAI())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.agent.Run(ctx) }()

	if _, err := h.agent.Toggle(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.mailer.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if h.mailer.count() != 1 {
		t.Fatalf("expected the start to trigger one pass without waiting an interval, got %d emails", h.mailer.count())
	}
}

func TestStopDuringPassKeepsStoppedStatus(t *testing.T) {
	mailer := &blockingMailer{entered: make(chan struct{}, 1), release: make(chan struct{})}
	repo := newFakeRepo(eligibleLead("Acme Kahve", "info@acme.test"))
	h := newHarness(t, repo, newScriptedAI(), withMailer(mailer))
	ctx := context.Background()

	if _, err := h.agent.Toggle(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	done := make(chan TickResult, 1)
	go func() {
		res, _ := h.agent.RunCycleNow(ctx)
		done <- res
	}()

	<-mailer.entered
	if running, err := h.agent.Toggle(ctx); err != nil || running {
		t.Fatalf("expected stop, got running=%v err=%v", running, err)
	}
	close(mailer.release)
	res := <-done

	if res.Action != ActionOutreach || !res.Acted {
		t.Fatalf("expected the in-flight send to finish, got %+v", res)
	}
	if res.Status != StatusStopped || h.agent.State(ctx).Status != StatusStopped {
		t.Fatalf("expected stopped status to survive the pass, got %q", h.agent.State(ctx).Status)
	}
}

func TestRunCycleNowRejectsOverlap(t *testing.T) {
	h := newHarness(t, newFakeRepo(), newScriptedAI())
	h.agent.inFlight.Store(true)

	_, err := h.agent.RunCycleNow(context.Background())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict while a pass is in flight, got %v", err)
	}
}

func TestTickRecoversFromPanic(t *testing.T) {
	repo := newFakeRepo()
	repo.panicGet = true
	h := newHarness(t, repo, newScriptedAI())

	res := h.tick(t)

	if !strings.Contains(res.Error, "panicked") {
		t.Fatalf("expected panic to be reported, got %+v", res)
	}
	if !strings.HasPrefix(res.Status, "error: ") {
		t.Fatalf("expected error status, got %q", res.Status)
	}
	if h.agent.inFlight.Load() {
		t.Fatalf("expected in-flight flag released")
	}
}

func TestRepositoryErrorEndsTick(t *testing.T) {
	repo := newFakeRepo()
	repo.getErr = errors.New("database is locked")
	h := newHarness(t, repo, newScriptedAI(aiReply{text: `[]`}))

	res := h.tick(t)

	if res.Status != "error: load leads: database is locked" {
		t.Fatalf("unexpected status %q", res.Status)
	}
	if countThoughts(h.agent.Thoughts(), ThoughtError) != 1 {
		t.Fatalf("expected an error thought")
	}

	repo.getErr = nil
	if res := h.tick(t); res.Error != "" {
		t.Fatalf("expected the next tick to run normally, got %+v", res)
	}
}

func TestUpdateConfigAppliesOnNextTick(t *testing.T) {
	repo := newFakeRepo(eligibleLead("Acme Kahve", "info@acme.test"))
	completer := newScriptedAI(aiReply{text: `[{"name": "Çarşı Kafe", "address": "Beşiktaş"}]`})
	h := newHarness(t, repo, completer)
	district := "Beşiktaş"

	cfg, err := h.agent.UpdateConfig(context.Background(), ConfigPatch{District: &district})
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if cfg.District != "Beşiktaş" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	res := h.tick(t)

	if res.Action != ActionDiscovery {
		t.Fatalf("expected the Kadıköy lead to be filtered out, got %+v", res)
	}
	if h.mailer.count() != 0 {
		t.Fatalf("expected no outreach outside the district filter")
	}
	if created := repo.leads[1]; created.District != "Beşiktaş" {
		t.Fatalf("expected discovery to honour the district filter, got %q", created.District)
	}
}

func TestUpdateConfigRejectsUnknownFocus(t *testing.T) {
	h := newHarness(t, newFakeRepo(), newScriptedAI())
	focus := FocusMode("everything")

	_, err := h.agent.UpdateConfig(context.Background(), ConfigPatch{FocusMode: &focus})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRestoreCountsPendingDrafts(t *testing.T) {
	waiting := eligibleLead("Acme Kahve", "info@acme.test")
	waiting.Status = domain.StatusAwaitingApproval
	waiting.DraftResponse = &domain.DraftResponse{Subject: "Teklif", Body: "Merhaba"}
	h := newHarness(t, newFakeRepo(waiting, eligibleLead("Other", "o@x.tr")), newScriptedAI())

	if err := h.agent.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := h.agent.State(context.Background()).PendingDrafts; got != 1 {
		t.Fatalf("expected 1 pending draft, got %d", got)
	}
}
