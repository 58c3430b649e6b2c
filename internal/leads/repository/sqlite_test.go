package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/platform/db"
)

func newTestLocal(t *testing.T) *LocalRepository {
	t.Helper()
	conn, err := db.OpenSQLite(db.MemoryDSN)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewLocal(conn)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestLocalRepositoryLeadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestLocal(t)

	created, err := repo.CreateLead(ctx, domain.Lead{
		CompanyName:   "Acme Kahve",
		District:      "Kadıköy",
		Sector:        "Kafe",
		Status:        domain.StatusActive,
		Score:         1,
		MissingFields: []string{domain.FieldEmail, domain.FieldPhone},
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	contacted := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	created.Email = "info@acme.test"
	created.Status = domain.StatusNurturing
	created.LastContactDate = &contacted
	created.SocialProfile = &domain.SocialProfile{Summary: "Active on Instagram", Platforms: []string{"instagram"}}
	created.DraftResponse = &domain.DraftResponse{Subject: "Re: teklif", Body: "Merhaba", Intent: "meeting"}
	created.ScoreDetails = map[string]int{"email_found": 2}
	created.Score = 9

	if _, err := repo.UpdateLead(ctx, created); err != nil {
		t.Fatalf("update lead: %v", err)
	}

	got, err := repo.GetLead(ctx, created.ID)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if got.Status != domain.StatusNurturing || got.Email != "info@acme.test" {
		t.Fatalf("unexpected lead after update: %+v", got)
	}
	if got.Score != domain.MaxScore {
		t.Fatalf("expected score clamped to %d, got %d", domain.MaxScore, got.Score)
	}
	if got.LastContactDate == nil || got.LastContactDate.Format(domain.DateLayout) != "2026-10-21" {
		t.Fatalf("unexpected last contact date: %v", got.LastContactDate)
	}
	if got.SocialProfile == nil || got.SocialProfile.Summary != "Active on Instagram" {
		t.Fatalf("expected social profile to round-trip, got %+v", got.SocialProfile)
	}
	if got.DraftResponse == nil || got.DraftResponse.Intent != "meeting" {
		t.Fatalf("expected draft to round-trip, got %+v", got.DraftResponse)
	}
	if len(got.MissingFields) != 2 {
		t.Fatalf("expected missing fields to round-trip, got %#v", got.MissingFields)
	}

	got.DraftResponse = nil
	if _, err := repo.UpdateLead(ctx, got); err != nil {
		t.Fatalf("clear draft: %v", err)
	}
	cleared, _ := repo.GetLead(ctx, got.ID)
	if cleared.DraftResponse != nil {
		t.Fatalf("expected draft to be cleared")
	}
}

func TestLocalRepositoryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestLocal(t)

	for _, name := range []string{"Zeytin", "Anadolu", "Mavi"} {
		if _, err := repo.CreateLead(ctx, domain.Lead{CompanyName: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	leads, err := repo.GetLeads(ctx)
	if err != nil {
		t.Fatalf("get leads: %v", err)
	}
	if len(leads) != 3 || leads[0].CompanyName != "Zeytin" || leads[2].CompanyName != "Mavi" {
		t.Fatalf("unexpected order: %+v", leads)
	}
	if leads[1].Status != domain.StatusActive || leads[1].Score != domain.MinScore {
		t.Fatalf("expected create defaults, got %+v", leads[1])
	}
}

func TestLocalRepositoryMissingRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestLocal(t)

	if _, err := repo.GetLead(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.UpdateLead(ctx, domain.Lead{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if _, err := repo.UpdateTask(ctx, domain.Task{ID: "nope"}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestLocalRepositoryTasksAndActions(t *testing.T) {
	ctx := context.Background()
	repo := newTestLocal(t)

	due := time.Date(2026, 10, 24, 9, 0, 0, 0, time.UTC)
	task, err := repo.CreateTask(ctx, domain.Task{LeadID: "lead-1", CompanyName: "Acme", Description: "check back", Priority: domain.PriorityHigh, DueDate: due})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != domain.TaskOpen {
		t.Fatalf("expected open task, got %s", task.Status)
	}

	task.Status = domain.TaskClosed
	if _, err := repo.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update task: %v", err)
	}
	loaded, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if loaded.Status != domain.TaskClosed || !loaded.DueDate.Equal(due) {
		t.Fatalf("unexpected task: %+v", loaded)
	}

	if err := repo.LogAction(ctx, "outreach", "sent to Acme", domain.SeveritySuccess); err != nil {
		t.Fatalf("log action: %v", err)
	}
	if err := repo.LogAction(ctx, "discovery", "added 2", domain.SeverityInfo); err != nil {
		t.Fatalf("log action: %v", err)
	}
	entries, err := repo.ListActions(ctx, 10)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(entries) != 2 || entries[0].Action != "discovery" {
		t.Fatalf("expected newest action first, got %+v", entries)
	}
}

type storeConfig struct {
	backend string
	path    string
}

func (c storeConfig) GetStoreBackend() string { return c.backend }
func (c storeConfig) GetSQLitePath() string   { return c.path }
func (c storeConfig) GetDatabaseURL() string  { return "" }

func TestOpenLocalBackend(t *testing.T) {
	ctx := context.Background()
	backend, err := Open(ctx, storeConfig{backend: "local", path: db.MemoryDSN})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer backend.Close()

	if err := backend.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := backend.CreateLead(ctx, domain.Lead{CompanyName: "Acme"}); err != nil {
		t.Fatalf("create through backend: %v", err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), storeConfig{backend: "mongo"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
