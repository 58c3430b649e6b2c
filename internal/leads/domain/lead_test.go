package domain

import (
	"strings"
	"testing"
	"time"
)

func TestEligibilityPredicatesAreMutuallyExclusive(t *testing.T) {
	contacted := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	cases := []Lead{
		{Status: StatusActive, Email: "a@b.com"},
		{Status: StatusActive, Email: ""},
		{Status: StatusActive, Email: "  "},
		{Status: StatusActive, Email: "a@b.com", LastContactDate: &contacted},
		{Status: StatusNurturing, Email: "a@b.com"},
		{Status: StatusInvalid},
	}

	for i, lead := range cases {
		if lead.IsOutreachEligible() && lead.NeedsEnrichment() {
			t.Fatalf("case %d: lead is both outreach- and enrichment-eligible", i)
		}
	}

	if !cases[0].IsOutreachEligible() {
		t.Fatalf("expected active lead with email to be outreach eligible")
	}
	if !cases[2].NeedsEnrichment() {
		t.Fatalf("expected blank email to need enrichment")
	}
	if cases[3].IsOutreachEligible() {
		t.Fatalf("expected contacted lead not to be outreach eligible")
	}
}

func TestAddScoreClamps(t *testing.T) {
	lead := Lead{Score: 4}
	lead.AddScore(2, "email_found")
	if lead.Score != MaxScore {
		t.Fatalf("expected score capped at %d, got %d", MaxScore, lead.Score)
	}
	lead.AddScore(-10, "")
	if lead.Score != MinScore {
		t.Fatalf("expected score floored at %d, got %d", MinScore, lead.Score)
	}
	if lead.ScoreDetails["email_found"] != 2 {
		t.Fatalf("expected score detail to be recorded, got %#v", lead.ScoreDetails)
	}
}

func TestRecomputeMissingFields(t *testing.T) {
	lead := Lead{Phone: "+905321234567"}
	lead.RecomputeMissingFields()
	if len(lead.MissingFields) != 1 || lead.MissingFields[0] != FieldEmail {
		t.Fatalf("expected only email missing, got %#v", lead.MissingFields)
	}

	lead.Email = "info@example.com"
	lead.RecomputeMissingFields()
	if len(lead.MissingFields) != 0 {
		t.Fatalf("expected nothing missing, got %#v", lead.MissingFields)
	}
}

func TestPrependNoteKeepsNewestFirst(t *testing.T) {
	lead := Lead{}
	lead.PrependNote(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), "first")
	lead.PrependNote(time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC), "second")
	lead.PrependNote(time.Now(), "   ")

	lines := strings.Split(lead.Notes, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 notes, got %q", lead.Notes)
	}
	if lines[0] != "[2026-10-02] second" || lines[1] != "[2026-10-01] first" {
		t.Fatalf("unexpected note order: %q", lead.Notes)
	}
}

func TestMarkContactedTruncatesToDay(t *testing.T) {
	lead := Lead{}
	lead.MarkContacted(time.Date(2026, 10, 21, 15, 42, 0, 0, time.UTC))
	if lead.LastContactDate == nil || lead.LastContactDate.Format(DateLayout) != "2026-10-21" || lead.LastContactDate.Hour() != 0 {
		t.Fatalf("unexpected last contact date: %v", lead.LastContactDate)
	}
}

func TestMatchesFilter(t *testing.T) {
	lead := Lead{District: "Kadıköy", Sector: "Kafe"}
	if !lead.MatchesFilter("all", "") {
		t.Fatalf("expected wildcard filters to match")
	}
	if !lead.MatchesFilter("Kadıköy", "kafe") {
		t.Fatalf("expected case-insensitive sector match")
	}
	if lead.MatchesFilter("Beşiktaş", "all") {
		t.Fatalf("expected district mismatch")
	}
}

func TestStatusRules(t *testing.T) {
	if s, ok := ParseStatus(" Nurturing "); !ok || s != StatusNurturing {
		t.Fatalf("expected nurturing to parse, got %q %v", s, ok)
	}
	if _, ok := ParseStatus("bogus"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
	if !StatusWon.IsTerminal() || StatusActive.IsTerminal() {
		t.Fatalf("unexpected terminal classification")
	}
	if reason := ValidateUserTransition(StatusActive, StatusAwaitingApproval); reason == "" {
		t.Fatalf("expected user edit into awaiting_approval to be rejected")
	}
	if reason := ValidateUserTransition(StatusNurturing, StatusWon); reason != "" {
		t.Fatalf("expected won edit to be allowed, got %q", reason)
	}
}
