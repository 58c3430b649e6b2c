package domain

import (
	"strings"
	"time"
)

// Score bounds.
const (
	MinScore = 1
	MaxScore = 5
)

// Required contact attributes tracked in MissingFields.
const (
	FieldEmail = "email"
	FieldPhone = "phone"
)

// DateLayout is the calendar date format used for last-contact stamps.
const DateLayout = "2006-01-02"

// SocialProfile summarises a lead's public social presence.
type SocialProfile struct {
	Summary       string    `json:"summary"`
	Platforms     []string  `json:"platforms,omitempty"`
	Tone          string    `json:"tone,omitempty"`
	TalkingPoints []string  `json:"talkingPoints,omitempty"`
	AnalyzedAt    time.Time `json:"analyzedAt"`
}

// DraftResponse is an AI-drafted reply waiting for human approval.
type DraftResponse struct {
	Subject         string    `json:"subject"`
	Body            string    `json:"body"`
	Intent          string    `json:"intent"`
	IncomingMessage string    `json:"incomingMessage,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Lead is a prospective business contact tracked through the pipeline.
type Lead struct {
	ID              string
	CompanyName     string
	Sector          string
	District        string
	Address         string
	Phone           string
	Email           string
	Website         string
	Status          LeadStatus
	Score           int
	MissingFields   []string
	LastContactDate *time.Time
	// EnrichedAt marks the last contact lookup; a phone-only gap is looked up once.
	EnrichedAt      *time.Time
	Notes           string
	SocialProfile   *SocialProfile
	DraftResponse   *DraftResponse
	ScoreDetails    map[string]int
	Source          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasEmail reports whether the lead carries a non-blank email.
func (l Lead) HasEmail() bool {
	return strings.TrimSpace(l.Email) != ""
}

// HasPhone reports whether the lead carries a non-blank phone.
func (l Lead) HasPhone() bool {
	return strings.TrimSpace(l.Phone) != ""
}

// IsOutreachEligible: active, has email, never contacted.
func (l Lead) IsOutreachEligible() bool {
	return l.Status == StatusActive && l.HasEmail() && l.LastContactDate == nil
}

// NeedsEnrichment: active without email. Mutually exclusive with
// IsOutreachEligible because email presence decides between them.
func (l Lead) NeedsEnrichment() bool {
	return l.Status == StatusActive && !l.HasEmail()
}

// HasMissingContact: active with email or phone absent.
func (l Lead) HasMissingContact() bool {
	return l.Status == StatusActive && (!l.HasEmail() || !l.HasPhone())
}

// NeedsContactLookup selects enrichment candidates: active leads without an
// email, or without a phone that have not been looked up yet.
func (l Lead) NeedsContactLookup() bool {
	if l.Status != StatusActive {
		return false
	}
	if !l.HasEmail() {
		return true
	}
	return !l.HasPhone() && l.EnrichedAt == nil
}

// ClampScore keeps a score inside [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// AddScore adjusts the score by delta, clamped, and records the reason.
func (l *Lead) AddScore(delta int, reason string) {
	l.Score = ClampScore(l.Score + delta)
	if reason == "" {
		return
	}
	if l.ScoreDetails == nil {
		l.ScoreDetails = make(map[string]int)
	}
	l.ScoreDetails[reason] += delta
}

// RecomputeMissingFields rebuilds MissingFields from the contact attributes.
func (l *Lead) RecomputeMissingFields() {
	missing := make([]string, 0, 2)
	if !l.HasEmail() {
		missing = append(missing, FieldEmail)
	}
	if !l.HasPhone() {
		missing = append(missing, FieldPhone)
	}
	l.MissingFields = missing
}

// PrependNote adds a dated note above the existing ones.
func (l *Lead) PrependNote(at time.Time, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	entry := "[" + at.Format(DateLayout) + "] " + text
	if strings.TrimSpace(l.Notes) == "" {
		l.Notes = entry
		return
	}
	l.Notes = entry + "\n" + l.Notes
}

// MarkContacted stamps the last-contact date with the calendar day of at.
func (l *Lead) MarkContacted(at time.Time) {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	l.LastContactDate = &day
}

// MatchesFilter applies the district/sector filters. "all" or empty means no filter.
func (l Lead) MatchesFilter(district, sector string) bool {
	if !IsWildcard(district) && !strings.EqualFold(strings.TrimSpace(l.District), strings.TrimSpace(district)) {
		return false
	}
	if !IsWildcard(sector) && !strings.EqualFold(strings.TrimSpace(l.Sector), strings.TrimSpace(sector)) {
		return false
	}
	return true
}

// IsWildcard reports whether a filter value means "no filter".
func IsWildcard(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}
