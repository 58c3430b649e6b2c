// Package usage persists the daily AI-call counter consumed by the agent's usage guard.
package usage

import (
	"context"
	"sync"
	"time"
)

// DateLayout keys the counter by calendar day.
const DateLayout = "2006-01-02"

// Stats is the daily usage snapshot. Limit is filled in by the caller from config.
type Stats struct {
	Date  string `json:"date"`
	Calls int    `json:"calls"`
	Limit int    `json:"limit"`
}

// Exhausted reports whether no further calls are allowed today.
func (s Stats) Exhausted() bool {
	return s.Calls >= s.Limit
}

// ForDay returns s rolled over to day: calls reset when the stored date differs.
func (s Stats) ForDay(day string) Stats {
	if s.Date != day {
		return Stats{Date: day, Calls: 0, Limit: s.Limit}
	}
	return s
}

// Today formats now as a usage date key.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Store loads and saves the persisted counter.
type Store interface {
	Load(ctx context.Context) (Stats, error)
	Save(ctx context.Context, stats Stats) error
}

// MemoryStore keeps usage in process memory. Used when Redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	stats Stats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats, nil
}

func (m *MemoryStore) Save(_ context.Context, stats Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
	return nil
}
