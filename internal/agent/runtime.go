package agent

import (
	"fmt"
	"strings"
	"sync"
)

// FocusMode biases the decision policy toward sourcing or contacting.
type FocusMode string

const (
	FocusBalanced  FocusMode = "balanced"
	FocusDiscovery FocusMode = "discovery"
	FocusOutreach  FocusMode = "outreach"
)

// Valid reports whether m is a known focus mode.
func (m FocusMode) Valid() bool {
	switch m {
	case FocusBalanced, FocusDiscovery, FocusOutreach:
		return true
	}
	return false
}

// FilterAll disables the district or sector filter.
const FilterAll = "all"

// Config is the user-editable targeting configuration read by every handler.
type Config struct {
	District  string    `json:"district"`
	Sector    string    `json:"sector"`
	FocusMode FocusMode `json:"focusMode"`
}

// DefaultConfig is the startup configuration: no filters, balanced focus.
func DefaultConfig() Config {
	return Config{District: FilterAll, Sector: FilterAll, FocusMode: FocusBalanced}
}

// ConfigPatch is a partial update; nil fields are left unchanged.
type ConfigPatch struct {
	District  *string
	Sector    *string
	FocusMode *FocusMode
}

// Runtime holds the agent's mutable state. It is owned by Agent and shared
// with the guard and handlers so pause and config edits apply on the next tick.
type Runtime struct {
	mu            sync.RWMutex
	running       bool
	config        Config
	status        string
	pendingDrafts int
}

const (
	StatusStopped  = "stopped"
	StatusRunning  = "running"
	StatusIdle     = "idle — within business hours"
	StatusSleeping = "sleeping — outside business hours"
)

func NewRuntime() *Runtime {
	return &Runtime{config: DefaultConfig(), status: StatusStopped}
}

func (r *Runtime) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Runtime) SetRunning(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = running
}

func (r *Runtime) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// ApplyPatch validates and merges patch into the config.
func (r *Runtime) ApplyPatch(patch ConfigPatch) (Config, error) {
	if patch.FocusMode != nil && !patch.FocusMode.Valid() {
		return Config{}, fmt.Errorf("unknown focus mode %q", *patch.FocusMode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if patch.District != nil {
		r.config.District = normalizeFilter(*patch.District)
	}
	if patch.Sector != nil {
		r.config.Sector = normalizeFilter(*patch.Sector)
	}
	if patch.FocusMode != nil {
		r.config.FocusMode = *patch.FocusMode
	}
	return r.config, nil
}

func (r *Runtime) Status() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Runtime) SetStatus(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *Runtime) PendingDrafts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pendingDrafts
}

// AddPendingDrafts adjusts the counter by delta, never below zero.
func (r *Runtime) AddPendingDrafts(delta int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingDrafts += delta
	if r.pendingDrafts < 0 {
		r.pendingDrafts = 0
	}
	return r.pendingDrafts
}

func (r *Runtime) SetPendingDrafts(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 {
		n = 0
	}
	r.pendingDrafts = n
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, FilterAll) {
		return FilterAll
	}
	return v
}
