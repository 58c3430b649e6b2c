package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"leadagent_backend/internal/email"
	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/internal/targeting"
	"leadagent_backend/internal/usage"
	"leadagent_backend/platform/ai"
)

// Wednesday 10:30, inside business hours.
var wednesdayMorning = time.Date(2026, 10, 21, 10, 30, 0, 0, time.UTC)

// Saturday 23:00, outside business hours.
var saturdayNight = time.Date(2026, 10, 24, 23, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu        sync.Mutex
	leads     []domain.Lead
	tasks     []domain.Task
	actions   []domain.ActionLogEntry
	getErr    error
	panicGet  bool
	updates   int
	idCounter int
}

func newFakeRepo(leads ...domain.Lead) *fakeRepo {
	r := &fakeRepo{}
	for _, l := range leads {
		if l.ID == "" {
			r.idCounter++
			l.ID = fmt.Sprintf("lead-%d", r.idCounter)
		}
		r.leads = append(r.leads, l)
	}
	return r
}

func (r *fakeRepo) GetLeads(_ context.Context) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicGet {
		panic("store exploded")
	}
	if r.getErr != nil {
		return nil, r.getErr
	}
	out := make([]domain.Lead, len(r.leads))
	copy(out, r.leads)
	return out, nil
}

func (r *fakeRepo) GetLead(_ context.Context, id string) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Lead{}, repository.ErrNotFound
}

func (r *fakeRepo) CreateLead(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idCounter++
	lead.ID = fmt.Sprintf("lead-%d", r.idCounter)
	r.leads = append(r.leads, lead)
	return lead, nil
}

func (r *fakeRepo) UpdateLead(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.leads {
		if l.ID == lead.ID {
			r.leads[i] = lead
			r.updates++
			return lead, nil
		}
	}
	return domain.Lead{}, repository.ErrNotFound
}

func (r *fakeRepo) GetTasks(_ context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

func (r *fakeRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, repository.ErrTaskNotFound
}

func (r *fakeRepo) CreateTask(_ context.Context, task domain.Task) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = fmt.Sprintf("task-%d", len(r.tasks)+1)
	r.tasks = append(r.tasks, task)
	return task, nil
}

func (r *fakeRepo) UpdateTask(_ context.Context, task domain.Task) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tasks {
		if t.ID == task.ID {
			r.tasks[i] = task
			return task, nil
		}
	}
	return domain.Task{}, repository.ErrTaskNotFound
}

func (r *fakeRepo) LogAction(_ context.Context, action, detail string, severity domain.Severity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, domain.ActionLogEntry{ID: int64(len(r.actions) + 1), Action: action, Detail: detail, Severity: severity})
	return nil
}

func (r *fakeRepo) ListActions(_ context.Context, _ int) ([]domain.ActionLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActionLogEntry, len(r.actions))
	copy(out, r.actions)
	return out, nil
}

func (r *fakeRepo) lead(t *testing.T, id string) domain.Lead {
	t.Helper()
	l, err := r.GetLead(context.Background(), id)
	if err != nil {
		t.Fatalf("lead %s: %v", id, err)
	}
	return l
}

type aiReply struct {
	text string
	err  error
}

type aiCall struct {
	prompt string
	opts   ai.Options
}

// scriptedAI returns queued replies in order and fails on unexpected calls.
type scriptedAI struct {
	mu      sync.Mutex
	replies []aiReply
	calls   []aiCall
}

func newScriptedAI(replies ...aiReply) *scriptedAI {
	return &scriptedAI{replies: replies}
}

func (s *scriptedAI) Complete(_ context.Context, prompt string, opts ai.Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, aiCall{prompt: prompt, opts: opts})
	if len(s.replies) == 0 {
		return "", errors.New("unexpected AI call")
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next.text, next.err
}

func (s *scriptedAI) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// searchlessAI rejects grounded requests the way a provider without search
// does, and answers plain requests with reply or plainErr.
type searchlessAI struct {
	mu       sync.Mutex
	reply    string
	plainErr error
	searches int
	plain    int
}

func (s *searchlessAI) Complete(_ context.Context, _ string, opts ai.Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if opts.UseSearch {
		s.searches++
		return "", ai.ErrSearchUnsupported
	}
	s.plain++
	if s.plainErr != nil {
		return "", s.plainErr
	}
	return s.reply, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) (email.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return email.Receipt{}, m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return email.Receipt{Provider: "fake", MessageID: fmt.Sprintf("msg-%d", len(m.sent)), To: to}, nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// blockingMailer parks Send until release is closed.
type blockingMailer struct {
	entered chan struct{}
	release chan struct{}
}

func (m *blockingMailer) Send(_ context.Context, to, _, _ string) (email.Receipt, error) {
	m.entered <- struct{}{}
	<-m.release
	return email.Receipt{Provider: "fake", MessageID: "msg-1", To: to}, nil
}

// seqRand replays floats in order, then returns 0.99; IntN always picks 0.
type seqRand struct {
	floats []float64
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *seqRand) IntN(int) int { return 0 }

type failingStore struct{}

func (failingStore) Load(context.Context) (usage.Stats, error) {
	return usage.Stats{}, errors.New("redis down")
}

func (failingStore) Save(context.Context, usage.Stats) error {
	return errors.New("redis down")
}

type recordedFollowUp struct {
	taskID, leadID string
	runAt          time.Time
}

type fakeFollowUps struct {
	scheduled []recordedFollowUp
}

func (f *fakeFollowUps) ScheduleFollowUp(_ context.Context, taskID, leadID string, runAt time.Time) error {
	f.scheduled = append(f.scheduled, recordedFollowUp{taskID: taskID, leadID: leadID, runAt: runAt})
	return nil
}

type harness struct {
	agent  *Agent
	repo   *fakeRepo
	ai     *scriptedAI
	mailer *fakeMailer
	store  usage.Store
	rng    *seqRand
	follow *fakeFollowUps
}

type harnessOption func(*Deps, *Settings)

func withNow(now time.Time) harnessOption {
	return func(d *Deps, _ *Settings) { d.Now = func() time.Time { return now } }
}

func withLimit(limit int) harnessOption {
	return func(_ *Deps, s *Settings) { s.DailyLimit = limit }
}

func withStore(store usage.Store) harnessOption {
	return func(d *Deps, _ *Settings) { d.Usage = store }
}

func withCompleter(completer ai.Completer) harnessOption {
	return func(d *Deps, _ *Settings) { d.AI = completer }
}

func withMailer(mailer email.Mailer) harnessOption {
	return func(d *Deps, _ *Settings) { d.Mailer = mailer }
}

func newHarness(t *testing.T, repo *fakeRepo, completer *scriptedAI, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		repo:   repo,
		ai:     completer,
		mailer: &fakeMailer{},
		store:  usage.NewMemoryStore(),
		rng:    &seqRand{},
		follow: &fakeFollowUps{},
	}
	deps := Deps{
		Repo:      repo,
		AI:        completer,
		Mailer:    h.mailer,
		Usage:     h.store,
		Catalog:   targeting.Default(),
		FollowUps: h.follow,
		Now:       func() time.Time { return wednesdayMorning },
		Rand:      h.rng,
	}
	settings := Settings{
		TickInterval:     time.Hour,
		DailyLimit:       10,
		Location:         time.UTC,
		ReplyProbability: 0.3,
		SenderCompany:    "Dijital Ajans",
	}
	for _, opt := range opts {
		opt(&deps, &settings)
	}
	h.store = deps.Usage
	h.agent = New(deps, settings)
	return h
}

func (h *harness) tick(t *testing.T) TickResult {
	t.Helper()
	res, err := h.agent.RunCycleNow(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	return res
}

func (h *harness) usedCalls(t *testing.T) int {
	t.Helper()
	stats, err := h.store.Load(context.Background())
	if err != nil {
		t.Fatalf("load usage: %v", err)
	}
	return stats.Calls
}

func countThoughts(thoughts []Thought, category ThoughtCategory) int {
	n := 0
	for _, th := range thoughts {
		if th.Category == category {
			n++
		}
	}
	return n
}

func eligibleLead(name, mail string) domain.Lead {
	return domain.Lead{
		CompanyName: name,
		District:    "Kadıköy",
		Sector:      "Kafe",
		Email:       mail,
		Status:      domain.StatusActive,
		Score:       1,
	}
}
