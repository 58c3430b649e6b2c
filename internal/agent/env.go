package agent

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"leadagent_backend/internal/email"
	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/internal/targeting"
	"leadagent_backend/internal/usage"
	"leadagent_backend/platform/ai"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
	"leadagent_backend/platform/phone"
)

// DefaultReplyProbability is the chance that a contacted lead "replies" on a given tick.
const DefaultReplyProbability = 0.3

// FollowUpScheduler schedules a reminder for an open follow-up task.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, taskID, leadID string, runAt time.Time) error
}

// Settings are the static agent knobs loaded from config.
type Settings struct {
	TickInterval     time.Duration
	DailyLimit       int
	Location         *time.Location
	ReplyProbability float64
	PhoneRegion      string
	SenderCompany    string
}

// SettingsFromConfig maps the agent config section.
func SettingsFromConfig(cfg config.AgentConfig) Settings {
	return Settings{
		TickInterval:     cfg.GetAgentTickInterval(),
		DailyLimit:       cfg.GetAgentDailyLimit(),
		Location:         cfg.GetAgentLocation(),
		ReplyProbability: cfg.GetAgentReplyProbability(),
		PhoneRegion:      cfg.GetDefaultPhoneRegion(),
		SenderCompany:    cfg.GetSenderCompanyName(),
	}
}

func (s Settings) withDefaults() Settings {
	if s.TickInterval <= 0 {
		s.TickInterval = 20 * time.Second
	}
	if s.DailyLimit <= 0 {
		s.DailyLimit = 50
	}
	if s.Location == nil {
		s.Location = time.Local
	}
	if s.ReplyProbability < 0 || s.ReplyProbability > 1 {
		s.ReplyProbability = DefaultReplyProbability
	}
	if s.PhoneRegion == "" {
		s.PhoneRegion = phone.DefaultRegion
	}
	return s
}

// Deps are the collaborators the agent drives.
type Deps struct {
	Repo    repository.Repository
	AI      ai.Completer
	Mailer  email.Mailer
	Usage   usage.Store
	Catalog *targeting.Catalog
	// Optional.
	Bus       events.Bus
	FollowUps FollowUpScheduler
	Log       *logger.Logger
	Now       func() time.Time
	Rand      RandomSource
}

// env is the shared context handed to every handler.
type env struct {
	repo      repository.Repository
	ai        ai.Completer
	mailer    email.Mailer
	catalog   *targeting.Catalog
	guard     *Guard
	sink      *Sink
	runtime   *Runtime
	rotator   *Rotator
	bus       events.Bus
	followUps FollowUpScheduler
	log       *logger.Logger
	now       func() time.Time
	rng       RandomSource
	settings  Settings
}

func newEnv(deps Deps, settings Settings) *env {
	settings = settings.withDefaults()
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	if deps.Catalog == nil {
		deps.Catalog = targeting.Default()
	}
	if deps.Mailer == nil {
		deps.Mailer = email.NoopMailer{}
	}
	if deps.Usage == nil {
		deps.Usage = usage.NewMemoryStore()
	}

	rt := NewRuntime()
	sink := NewSink(deps.Log, deps.Bus, deps.Now)
	return &env{
		repo:      deps.Repo,
		ai:        deps.AI,
		mailer:    deps.Mailer,
		catalog:   deps.Catalog,
		guard:     NewGuard(deps.Usage, settings.DailyLimit, rt, sink, deps.Log, deps.Now, settings.Location),
		sink:      sink,
		runtime:   rt,
		rotator:   NewRotator(deps.Catalog.Strategies),
		bus:       deps.Bus,
		followUps: deps.FollowUps,
		log:       deps.Log,
		now:       deps.Now,
		rng:       deps.Rand,
		settings:  settings,
	}
}

// localNow is the current time in the agent's business timezone.
func (e *env) localNow() time.Time {
	return e.now().In(e.settings.Location)
}

func (e *env) publish(ctx context.Context, event events.Event) {
	if e.bus != nil {
		e.bus.Publish(ctx, event)
	}
}

// logAction writes to the persisted action log; failures are only logged.
func (e *env) logAction(ctx context.Context, action, detail string, severity domain.Severity) {
	if err := e.repo.LogAction(ctx, action, detail, severity); err != nil {
		e.log.WithContext(ctx).DatabaseError("log_action", err)
	}
}

// complete charges nothing itself; callers check the guard first.
func (e *env) complete(ctx context.Context, operation, prompt string, opts ai.Options) (string, error) {
	raw, err := e.ai.Complete(ctx, prompt, opts)
	if err != nil {
		classified := ai.Classify(err)
		e.log.WithContext(ctx).AIError(operation, string(classified.Category), err)
		return "", classified
	}
	return raw, nil
}

// completeGrounded asks for a search-grounded answer. When the provider or key
// cannot ground, it retries once in plain JSON mode; the retry is charged.
func (e *env) completeGrounded(ctx context.Context, operation, prompt string) (string, error) {
	raw, err := e.complete(ctx, operation, prompt, ai.Options{UseSearch: true})
	var aiErr *ai.Error
	if err == nil || !errors.As(err, &aiErr) || aiErr.Category != ai.CategorySearchUnsupported {
		return raw, err
	}

	e.sink.Think(ctx, ThoughtWarning, "Search grounding unavailable, retrying without search")
	if !e.guard.CheckAndCharge(ctx) {
		return "", errBudgetExhausted
	}
	return e.complete(ctx, operation, prompt, ai.Options{JSON: true})
}
