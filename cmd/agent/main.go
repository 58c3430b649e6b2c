package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadagent_backend/internal/agent"
	agenthandler "leadagent_backend/internal/agent/handler"
	"leadagent_backend/internal/email"
	"leadagent_backend/internal/events"
	apphttp "leadagent_backend/internal/http"
	"leadagent_backend/internal/http/router"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/internal/notification"
	"leadagent_backend/internal/notification/sse"
	"leadagent_backend/internal/scheduler"
	"leadagent_backend/internal/targeting"
	"leadagent_backend/internal/usage"
	"leadagent_backend/internal/whatsapp"
	"leadagent_backend/platform/ai"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
	"leadagent_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting agent", "env", cfg.Env, "addr", cfg.GetHTTPAddr(), "store", cfg.GetStoreBackend())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var store *repository.Backend
	if err := withRetry(ctx, log, "lead store", 5, 2*time.Second, func() error {
		s, err := repository.Open(ctx, cfg)
		if err != nil {
			return err
		}
		store = s
		return nil
	}); err != nil {
		log.Error("failed to open lead store", "error", err)
		panic("failed to open lead store: " + err.Error())
	}
	defer store.Close()
	log.Info("lead store ready", "backend", store.Kind)

	usageStore := initUsageStore(cfg, log)

	completer, err := ai.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize AI provider", "error", err)
		panic("failed to initialize AI provider: " + err.Error())
	}

	mailer, err := email.New(cfg)
	if err != nil {
		log.Error("failed to initialize mailer", "error", err)
		panic("failed to initialize mailer: " + err.Error())
	}

	catalog, err := targeting.Load(cfg.GetTargetingFile())
	if err != nil {
		log.Error("failed to load targeting catalog", "error", err)
		panic("failed to load targeting catalog: " + err.Error())
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	followUps, closeScheduler := initFollowUpScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	stream := sse.New(log)
	defer stream.Close()

	var operatorWhatsApp notification.WhatsAppSender
	if wa := whatsapp.NewClient(cfg, cfg.GetDefaultPhoneRegion(), log); wa != nil {
		operatorWhatsApp = wa
	}
	notificationModule := notification.New(operatorWhatsApp, cfg.GetWhatsAppOperatorPhone(), stream, log)
	notificationModule.RegisterHandlers(eventBus)

	deps := agent.Deps{
		Repo:    store,
		AI:      completer,
		Mailer:  mailer,
		Usage:   usageStore,
		Catalog: catalog,
		Bus:     eventBus,
		Log:     log,
	}
	if followUps != nil {
		deps.FollowUps = followUps
	}
	salesAgent := agent.New(deps, agent.SettingsFromConfig(cfg))
	if err := salesAgent.Restore(ctx); err != nil {
		log.Warn("failed to restore agent state", "error", err)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: store,
		Modules: []apphttp.Module{
			agenthandler.New(salesAgent, validator.New(), stream.Handler()),
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return salesAgent.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		// Close event streams first; they would otherwise hold Shutdown open.
		stream.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("agent stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("agent stopped")
}

func initUsageStore(cfg config.SchedulerConfig, log *logger.Logger) usage.Store {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; daily AI usage is kept in memory")
		return usage.NewMemoryStore()
	}

	client, err := usage.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize redis usage store; falling back to memory", "error", err)
		return usage.NewMemoryStore()
	}
	return usage.NewRedisStore(client, usage.DefaultKey)
}

func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
