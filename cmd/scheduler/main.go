package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/internal/notification"
	"leadagent_backend/internal/scheduler"
	"leadagent_backend/internal/whatsapp"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler worker")
	}
	if cfg.GetStoreBackend() == config.StoreBackendLocal {
		log.Warn("scheduler is using the local SQLite store; it must share the agent's data file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	// Reminders reach the operator over WhatsApp; there are no stream clients here.
	var operatorWhatsApp notification.WhatsAppSender
	if wa := whatsapp.NewClient(cfg, cfg.GetDefaultPhoneRegion(), log); wa != nil {
		operatorWhatsApp = wa
	} else {
		log.Warn("WHATSAPP_URL not configured; follow-up reminders are only logged")
	}
	notificationModule := notification.New(operatorWhatsApp, cfg.GetWhatsAppOperatorPhone(), nil, log)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, store, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
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
