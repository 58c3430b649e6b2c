package scheduler

import (
	"context"
	"errors"
	"fmt"

	"leadagent_backend/internal/events"
	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/leads/repository"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// FollowUpStore is the slice of the lead repository the worker needs.
type FollowUpStore interface {
	repository.TaskStore
	repository.ActionLogger
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, store FollowUpStore, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	handler := NewFollowUpHandler(store, bus, log)
	mux.HandleFunc(TaskFollowUpDue, handler.ProcessTask)

	return &Worker{server: server, mux: mux, log: log}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return
	}
	w.log.Info("scheduler worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("scheduler worker stopped")
}

// FollowUpHandler turns a due reminder into a FollowUpDue event.
type FollowUpHandler struct {
	store FollowUpStore
	bus   events.Bus
	log   *logger.Logger
}

func NewFollowUpHandler(store FollowUpStore, bus events.Bus, log *logger.Logger) *FollowUpHandler {
	return &FollowUpHandler{store: store, bus: bus, log: log}
}

// ProcessTask ignores reminders for closed or deleted tasks.
func (h *FollowUpHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpDuePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	followUp, err := h.store.GetTask(ctx, payload.TaskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		h.log.Info("followup_task_missing", "taskId", payload.TaskID)
		return nil
	}
	if err != nil {
		return err
	}
	if followUp.Status != domain.TaskOpen {
		return nil
	}

	detail := fmt.Sprintf("%s: %s", followUp.CompanyName, followUp.Description)
	if err := h.store.LogAction(ctx, "followup_due", detail, domain.SeverityWarning); err != nil {
		h.log.DatabaseError("log_action", err)
	}

	if h.bus == nil {
		return nil
	}
	return h.bus.PublishSync(ctx, events.FollowUpDue{
		BaseEvent:   events.NewBaseEvent(),
		TaskID:      followUp.ID,
		LeadID:      followUp.LeadID,
		CompanyName: followUp.CompanyName,
		Description: followUp.Description,
		DueDate:     followUp.DueDate,
	})
}
