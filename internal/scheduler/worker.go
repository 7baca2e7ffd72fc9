package scheduler

import (
	"context"
	"fmt"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/maintenance"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Dispatcher delivers a lead notification to whoever should receive it.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload LeadNotifyPayload) error
}

// DrainRunner assigns leads waiting in the unassigned pool.
type DrainRunner interface {
	Run(ctx context.Context, batch int) (maintenance.DrainRunResult, error)
}

// CountReconciler recomputes agents' open-lead counters.
type CountReconciler interface {
	Run(ctx context.Context) ([]domain.CountDrift, error)
}

type WorkerDeps struct {
	Dispatcher Dispatcher
	Drainer    DrainRunner
	Reconciler CountReconciler
	DrainBatch int
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	deps   WorkerDeps
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, deps WorkerDeps, log *logger.Logger) (*Worker, error) {
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
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		deps:   deps,
		log:    log,
	}
	w.routes()

	return w, nil
}

func (w *Worker) routes() {
	w.mux.HandleFunc(TaskLeadNotify, w.handleLeadNotify)
	w.mux.HandleFunc(TaskDrainUnassigned, w.handleDrainUnassigned)
	w.mux.HandleFunc(TaskReconcileCounts, w.handleReconcileCounts)
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleLeadNotify(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadNotifyPayload(task)
	if err != nil {
		return fmt.Errorf("decode %s: %v: %w", TaskLeadNotify, err, asynq.SkipRetry)
	}
	if w.deps.Dispatcher == nil {
		return nil
	}
	return w.deps.Dispatcher.Dispatch(ctx, payload)
}

func (w *Worker) handleDrainUnassigned(ctx context.Context, task *asynq.Task) error {
	if w.deps.Drainer == nil {
		return nil
	}

	payload, err := ParseDrainUnassignedPayload(task)
	if err != nil {
		return fmt.Errorf("decode %s: %v: %w", TaskDrainUnassigned, err, asynq.SkipRetry)
	}
	batch := payload.BatchSize
	if batch <= 0 {
		batch = w.deps.DrainBatch
	}

	res, err := w.deps.Drainer.Run(ctx, batch)
	if err != nil {
		return err
	}
	if res.Scanned > 0 {
		w.log.Info("unassigned drain finished",
			"scanned", res.Scanned,
			"assigned", res.Assigned,
			"skipped", res.Skipped,
			"noAgentAvailable", res.NoAgent,
		)
	}
	return nil
}

func (w *Worker) handleReconcileCounts(ctx context.Context, _ *asynq.Task) error {
	if w.deps.Reconciler == nil {
		return nil
	}
	drifts, err := w.deps.Reconciler.Run(ctx)
	if err != nil {
		return err
	}
	w.log.Info("open lead counts reconciled", "drifted", len(drifts))
	return nil
}
