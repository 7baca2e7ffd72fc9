package scheduler

import (
	"context"
	"fmt"
	"time"

	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// PeriodicConfig is what the periodic scheduler reads.
type PeriodicConfig interface {
	config.SchedulerConfig
	config.MaintenanceConfig
}

// Periodic enqueues the maintenance tasks on fixed intervals.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// PeriodicEntry is one registered maintenance task.
type PeriodicEntry struct {
	Spec string
	Task *asynq.Task
}

// PeriodicEntries returns the cron specs for the configured intervals. A
// non-positive interval disables that task.
func PeriodicEntries(cfg config.MaintenanceConfig) ([]PeriodicEntry, error) {
	var entries []PeriodicEntry

	if every := cfg.GetDrainInterval(); every > 0 {
		task, err := NewDrainUnassignedTask(DrainUnassignedPayload{BatchSize: cfg.GetDrainBatchSize()})
		if err != nil {
			return nil, err
		}
		entries = append(entries, PeriodicEntry{Spec: everySpec(every), Task: task})
	}
	if every := cfg.GetReconcileInterval(); every > 0 {
		entries = append(entries, PeriodicEntry{Spec: everySpec(every), Task: NewReconcileCountsTask()})
	}
	return entries, nil
}

func NewPeriodic(cfg PeriodicConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	entries, err := PeriodicEntries(cfg)
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
	queue := queueName(cfg)
	for _, e := range entries {
		// A drain or reconcile still queued from the previous tick is enough.
		id, err := s.Register(e.Spec, e.Task, asynq.Queue(queue), asynq.Unique(time.Minute))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", e.Task.Type(), err)
		}
		log.Info("periodic task registered", "task", e.Task.Type(), "spec", e.Spec, "entryId", id)
	}

	return &Periodic{scheduler: s, log: log}, nil
}

// Run blocks until ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}
