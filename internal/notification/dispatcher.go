package notification

import (
	"context"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/scheduler"
	"property_portal_backend/platform/logger"
)

// LogDispatcher records notifications in the structured log. Delivery
// channels plug in behind scheduler.Dispatcher.
type LogDispatcher struct {
	log *logger.Logger
}

func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, p scheduler.LeadNotifyPayload) error {
	args := []any{"event", p.Event, "leadId", p.LeadID}
	if p.AgentID != "" {
		args = append(args, "agentId", p.AgentID)
	}
	if p.ToStatus != "" {
		args = append(args, "fromStatus", p.FromStatus, "toStatus", p.ToStatus)
	}
	if p.Actor != "" {
		args = append(args, "actor", p.Actor)
	}

	log := d.log.WithContext(ctx)
	if p.Event == events.LeadQueuedUnassignedName {
		// Operations has to staff up or hand the lead out by hand.
		log.Warn("lead waiting without an agent", append(args, "reason", p.Reason)...)
		return nil
	}
	log.Info("lead notification", args...)
	return nil
}

// Inline hands notifications straight to a dispatcher, for deployments
// without a task queue.
type Inline struct {
	dispatcher scheduler.Dispatcher
}

func NewInline(d scheduler.Dispatcher) *Inline {
	return &Inline{dispatcher: d}
}

func (i *Inline) EnqueueLeadNotification(ctx context.Context, p scheduler.LeadNotifyPayload) error {
	return i.dispatcher.Dispatch(ctx, p)
}

var (
	_ scheduler.Dispatcher           = (*LogDispatcher)(nil)
	_ scheduler.NotificationEnqueuer = (*Inline)(nil)
)
