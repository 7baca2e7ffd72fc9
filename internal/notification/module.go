// Package notification turns lead events into queued notification tasks.
// Lead services publish and move on; a failed enqueue is logged here and
// never reaches the mutation that triggered it.
package notification

import (
	"context"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/scheduler"
	"property_portal_backend/platform/logger"
)

// Module subscribes to lead events on the bus.
type Module struct {
	enqueuer scheduler.NotificationEnqueuer
	log      *logger.Logger
}

// New creates the notification module. Without an enqueuer events are only logged.
func New(enqueuer scheduler.NotificationEnqueuer, log *logger.Logger) *Module {
	return &Module{enqueuer: enqueuer, log: log}
}

// RegisterHandlers subscribes to every lead event worth notifying about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	for _, name := range []string{
		events.LeadCreatedName,
		events.LeadAssignedName,
		events.LeadQueuedUnassignedName,
		events.LeadStatusChangedName,
		events.LeadNotesUpdatedName,
	} {
		bus.Subscribe(name, events.HandlerFunc(m.handle))
	}
	m.log.Info("notification handlers registered")
}

func (m *Module) handle(ctx context.Context, event events.Event) error {
	payload, ok := payloadFor(event)
	if !ok {
		return nil
	}
	if m.enqueuer == nil {
		m.log.Debug("notification skipped, no queue configured", "event", payload.Event, "leadId", payload.LeadID)
		return nil
	}

	if err := m.enqueuer.EnqueueLeadNotification(ctx, payload); err != nil {
		m.log.Error("failed to enqueue lead notification",
			"event", payload.Event,
			"leadId", payload.LeadID,
			"error", err,
		)
	}
	return nil
}

func payloadFor(event events.Event) (scheduler.LeadNotifyPayload, bool) {
	p := scheduler.LeadNotifyPayload{Event: event.EventName(), OccurredAt: event.OccurredAt()}

	switch e := event.(type) {
	case events.LeadCreated:
		p.LeadID = e.LeadID.String()
	case events.LeadAssigned:
		p.LeadID = e.LeadID.String()
		p.AgentID = e.AgentID.String()
		p.Actor = e.Actor
	case events.LeadQueuedUnassigned:
		p.LeadID = e.LeadID.String()
		p.Reason = e.Reason
	case events.LeadStatusChanged:
		p.LeadID = e.LeadID.String()
		if e.AgentID != nil {
			p.AgentID = e.AgentID.String()
		}
		p.FromStatus = e.FromStatus
		p.ToStatus = e.ToStatus
		p.Actor = e.Actor
	case events.LeadNotesUpdated:
		p.LeadID = e.LeadID.String()
		p.Actor = e.Actor
	default:
		return scheduler.LeadNotifyPayload{}, false
	}
	return p, true
}
