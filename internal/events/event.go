// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/google/uuid"

	"property_portal_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

const (
	LeadCreatedName          = "leads.lead.created"
	LeadAssignedName         = "leads.lead.assigned"
	LeadQueuedUnassignedName = "leads.lead.queued_unassigned"
	LeadStatusChangedName    = "leads.lead.status_changed"
	LeadNotesUpdatedName     = "leads.lead.notes_updated"
)

// LeadCreated is published once per persisted submission.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	Source    string     `json:"source"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
	Email     string     `json:"email"`
}

func (e LeadCreated) EventName() string { return LeadCreatedName }

// LeadAssigned is published when a lead gains or changes owner.
type LeadAssigned struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	AgentID         uuid.UUID  `json:"agentId"`
	PreviousAgentID *uuid.UUID `json:"previousAgentId,omitempty"`
	Actor           string     `json:"actor"`
}

func (e LeadAssigned) EventName() string { return LeadAssignedName }

// LeadQueuedUnassigned is published when a lead is stored without an owner.
// Operations should be alerted; the lead waits in the unassigned pool.
type LeadQueuedUnassigned struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

func (e LeadQueuedUnassigned) EventName() string { return LeadQueuedUnassignedName }

// LeadStatusChanged is published after a committed status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	AgentID    *uuid.UUID `json:"agentId,omitempty"`
	FromStatus string     `json:"fromStatus"`
	ToStatus   string     `json:"toStatus"`
	Actor      string     `json:"actor"`
}

func (e LeadStatusChanged) EventName() string { return LeadStatusChangedName }

// LeadNotesUpdated is published after notes are saved.
type LeadNotesUpdated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Actor  string    `json:"actor"`
}

func (e LeadNotesUpdated) EventName() string { return LeadNotesUpdatedName }
