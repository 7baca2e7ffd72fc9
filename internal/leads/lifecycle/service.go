// Package lifecycle moves leads through their status lifecycle and between
// agents. Every change goes through the concurrency guard, so callers must
// name the version they last read.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/guard"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// AgentLookup is the slice of the Agent Directory reassignment needs.
type AgentLookup interface {
	GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, error)
}

// Service implements status changes and reassignment.
type Service struct {
	guard  *guard.Guard
	agents AgentLookup
	bus    events.Publisher
	log    *logger.Logger
}

// New creates a lifecycle service.
func New(g *guard.Guard, agents AgentLookup, bus events.Publisher, log *logger.Logger) *Service {
	return &Service{guard: g, agents: agents, bus: bus, log: log}
}

// UpdateStatus applies one status transition. Setting the current status
// again bumps the version but records nothing in the audit trail. Moving an
// open lead into a terminal status releases its agent's open-lead slot.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, to domain.Status, actor string) (domain.Lead, error) {
	if _, ok := domain.ParseStatus(string(to)); !ok {
		return domain.Lead{}, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}

	var from domain.Status
	lead, err := s.guard.UpdateLead(ctx, id, expectedVersion, func(current domain.Lead, now time.Time) (guard.Change, error) {
		from = current.Status
		if err := domain.CheckTransition(current.Status, to); err != nil {
			return guard.Change{}, err
		}
		if current.Status == to {
			return guard.Change{Lead: current}, nil
		}
		// new -> assigned needs an owner; that path is ReassignLead.
		if current.AgentID == nil {
			return guard.Change{}, &domain.ValidationError{Field: "agentId", Reason: "assign the lead to an agent first"}
		}

		next := current
		next.Status = to
		next.StatusChangedAt = now

		change := guard.Change{
			Lead:  next,
			Audit: []domain.AuditEntry{domain.NewAudit(id, domain.AuditStatusChanged, domain.StatusPtr(current.Status), to, actor, now)},
		}
		if to.IsTerminal() && current.Status.IsOpen() {
			change.Deltas = []guard.CountDelta{{AgentID: *current.AgentID, Delta: -1}}
		}
		return change, nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if from != to {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     lead.ID,
			AgentID:    lead.AgentID,
			FromStatus: string(from),
			ToStatus:   string(to),
			Actor:      auditActor(actor),
		})
	}
	return lead, nil
}

// Reassign hands the lead to agentID without changing its status. A new lead
// from the unassigned pool becomes assigned; a closed lead cannot change
// owner. Both agents' open-lead counts move in the same transaction.
func (s *Service) Reassign(ctx context.Context, id uuid.UUID, expectedVersion int64, agentID uuid.UUID, actor string) (domain.Lead, error) {
	agent, err := s.agents.GetAgent(ctx, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, &domain.NotFoundError{Resource: "agent", ID: agentID}
	}
	if err != nil {
		return domain.Lead{}, domain.Storage("get agent", err)
	}
	if !agent.Active {
		return domain.Lead{}, &domain.AgentUnavailableError{AgentID: agentID}
	}

	var previous *uuid.UUID
	changed := false
	lead, err := s.guard.UpdateLead(ctx, id, expectedVersion, func(current domain.Lead, now time.Time) (guard.Change, error) {
		previous = current.AgentID
		if current.Status.IsTerminal() {
			return guard.Change{}, &domain.InvalidTransitionError{From: current.Status, To: domain.StatusAssigned}
		}
		if current.AgentID != nil && *current.AgentID == agentID {
			return guard.Change{Lead: current}, nil
		}
		changed = true

		next := current
		next.AgentID = &agentID
		deltas := []guard.CountDelta{{AgentID: agentID, Delta: 1, RequireActive: true}}

		var entry domain.AuditEntry
		if current.Status == domain.StatusNew {
			next.Status = domain.StatusAssigned
			next.StatusChangedAt = now
			entry = domain.NewAudit(id, domain.AuditAssigned, domain.StatusPtr(domain.StatusNew), domain.StatusAssigned, actor, now)
		} else {
			entry = domain.NewAudit(id, domain.AuditReassigned, domain.StatusPtr(current.Status), current.Status, actor, now)
			entry.FromAgentID = current.AgentID
			deltas = append(deltas, guard.CountDelta{AgentID: *current.AgentID, Delta: -1})
		}
		entry.ToAgentID = &agentID

		return guard.Change{Lead: next, Audit: []domain.AuditEntry{entry}, Deltas: deltas}, nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if changed {
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:       events.NewBaseEvent(),
			LeadID:          lead.ID,
			AgentID:         agentID,
			PreviousAgentID: previous,
			Actor:           auditActor(actor),
		})
		s.log.Info("lead reassigned", "leadId", lead.ID, "agentId", agentID, "version", lead.Version)
	}
	return lead, nil
}

func auditActor(actor string) string {
	if actor == "" {
		return domain.ActorSystem
	}
	return actor
}
