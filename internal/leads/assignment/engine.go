// Package assignment binds new leads to the least-loaded active agent.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/intake"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultMaxAttempts = 5

// errClaimLost rolls back an attempt whose picked agent was deactivated
// before the claim.
var errClaimLost = errors.New("agent claim lost")

// Config is the subset of configuration the engine reads.
type Config interface {
	GetAssignmentMaxAttempts() int
}

// Engine implements the least-loaded policy. Every assignment transaction
// takes the assignment lock before reading counts, so the pick always sees
// the previous assignment's commit and the claim on the picked agent is an
// unconditional increment. A claim is only lost when the agent is
// deactivated in between; that attempt is rolled back and retried.
type Engine struct {
	tx          repository.Transactor
	log         *logger.Logger
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// New creates an Engine.
func New(tx repository.Transactor, cfg Config, log *logger.Logger) *Engine {
	attempts := defaultMaxAttempts
	if cfg != nil && cfg.GetAssignmentMaxAttempts() > 0 {
		attempts = cfg.GetAssignmentMaxAttempts()
	}
	return &Engine{
		tx:          tx,
		log:         log,
		maxAttempts: attempts,
		backoff:     5 * time.Millisecond,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithBackoff sets the base delay between attempts.
func (e *Engine) WithBackoff(d time.Duration) *Engine {
	e.backoff = d
	return e
}

// Assign persists a new lead and binds it to an agent in one transaction.
//
// With no active agent the lead is stored with status new and the returned
// error is domain.ErrNoAgentAvailable alongside the stored lead. If every
// attempt loses its claim nothing is stored and a storage error is returned.
func (e *Engine) Assign(ctx context.Context, c intake.Candidate) (domain.Lead, error) {
	leadID := uuid.New()

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		var (
			lead    domain.Lead
			noAgent bool
		)
		err := e.tx.WithinTx(ctx, func(tx repository.LeadTx) error {
			if err := tx.LockAssignment(ctx); err != nil {
				return err
			}
			now := e.now()
			agent, err := tx.LeastLoadedAgent(ctx)
			if errors.Is(err, repository.ErrNoActiveAgent) {
				noAgent = true
				lead = newLead(leadID, c, now)
				return insertWithAudit(ctx, tx, lead, domain.NewAudit(leadID, domain.AuditCreated, nil, domain.StatusNew, domain.ActorSystem, now))
			}
			if err != nil {
				return err
			}

			claimed, err := tx.ClaimAgent(ctx, agent.ID, now)
			if err != nil {
				return err
			}
			if !claimed {
				return errClaimLost
			}

			lead = newLead(leadID, c, now)
			lead.Status = domain.StatusAssigned
			lead.AgentID = &agent.ID
			entry := domain.NewAudit(leadID, domain.AuditAssigned, nil, domain.StatusAssigned, domain.ActorSystem, now)
			entry.ToAgentID = &agent.ID
			return insertWithAudit(ctx, tx, lead, entry)
		})

		switch {
		case err == nil && noAgent:
			e.log.AssignmentOutcome(leadID.String(), "", attempt)
			return lead, domain.ErrNoAgentAvailable
		case err == nil:
			e.log.AssignmentOutcome(leadID.String(), lead.AgentID.String(), attempt)
			return lead, nil
		case errors.Is(err, errClaimLost):
			if err := e.wait(ctx, attempt); err != nil {
				return domain.Lead{}, domain.Storage("assign lead", err)
			}
		default:
			return domain.Lead{}, domain.Storage("assign lead", err)
		}
	}

	return domain.Lead{}, domain.Storage("assign lead", fmt.Errorf("%w after %d attempts", errClaimLost, e.maxAttempts))
}

// AssignExisting binds an unassigned lead from the pool to the least-loaded
// agent. It returns assigned=false without error when the lead already has
// an owner, and domain.ErrNoAgentAvailable when nobody is active.
//
// The lead row is written before the agent row, matching the order lead
// updates take their locks in.
func (e *Engine) AssignExisting(ctx context.Context, leadID uuid.UUID) (lead domain.Lead, assigned bool, err error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		assigned = false
		err = e.tx.WithinTx(ctx, func(tx repository.LeadTx) error {
			if err := tx.LockAssignment(ctx); err != nil {
				return err
			}
			current, err := tx.GetLead(ctx, leadID)
			if errors.Is(err, repository.ErrNotFound) {
				return &domain.NotFoundError{Resource: "lead", ID: leadID}
			}
			if err != nil {
				return err
			}
			lead = current
			if current.Status != domain.StatusNew || current.AgentID != nil {
				return nil
			}

			now := e.now()
			agent, err := tx.LeastLoadedAgent(ctx)
			if errors.Is(err, repository.ErrNoActiveAgent) {
				return domain.ErrNoAgentAvailable
			}
			if err != nil {
				return err
			}

			next := current
			next.Status = domain.StatusAssigned
			next.AgentID = &agent.ID
			next.Version = current.Version + 1
			next.UpdatedAt = now
			next.StatusChangedAt = now
			if err := tx.UpdateLeadVersioned(ctx, next, current.Version); err != nil {
				if errors.Is(err, repository.ErrStaleVersion) {
					return errClaimLost
				}
				return err
			}
			claimed, err := tx.ClaimAgent(ctx, agent.ID, now)
			if err != nil {
				return err
			}
			if !claimed {
				return errClaimLost
			}

			entry := domain.NewAudit(leadID, domain.AuditAssigned, domain.StatusPtr(domain.StatusNew), domain.StatusAssigned, domain.ActorSystem, now)
			entry.ToAgentID = &agent.ID
			if err := tx.AppendAudit(ctx, entry); err != nil {
				return err
			}
			lead = next
			assigned = true
			return nil
		})

		switch {
		case err == nil:
			if assigned {
				e.log.AssignmentOutcome(leadID.String(), lead.AgentID.String(), attempt)
			}
			return lead, assigned, nil
		case errors.Is(err, errClaimLost):
			if werr := e.wait(ctx, attempt); werr != nil {
				return domain.Lead{}, false, domain.Storage("assign pending lead", werr)
			}
		default:
			return domain.Lead{}, false, domain.Storage("assign pending lead", err)
		}
	}
	return domain.Lead{}, false, domain.Storage("assign pending lead", fmt.Errorf("%w after %d attempts", errClaimLost, e.maxAttempts))
}

// wait sleeps base*attempt plus up to base of jitter, or until ctx ends.
func (e *Engine) wait(ctx context.Context, attempt int) error {
	if e.backoff <= 0 {
		return ctx.Err()
	}
	d := e.backoff*time.Duration(attempt) + rand.N(e.backoff)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newLead(id uuid.UUID, c intake.Candidate, now time.Time) domain.Lead {
	return domain.Lead{
		ID:              id,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		PhoneDigits:     c.PhoneDigits,
		PhoneE164:       c.PhoneE164,
		Message:         c.Message,
		Source:          c.Source,
		ProjectID:       c.ProjectID,
		Status:          domain.StatusNew,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusChangedAt: now,
	}
}

func insertWithAudit(ctx context.Context, tx repository.LeadTx, lead domain.Lead, entry domain.AuditEntry) error {
	if err := tx.InsertLead(ctx, lead); err != nil {
		return err
	}
	return tx.AppendAudit(ctx, entry)
}
