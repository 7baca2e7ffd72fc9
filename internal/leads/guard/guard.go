// Package guard provides per-lead optimistic concurrency control. Every
// mutation names the version it was based on and commits only if that
// version is still current.
package guard

import (
	"context"
	"errors"
	"sort"
	"time"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// CountDelta moves an agent's open-lead count as part of a mutation.
type CountDelta struct {
	AgentID uuid.UUID
	Delta   int
	// RequireActive fails the mutation if the agent is inactive.
	RequireActive bool
}

// Change is what a Mutation wants committed.
type Change struct {
	Lead   domain.Lead
	Audit  []domain.AuditEntry
	Deltas []CountDelta
}

// Mutation derives a change from the current lead. It runs inside the
// transaction and must not have side effects of its own.
type Mutation func(current domain.Lead, now time.Time) (Change, error)

// Guard applies mutations under a version check.
type Guard struct {
	tx  repository.Transactor
	now func() time.Time
}

// New creates a Guard.
func New(tx repository.Transactor) *Guard {
	return &Guard{tx: tx, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// UpdateLead loads the lead, rejects the call with *domain.StaleVersionError
// when expectedVersion is not current, applies mutate, and writes the new
// lead state, count deltas and audit entries in one transaction. The
// returned lead carries version expectedVersion+1.
func (g *Guard) UpdateLead(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate Mutation) (domain.Lead, error) {
	var out domain.Lead
	err := g.tx.WithinTx(ctx, func(tx repository.LeadTx) error {
		current, err := tx.GetLead(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.NotFoundError{Resource: "lead", ID: id}
		}
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return &domain.StaleVersionError{LeadID: id, Expected: expectedVersion, Actual: current.Version}
		}

		now := g.now()
		change, err := mutate(current, now)
		if err != nil {
			return err
		}

		next := current
		next.AgentID = change.Lead.AgentID
		next.Status = change.Lead.Status
		next.Notes = change.Lead.Notes
		next.StatusChangedAt = change.Lead.StatusChangedAt
		next.Version = current.Version + 1
		next.UpdatedAt = now

		if err := tx.UpdateLeadVersioned(ctx, next, expectedVersion); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return staleFromStore(ctx, tx, id, expectedVersion)
			}
			return err
		}

		if err := applyDeltas(ctx, tx, change.Deltas, now); err != nil {
			return err
		}

		for i := range change.Audit {
			change.Audit[i].LeadID = id
		}
		if err := tx.AppendAudit(ctx, change.Audit...); err != nil {
			return err
		}

		out = next
		return nil
	})
	if err != nil {
		return domain.Lead{}, domain.Storage("update lead", err)
	}
	return out, nil
}

// applyDeltas locks agent rows in id order so two mutations touching the
// same pair of agents cannot deadlock.
func applyDeltas(ctx context.Context, tx repository.LeadTx, deltas []CountDelta, now time.Time) error {
	sorted := append([]CountDelta(nil), deltas...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AgentID.String() < sorted[j].AgentID.String() })

	for _, d := range sorted {
		if d.Delta == 0 {
			continue
		}
		err := tx.AdjustOpenLeadCount(ctx, d.AgentID, d.Delta, d.RequireActive, now)
		if errors.Is(err, repository.ErrAgentUnavailable) {
			return &domain.AgentUnavailableError{AgentID: d.AgentID}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func staleFromStore(ctx context.Context, tx repository.LeadTx, id uuid.UUID, expected int64) error {
	stale := &domain.StaleVersionError{LeadID: id, Expected: expected, Actual: expected}
	if latest, err := tx.GetLead(ctx, id); err == nil {
		stale.Actual = latest.Version
	}
	return stale
}
