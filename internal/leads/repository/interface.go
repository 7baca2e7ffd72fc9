package repository

import (
	"context"
	"time"

	"property_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LeadTx is the set of writes that must commit together. Implementations
// are only valid inside Transactor.WithinTx.
type LeadTx interface {
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, error)
	InsertLead(ctx context.Context, lead domain.Lead) error
	// UpdateLeadVersioned stores lead's mutable fields only if the stored
	// version still equals expected. It returns ErrStaleVersion otherwise.
	UpdateLeadVersioned(ctx context.Context, lead domain.Lead, expected int64) error
	AppendAudit(ctx context.Context, entries ...domain.AuditEntry) error
	// LeastLoadedAgent returns the active agent with the fewest open leads,
	// oldest last assignment first. ErrNoActiveAgent when none is active.
	LeastLoadedAgent(ctx context.Context) (domain.Agent, error)
	// LockAssignment takes the transaction-scoped assignment lock. Pick and
	// claim happen under it, so concurrent assignments never read the same
	// counts.
	LockAssignment(ctx context.Context) error
	// ClaimAgent increments the agent's open count if it is still active.
	// False means the agent was deactivated after it was picked.
	ClaimAgent(ctx context.Context, agentID uuid.UUID, at time.Time) (bool, error)
	// AdjustOpenLeadCount adds delta (clamped at zero). With requireActive the
	// agent must be active; ErrAgentUnavailable when no row matched.
	AdjustOpenLeadCount(ctx context.Context, agentID uuid.UUID, delta int, requireActive bool, at time.Time) error
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx LeadTx) error) error
}

// ListParams filters and pages ListLeads.
type ListParams struct {
	Status      *domain.Status
	ProjectID   *uuid.UUID
	AgentID     *uuid.UUID
	Unassigned  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Offset      int
	Limit       int
}

// ListResult is one page of leads plus the total matching count.
type ListResult struct {
	Items []domain.Lead
	Total int
}

// LeadReader serves admin reads.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	ListLeads(ctx context.Context, params ListParams) (ListResult, error)
	ListAudit(ctx context.Context, leadID uuid.UUID) ([]domain.AuditEntry, error)
}

// UnassignedReader feeds the pool drain.
type UnassignedReader interface {
	ListUnassigned(ctx context.Context, limit int) ([]domain.Lead, error)
}

// AgentStore is the Agent Directory's persistence.
type AgentStore interface {
	ListAgents(ctx context.Context, activeOnly bool) ([]domain.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, error)
	SetAgentActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) (domain.Agent, error)
	UpsertAgent(ctx context.Context, agent domain.Agent) (domain.Agent, error)
}

// ReportReader builds snapshot-consistent reports.
type ReportReader interface {
	LeadReport(ctx context.Context, rng domain.ReportRange) (domain.Report, error)
}

// CountReconciler heals drift in cached open-lead counts.
type CountReconciler interface {
	ReconcileOpenLeadCounts(ctx context.Context) ([]domain.CountDrift, error)
}

var (
	_ Transactor       = (*Repository)(nil)
	_ LeadReader       = (*Repository)(nil)
	_ UnassignedReader = (*Repository)(nil)
	_ AgentStore       = (*Repository)(nil)
	_ ReportReader     = (*Repository)(nil)
	_ CountReconciler  = (*Repository)(nil)
	_ LeadTx           = queries{}
)
