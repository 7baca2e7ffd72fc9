package repository

import (
	"context"
	"errors"
	"time"

	"property_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, name, email, active, open_lead_count, last_assigned_at, created_at, updated_at`

func scanAgent(row pgx.Row) (domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Active, &a.OpenLeadCount, &a.LastAssignedAt, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (q queries) GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	agent, err := scanAgent(q.q.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Agent{}, ErrNotFound
	}
	return agent, err
}

func (q queries) LeastLoadedAgent(ctx context.Context) (domain.Agent, error) {
	agent, err := scanAgent(q.q.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM agents
		WHERE active
		ORDER BY open_lead_count ASC, last_assigned_at ASC NULLS FIRST, created_at ASC, id ASC
		LIMIT 1
	`))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Agent{}, ErrNoActiveAgent
	}
	return agent, err
}

// assignmentLockKey namespaces the advisory lock held by assignments.
const assignmentLockKey int64 = 0x6c656164 // "lead"

func (q queries) LockAssignment(ctx context.Context) error {
	_, err := q.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, assignmentLockKey)
	return err
}

func (q queries) ClaimAgent(ctx context.Context, agentID uuid.UUID, at time.Time) (bool, error) {
	tag, err := q.q.Exec(ctx, `
		UPDATE agents
		SET open_lead_count = open_lead_count + 1, last_assigned_at = $2, updated_at = $2
		WHERE id = $1 AND active
	`, agentID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q queries) AdjustOpenLeadCount(ctx context.Context, agentID uuid.UUID, delta int, requireActive bool, at time.Time) error {
	sql := `
		UPDATE agents
		SET open_lead_count = GREATEST(open_lead_count + $2, 0), updated_at = $3,
			last_assigned_at = CASE WHEN $2 > 0 THEN $3 ELSE last_assigned_at END
		WHERE id = $1`
	if requireActive {
		sql += ` AND active`
	}
	tag, err := q.q.Exec(ctx, sql, agentID, delta, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentUnavailable
	}
	return nil
}

// ListAgents returns agents ordered by name.
func (r *Repository) ListAgents(ctx context.Context, activeOnly bool) ([]domain.Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+` FROM agents
		WHERE active OR NOT $1
		ORDER BY name ASC, id ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, agent)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) SetAgentActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) (domain.Agent, error) {
	agent, err := scanAgent(r.pool.QueryRow(ctx, `
		UPDATE agents SET active = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+agentColumns, id, active, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Agent{}, ErrNotFound
	}
	return agent, err
}

// UpsertAgent inserts or updates an agent keyed by email. Counts and
// assignment history are never touched by an upsert.
func (r *Repository) UpsertAgent(ctx context.Context, agent domain.Agent) (domain.Agent, error) {
	return scanAgent(r.pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, email, active, open_lead_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
		RETURNING `+agentColumns,
		agent.ID, agent.Name, agent.Email, agent.Active, agent.UpdatedAt))
}
