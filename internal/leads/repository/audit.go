package repository

import (
	"context"

	"property_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// AppendAudit inserts entries. The audit table is append-only: nothing in
// this package updates or deletes from it.
func (q queries) AppendAudit(ctx context.Context, entries ...domain.AuditEntry) error {
	for _, e := range entries {
		_, err := q.q.Exec(ctx, `
			INSERT INTO lead_audit (id, lead_id, action, from_status, to_status, from_agent_id, to_agent_id, actor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, e.ID, e.LeadID, string(e.Action), statusArg(e.FromStatus), string(e.ToStatus), e.FromAgentID, e.ToAgentID, e.Actor, e.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListAudit returns a lead's history oldest first.
func (r *Repository) ListAudit(ctx context.Context, leadID uuid.UUID) ([]domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, action, from_status, to_status, from_agent_id, to_agent_id, actor, created_at
		FROM lead_audit
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			e          domain.AuditEntry
			action     string
			fromStatus *string
			toStatus   string
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &action, &fromStatus, &toStatus, &e.FromAgentID, &e.ToAgentID, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = domain.AuditAction(action)
		e.ToStatus = domain.Status(toStatus)
		if fromStatus != nil {
			e.FromStatus = domain.StatusPtr(domain.Status(*fromStatus))
		}
		items = append(items, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
