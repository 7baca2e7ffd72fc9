package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"property_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `id, name, email, phone, phone_digits, phone_e164, message, source,
	project_id, agent_id, status, notes, version, created_at, updated_at, status_changed_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead   domain.Lead
		source string
		status string
	)
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.PhoneDigits, &lead.PhoneE164,
		&lead.Message, &source, &lead.ProjectID, &lead.AgentID, &status, &lead.Notes,
		&lead.Version, &lead.CreatedAt, &lead.UpdatedAt, &lead.StatusChangedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Source = domain.Source(source)
	lead.Status = domain.Status(status)
	return lead, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (q queries) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(q.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (q queries) InsertLead(ctx context.Context, lead domain.Lead) error {
	_, err := q.q.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.PhoneDigits, lead.PhoneE164,
		lead.Message, string(lead.Source), lead.ProjectID, lead.AgentID, string(lead.Status), lead.Notes,
		lead.Version, lead.CreatedAt, lead.UpdatedAt, lead.StatusChangedAt,
	)
	return err
}

func (q queries) UpdateLeadVersioned(ctx context.Context, lead domain.Lead, expected int64) error {
	tag, err := q.q.Exec(ctx, `
		UPDATE leads
		SET agent_id = $3, status = $4, notes = $5, version = $6, updated_at = $7, status_changed_at = $8
		WHERE id = $1 AND version = $2
	`, lead.ID, expected, lead.AgentID, string(lead.Status), lead.Notes, lead.Version, lead.UpdatedAt, lead.StatusChangedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleVersion
	}
	return nil
}

// ListLeads builds its WHERE clause from the set filters, newest first.
func (r *Repository) ListLeads(ctx context.Context, params ListParams) (ListResult, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	filters := []struct {
		enabled bool
		clause  string
		value   interface{}
	}{
		{params.Status != nil, "status = $%d", statusArg(params.Status)},
		{params.ProjectID != nil, "project_id = $%d", params.ProjectID},
		{params.AgentID != nil, "agent_id = $%d", params.AgentID},
		{params.CreatedFrom != nil, "created_at >= $%d", params.CreatedFrom},
		{params.CreatedTo != nil, "created_at < $%d", params.CreatedTo},
	}
	for _, f := range filters {
		if !f.enabled {
			continue
		}
		whereClauses = append(whereClauses, fmt.Sprintf(f.clause, argIdx))
		args = append(args, f.value)
		argIdx++
	}
	if params.Unassigned {
		whereClauses = append(whereClauses, "agent_id IS NULL")
	}

	where := ""
	if len(whereClauses) > 0 {
		where = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads `+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	pageArgs := append(append([]interface{}{}, args...), limit, params.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM leads %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, leadColumns, where, argIdx, argIdx+1), pageArgs...)
	if err != nil {
		return ListResult{}, err
	}
	items, err := collectLeads(rows)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}

// ListUnassigned returns the oldest leads still waiting for an agent.
func (r *Repository) ListUnassigned(ctx context.Context, limit int) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE status = 'new' AND agent_id IS NULL
		ORDER BY created_at ASC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func statusArg(s *domain.Status) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}
