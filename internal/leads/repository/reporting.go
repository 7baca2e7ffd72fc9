package repository

import (
	"context"
	"time"

	"property_portal_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

const rangeFilter = `($1::timestamptz IS NULL OR l.created_at >= $1) AND ($2::timestamptz IS NULL OR l.created_at < $2)`

// LeadReport reads all groupings inside one REPEATABLE READ snapshot so the
// totals agree with each other and never include uncommitted work.
func (r *Repository) LeadReport(ctx context.Context, rng domain.ReportRange) (domain.Report, error) {
	report := domain.Report{ByStatus: make(map[domain.Status]int, len(domain.AllStatuses))}
	for _, s := range domain.AllStatuses {
		report.ByStatus[s] = 0
	}

	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := r.inTx(ctx, opts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT now()`).Scan(&report.GeneratedAt); err != nil {
			return err
		}
		if err := reportByStatus(ctx, tx, rng, &report); err != nil {
			return err
		}
		if err := reportByProject(ctx, tx, rng, &report); err != nil {
			return err
		}
		return reportByAgent(ctx, tx, rng, &report)
	})
	if err != nil {
		return domain.Report{}, err
	}

	report.Unassigned = report.ByStatus[domain.StatusNew]
	return report, nil
}

func reportByStatus(ctx context.Context, q Querier, rng domain.ReportRange, report *domain.Report) error {
	rows, err := q.Query(ctx, `
		SELECT l.status, COUNT(*) FROM leads l
		WHERE `+rangeFilter+`
		GROUP BY l.status
	`, rng.From, rng.To)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return err
		}
		report.ByStatus[domain.Status(status)] = count
		report.Total += count
	}
	return rows.Err()
}

func reportByProject(ctx context.Context, q Querier, rng domain.ReportRange, report *domain.Report) error {
	rows, err := q.Query(ctx, `
		SELECT l.project_id, COALESCE(p.name, ''), COUNT(*) FROM leads l
		LEFT JOIN projects p ON p.id = l.project_id
		WHERE `+rangeFilter+`
		GROUP BY l.project_id, p.name
		ORDER BY COUNT(*) DESC, p.name ASC NULLS LAST
	`, rng.From, rng.To)
	if err != nil {
		return err
	}
	defer rows.Close()

	report.ByProject = make([]domain.ProjectCount, 0)
	for rows.Next() {
		var pc domain.ProjectCount
		if err := rows.Scan(&pc.ProjectID, &pc.ProjectName, &pc.Count); err != nil {
			return err
		}
		report.ByProject = append(report.ByProject, pc)
	}
	return rows.Err()
}

func reportByAgent(ctx context.Context, q Querier, rng domain.ReportRange, report *domain.Report) error {
	rows, err := q.Query(ctx, `
		SELECT a.id, a.name, a.active, a.open_lead_count,
			COUNT(l.id), COUNT(l.id) FILTER (WHERE l.status = 'converted')
		FROM agents a
		LEFT JOIN leads l ON l.agent_id = a.id AND `+rangeFilter+`
		GROUP BY a.id, a.name, a.active, a.open_lead_count
		ORDER BY a.name ASC, a.id ASC
	`, rng.From, rng.To)
	if err != nil {
		return err
	}
	defer rows.Close()

	report.ByAgent = make([]domain.AgentLoad, 0)
	for rows.Next() {
		var al domain.AgentLoad
		if err := rows.Scan(&al.AgentID, &al.AgentName, &al.Active, &al.OpenLeadCount, &al.Leads, &al.Converted); err != nil {
			return err
		}
		report.ByAgent = append(report.ByAgent, al)
	}
	return rows.Err()
}

// ReconcileOpenLeadCounts locks every agent row (in id order, matching the
// lock order of multi-agent updates) and rewrites cached counts that differ
// from the number of open leads each agent owns.
func (r *Repository) ReconcileOpenLeadCounts(ctx context.Context) ([]domain.CountDrift, error) {
	drift := make([]domain.CountDrift, 0)
	err := r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT id FROM agents ORDER BY id FOR UPDATE`); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			WITH actual AS (
				SELECT a.id, a.open_lead_count AS cached, COUNT(l.id)::int AS recorded
				FROM agents a
				LEFT JOIN leads l ON l.agent_id = a.id AND l.status IN ('assigned', 'contacted')
				GROUP BY a.id, a.open_lead_count
			)
			UPDATE agents
			SET open_lead_count = actual.recorded, updated_at = $1
			FROM actual
			WHERE agents.id = actual.id AND actual.cached <> actual.recorded
			RETURNING agents.id, actual.cached, actual.recorded
		`, time.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var d domain.CountDrift
			if err := rows.Scan(&d.AgentID, &d.Cached, &d.Recorded); err != nil {
				return err
			}
			drift = append(drift, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return drift, nil
}
