// Package repository reads property projects from PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when no project has the requested id.
var ErrNotFound = errors.New("project not found")

// Project is a property development leads can be about.
type Project struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Active    bool
	CreatedAt time.Time
}

// Querier is satisfied by *pgxpool.Pool and pgxmock pools.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo implements project reads with PostgreSQL.
type Repo struct {
	pool Querier
}

// New creates a new projects repository.
func New(pool Querier) *Repo {
	return &Repo{pool: pool}
}

// GetByID retrieves a project by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Project, error) {
	query := `
		SELECT id, name, slug, active, created_at
		FROM projects
		WHERE id = $1`

	var p Project
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Slug, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("get project by id: %w", err)
	}
	return p, nil
}

// ListActive returns the projects currently accepting inquiries, by name.
func (r *Repo) ListActive(ctx context.Context) ([]Project, error) {
	query := `
		SELECT id, name, slug, active, created_at
		FROM projects
		WHERE active
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]Project, 0)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}
