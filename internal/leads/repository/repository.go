package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrStaleVersion     = errors.New("lead version changed")
	ErrNoActiveAgent    = errors.New("no active agent")
	ErrAgentUnavailable = errors.New("agent missing or inactive")
)

// Querier is the statement surface shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is satisfied by *pgxpool.Pool and by pgxmock pools.
type Pool interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Repository is the pgx-backed lead store.
type Repository struct {
	queries
	pool Pool
}

func New(pool Pool) *Repository {
	return &Repository{queries: queries{q: pool}, pool: pool}
}

// queries holds statements that run the same way on the pool or inside a tx.
type queries struct {
	q Querier
}

// WithinTx runs fn in a read-committed transaction. fn's error rolls back.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx LeadTx) error) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(queries{q: tx})
	})
}

func (r *Repository) inTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
