package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectColumns = []string{"id", "name", "slug", "active", "created_at"}

func TestGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`(?s)SELECT id, name, slug, active, created_at\s+FROM projects\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(projectColumns).AddRow(id, "Harbour Tower", "harbour-tower", true, created))

	p, err := New(mock).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Harbour Tower", p.Name)
	assert.True(t, p.Active)
	assert.Equal(t, created, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`FROM projects`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err = New(mock).GetByID(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListActive(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)FROM projects\s+WHERE active\s+ORDER BY name`).
		WillReturnRows(pgxmock.NewRows(projectColumns).
			AddRow(uuid.New(), "Canal Lofts", "canal-lofts", true, now).
			AddRow(uuid.New(), "Harbour Tower", "harbour-tower", true, now))

	projects, err := New(mock).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Canal Lofts", projects[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
