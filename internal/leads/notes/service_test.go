package notes

import (
	"context"
	"strings"
	"testing"
	"time"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/guard"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/internal/leads/repository/repositorytest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func seed(t *testing.T, store *repositorytest.Store) domain.Lead {
	t.Helper()
	now := time.Now().UTC()
	lead := domain.Lead{
		ID: uuid.New(), Name: "Ali", Email: "a@b.com", Phone: "12345678", PhoneDigits: "12345678",
		Source: domain.SourceGeneral, Status: domain.StatusNew, Version: 1,
		CreatedAt: now, UpdatedAt: now, StatusChangedAt: now,
	}
	require.NoError(t, store.WithinTx(context.Background(), func(tx repository.LeadTx) error {
		return tx.InsertLead(context.Background(), lead)
	}))
	return lead
}

func TestUpdateSanitizesAndAudits(t *testing.T) {
	store := repositorytest.New()
	rec := &events.Recorder{}
	svc := New(guard.New(store), rec)
	lead := seed(t, store)

	updated, err := svc.Update(context.Background(), lead.ID, 1, "  <b>Called</b> back   tomorrow ", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Called back tomorrow", updated.Notes)
	assert.Equal(t, int64(2), updated.Version)

	audit := store.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, domain.AuditNotesUpdated, audit[0].Action)
	assert.Equal(t, domain.StatusNew, audit[0].ToStatus)
	assert.Equal(t, "admin-1", audit[0].Actor)
	assert.Equal(t, []string{events.LeadNotesUpdatedName}, rec.Names())
}

func TestUpdateUnchangedNotesWritesNoAudit(t *testing.T) {
	store := repositorytest.New()
	rec := &events.Recorder{}
	svc := New(guard.New(store), rec)
	lead := seed(t, store)

	updated, err := svc.Update(context.Background(), lead.ID, 1, "", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Empty(t, store.Audit())
	assert.Empty(t, rec.Events)
}

func TestUpdateRejectsOversizedNotes(t *testing.T) {
	store := repositorytest.New()
	svc := New(guard.New(store), &events.Recorder{})
	lead := seed(t, store)

	_, err := svc.Update(context.Background(), lead.ID, 1, strings.Repeat("x", MaxNotesRunes+1), "admin-1")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "notes", verr.Field)
}

func TestConcurrentNotesExactlyOneWins(t *testing.T) {
	store := repositorytest.New()
	svc := New(guard.New(store), &events.Recorder{})
	lead := seed(t, store)

	results := make([]error, 2)
	var g errgroup.Group
	for i, text := range []string{"first admin", "second admin"} {
		g.Go(func() error {
			_, results[i] = svc.Update(context.Background(), lead.ID, 1, text, "admin")
			return nil
		})
	}
	require.NoError(t, g.Wait())

	wins, stale := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domain.ErrStaleVersion):
			stale++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, stale)

	final, err := store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), final.Version)
	assert.Len(t, store.Audit(), 1)
}
