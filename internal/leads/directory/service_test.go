package directory

import (
	"bytes"
	"context"
	"testing"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository/repositorytest"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFiltersActive(t *testing.T) {
	store := repositorytest.New()
	store.AddAgent("Bea", true)
	store.AddAgent("Off", false)
	svc := New(store, logger.Discard())

	all, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Bea", active[0].Name)
}

func TestSetActiveKeepsOpenLeads(t *testing.T) {
	store := repositorytest.New()
	bea := store.AddAgent("Bea", true)
	store.SetOpenLeadCount(bea.ID, 3)

	var buf bytes.Buffer
	svc := New(store, logger.NewWithWriter("production", &buf))

	agent, err := svc.SetActive(context.Background(), bea.ID, false, "admin-1")
	require.NoError(t, err)
	assert.False(t, agent.Active)
	assert.Equal(t, 3, agent.OpenLeadCount)
	assert.Contains(t, buf.String(), `"openLeads":3`)
}

func TestSetActiveUnknownAgent(t *testing.T) {
	svc := New(repositorytest.New(), logger.Discard())
	_, err := svc.SetActive(context.Background(), uuid.New(), true, "admin-1")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUpsertNormalizesAndMatchesByEmail(t *testing.T) {
	store := repositorytest.New()
	svc := New(store, logger.Discard())
	ctx := context.Background()

	first, err := svc.Upsert(ctx, AgentInput{Name: " Bea  Jansen ", Email: "Bea@Example.com", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Bea Jansen", first.Name)
	assert.Equal(t, "bea@example.com", first.Email)

	second, err := svc.Upsert(ctx, AgentInput{Name: "Bea J.", Email: "bea@example.com", Active: false})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Active)
	assert.Len(t, store.Agents(), 1)
}

func TestUpsertRejectsInvalid(t *testing.T) {
	svc := New(repositorytest.New(), logger.Discard())
	_, err := svc.Upsert(context.Background(), AgentInput{Name: "Bea", Email: "not-an-email"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}
