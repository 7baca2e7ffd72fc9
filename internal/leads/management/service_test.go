package management

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leads/assignment"
	"property_portal_backend/internal/leads/dedupe"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/intake"
	"property_portal_backend/internal/leads/ports"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/internal/leads/repository/repositorytest"
	"property_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type projectLookup map[uuid.UUID]ports.ProjectInfo

func (p projectLookup) GetProject(_ context.Context, id uuid.UUID) (ports.ProjectInfo, error) {
	info, ok := p[id]
	if !ok {
		return ports.ProjectInfo{}, ports.ErrProjectNotFound
	}
	return info, nil
}

type failingAssigner struct{}

func (failingAssigner) Assign(context.Context, intake.Candidate) (domain.Lead, error) {
	return domain.Lead{}, domain.Storage("assign lead", errors.New("boom"))
}

// flakyReader fails GetLead with err once it is set.
type flakyReader struct {
	*repositorytest.Store
	err error
}

func (r *flakyReader) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	if r.err != nil {
		return domain.Lead{}, r.err
	}
	return r.Store.GetLead(ctx, id)
}

type fixture struct {
	store    *repositorytest.Store
	rec      *events.Recorder
	projects projectLookup
	svc      *Service
}

func newFixture(t *testing.T, d dedupe.Deduper) *fixture {
	t.Helper()
	store := repositorytest.New()
	f := &fixture{store: store, rec: &events.Recorder{}, projects: projectLookup{}}
	f.svc = New(Deps{
		Normalizer: intake.NewNormalizer(nil, "NL"),
		Projects:   f.projects,
		Dedupe:     d,
		Assigner:   assignment.New(store, nil, logger.Discard()).WithBackoff(0),
		Reader:     store,
		Bus:        f.rec,
		Log:        logger.Discard(),
	})
	return f
}

func raw(name string) intake.Raw {
	return intake.Raw{Name: name, Email: "a@b.com", Phone: "12345678"}
}

func TestSubmitAssignsAndPublishes(t *testing.T) {
	f := newFixture(t, nil)
	bea := f.store.AddAgent("Bea", true)

	res, err := f.svc.Submit(context.Background(), raw("Ali"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, res.Status)
	assert.False(t, res.Duplicate)

	lead, err := f.svc.GetByID(context.Background(), res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, bea.ID, *lead.AgentID)
	assert.Equal(t, []string{events.LeadCreatedName, events.LeadAssignedName}, f.rec.Names())
}

func TestSubmitRejectsInvalidWithoutWrites(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddAgent("Bea", true)

	_, err := f.svc.Submit(context.Background(), raw("Al"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Empty(t, f.store.Leads())
	assert.Zero(t, f.store.Transactions())
	assert.Empty(t, f.rec.Events)
}

func TestSubmitWithoutAgentsQueuesLead(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Submit(context.Background(), raw("Ali"))
	require.ErrorIs(t, err, domain.ErrNoAgentAvailable)
	assert.NotEqual(t, uuid.Nil, res.LeadID)
	assert.Equal(t, domain.StatusNew, res.Status)
	require.Len(t, f.store.Leads(), 1)
	assert.Equal(t, []string{events.LeadCreatedName, events.LeadQueuedUnassignedName}, f.rec.Names())
}

func TestSubmitChecksProject(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddAgent("Bea", true)
	open, closed := uuid.New(), uuid.New()
	f.projects[open] = ports.ProjectInfo{ID: open, Name: "Tower", Active: true}
	f.projects[closed] = ports.ProjectInfo{ID: closed, Name: "Sold out", Active: false}

	r := raw("Ali")
	r.Source = domain.SourceProject
	r.ProjectID = &open
	res, err := f.svc.Submit(context.Background(), r)
	require.NoError(t, err)
	lead, err := f.svc.GetByID(context.Background(), res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, open, *lead.ProjectID)
	assert.Equal(t, domain.SourceProject, lead.Source)

	missing := uuid.New()
	r.ProjectID = &missing
	_, err = f.svc.Submit(context.Background(), r)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "project", nf.Resource)

	r.ProjectID = &closed
	_, err = f.svc.Submit(context.Background(), r)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "project_id", verr.Field)
}

func TestSubmitSuppressesDuplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, dedupe.NewRedis(client, time.Minute))
	f.store.AddAgent("Bea", true)

	first, err := f.svc.Submit(context.Background(), raw("Ali"))
	require.NoError(t, err)
	second, err := f.svc.Submit(context.Background(), raw("Ali B"))
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.LeadID, second.LeadID)
	assert.Len(t, f.store.Leads(), 1)

	mr.FastForward(2 * time.Minute)
	third, err := f.svc.Submit(context.Background(), raw("Ali"))
	require.NoError(t, err)
	assert.NotEqual(t, first.LeadID, third.LeadID)
}

func TestDuplicateLookupFailureIsStorageError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repositorytest.New()
	store.AddAgent("Bea", true)
	reader := &flakyReader{Store: store}
	svc := New(Deps{
		Normalizer: intake.NewNormalizer(nil, "NL"),
		Projects:   projectLookup{},
		Dedupe:     dedupe.NewRedis(client, time.Minute),
		Assigner:   assignment.New(store, nil, logger.Discard()).WithBackoff(0),
		Reader:     reader,
		Bus:        &events.Recorder{},
		Log:        logger.Discard(),
	})

	first, err := svc.Submit(context.Background(), raw("Ali"))
	require.NoError(t, err)

	reader.err = errors.New("connection reset")
	_, err = svc.Submit(context.Background(), raw("Ali"))
	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "get duplicate lead", serr.Op)

	reader.err = repository.ErrNotFound
	res, err := svc.Submit(context.Background(), raw("Ali"))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, first.LeadID, res.LeadID)
	assert.Len(t, store.Leads(), 1)
}

func TestSubmitReleasesReservationOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := New(Deps{
		Normalizer: intake.NewNormalizer(nil, "NL"),
		Projects:   projectLookup{},
		Dedupe:     dedupe.NewRedis(client, time.Minute),
		Assigner:   failingAssigner{},
		Reader:     repositorytest.New(),
		Bus:        &events.Recorder{},
		Log:        logger.Discard(),
	})

	_, err := svc.Submit(context.Background(), raw("Ali"))
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestSubmitAcceptsWhenDedupeStoreIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	f := newFixture(t, dedupe.NewRedis(client, time.Minute))
	f.store.AddAgent("Bea", true)

	res, err := f.svc.Submit(context.Background(), raw("Ali"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, res.Status)
}

func TestConcurrentSubmissionsAreAllPersisted(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 4; i++ {
		f.store.AddAgent(fmt.Sprintf("Agent %d", i), true)
	}

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		g.Go(func() error {
			r := raw("Buyer")
			r.Email = fmt.Sprintf("buyer%d@example.com", i)
			_, err := f.svc.Submit(context.Background(), r)
			return err
		})
	}
	require.NoError(t, g.Wait())

	leads := f.store.Leads()
	assert.Len(t, leads, 40)
	for _, l := range leads {
		assert.Equal(t, domain.StatusAssigned, l.Status)
	}
	for _, a := range f.store.Agents() {
		assert.Equal(t, 10, a.OpenLeadCount, a.Name)
	}
}

func TestListPagesAndFilters(t *testing.T) {
	f := newFixture(t, nil)
	bea := f.store.AddAgent("Bea", true)
	for i := 0; i < 5; i++ {
		r := raw("Buyer")
		r.Email = fmt.Sprintf("buyer%d@example.com", i)
		_, err := f.svc.Submit(context.Background(), r)
		require.NoError(t, err)
	}

	page, err := f.svc.List(context.Background(), ListFilter{AgentID: &bea.ID, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2)

	status := domain.StatusNew
	none, err := f.svc.List(context.Background(), ListFilter{Status: &status})
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.Equal(t, defaultPageSize, none.PageSize)

	_, err = f.svc.List(context.Background(), ListFilter{AgentID: &bea.ID, Unassigned: true})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestHistoryAndNotFound(t *testing.T) {
	f := newFixture(t, nil)
	f.store.AddAgent("Bea", true)
	res, err := f.svc.Submit(context.Background(), raw("Ali"))
	require.NoError(t, err)

	entries, err := f.svc.History(context.Background(), res.LeadID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditAssigned, entries[0].Action)

	_, err = f.svc.History(context.Background(), uuid.New())
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}
