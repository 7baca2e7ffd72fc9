package lifecycle

import (
	"context"
	"testing"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leads/assignment"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/guard"
	"property_portal_backend/internal/leads/intake"
	"property_portal_backend/internal/leads/repository/repositorytest"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const admin = "admin-1"

type fixture struct {
	store  *repositorytest.Store
	engine *assignment.Engine
	svc    *Service
	rec    *events.Recorder
}

func newFixture() *fixture {
	store := repositorytest.New()
	rec := &events.Recorder{}
	return &fixture{
		store:  store,
		engine: assignment.New(store, nil, logger.Discard()).WithBackoff(0),
		svc:    New(guard.New(store), store, rec, logger.Discard()),
		rec:    rec,
	}
}

func (f *fixture) submit(t *testing.T, name string) domain.Lead {
	t.Helper()
	c, err := intake.NewNormalizer(nil, "NL").Normalize(intake.Raw{Name: name, Email: "a@b.com", Phone: "12345678"})
	require.NoError(t, err)
	lead, err := f.engine.Assign(context.Background(), c)
	if err != nil {
		require.ErrorIs(t, err, domain.ErrNoAgentAvailable)
	}
	return lead
}

func (f *fixture) agent(t *testing.T, id uuid.UUID) domain.Agent {
	t.Helper()
	a, err := f.store.GetAgent(context.Background(), id)
	require.NoError(t, err)
	return a
}

func auditFor(store *repositorytest.Store, leadID uuid.UUID) []domain.AuditEntry {
	var out []domain.AuditEntry
	for _, e := range store.Audit() {
		if e.LeadID == leadID {
			out = append(out, e)
		}
	}
	return out
}

func TestExampleScenario(t *testing.T) {
	f := newFixture()
	f.store.AddAgent("Bea", true)
	ctx := context.Background()

	_, err := intake.NewNormalizer(nil, "NL").Normalize(intake.Raw{Name: "Al", Email: "a@b.com", Phone: "12345678"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	lead := f.submit(t, "Ali")
	assert.Equal(t, domain.StatusAssigned, lead.Status)
	assert.Equal(t, int64(1), lead.Version)
	created := auditFor(f.store, lead.ID)
	require.Len(t, created, 1)
	assert.Nil(t, created[0].FromStatus)
	assert.Equal(t, domain.StatusAssigned, created[0].ToStatus)

	_, err = f.svc.UpdateStatus(ctx, lead.ID, 1, domain.StatusConverted, admin)
	var terr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, domain.StatusAssigned, terr.From)
	assert.Equal(t, domain.StatusConverted, terr.To)

	lead, err = f.svc.UpdateStatus(ctx, lead.ID, 1, domain.StatusContacted, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), lead.Version)

	lead, err = f.svc.UpdateStatus(ctx, lead.ID, 2, domain.StatusConverted, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), lead.Version)
	assert.Equal(t, domain.StatusConverted, lead.Status)

	history := auditFor(f.store, lead.ID)
	require.Len(t, history, 3)
	for _, e := range history[1:] {
		assert.Equal(t, domain.AuditStatusChanged, e.Action)
		assert.Equal(t, admin, e.Actor)
	}
	assert.Equal(t, []string{events.LeadStatusChangedName, events.LeadStatusChangedName}, f.rec.Names())
}

func TestUpdateStatusRejectsEveryEdgeOutsideTable(t *testing.T) {
	ctx := context.Background()
	// Paths from a freshly assigned lead to each starting status.
	paths := map[domain.Status][]domain.Status{
		domain.StatusAssigned:  nil,
		domain.StatusContacted: {domain.StatusContacted},
		domain.StatusConverted: {domain.StatusContacted, domain.StatusConverted},
		domain.StatusLost:      {domain.StatusLost},
	}

	for from, path := range paths {
		for _, to := range domain.AllStatuses {
			if from == to || domain.CanTransition(from, to) {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				f := newFixture()
				f.store.AddAgent("Bea", true)
				lead := f.submit(t, "Ali")
				for _, step := range path {
					var err error
					lead, err = f.svc.UpdateStatus(ctx, lead.ID, lead.Version, step, admin)
					require.NoError(t, err)
				}

				_, err := f.svc.UpdateStatus(ctx, lead.ID, lead.Version, to, admin)
				var terr *domain.InvalidTransitionError
				require.ErrorAs(t, err, &terr)

				after, err := f.store.GetLead(ctx, lead.ID)
				require.NoError(t, err)
				assert.Equal(t, lead.Version, after.Version)
				assert.Equal(t, from, after.Status)
			})
		}
	}
}

func TestUpdateStatusFromNewOnlyAllowsAssignment(t *testing.T) {
	f := newFixture()
	lead := f.submit(t, "Ali")
	require.Equal(t, domain.StatusNew, lead.Status)

	for _, to := range []domain.Status{domain.StatusContacted, domain.StatusConverted, domain.StatusLost} {
		_, err := f.svc.UpdateStatus(context.Background(), lead.ID, 1, to, admin)
		var terr *domain.InvalidTransitionError
		require.ErrorAs(t, err, &terr, to)
	}
	after, err := f.store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.Version)
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	f := newFixture()
	f.store.AddAgent("Bea", true)
	lead := f.submit(t, "Ali")
	ctx := context.Background()

	updated, err := f.svc.UpdateStatus(ctx, lead.ID, 1, domain.StatusAssigned, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.False(t, updated.UpdatedAt.Before(lead.UpdatedAt))
	assert.Equal(t, lead.StatusChangedAt, updated.StatusChangedAt)
	assert.Len(t, auditFor(f.store, lead.ID), 1)
	assert.Empty(t, f.rec.Events)
}

func TestUpdateStatusStaleVersion(t *testing.T) {
	f := newFixture()
	f.store.AddAgent("Bea", true)
	lead := f.submit(t, "Ali")

	_, err := f.svc.UpdateStatus(context.Background(), lead.ID, 7, domain.StatusContacted, admin)
	require.ErrorIs(t, err, domain.ErrStaleVersion)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), 1, domain.Status("archived"), admin)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestUpdateStatusNewLeadNeedsOwner(t *testing.T) {
	f := newFixture()
	lead := f.submit(t, "Ali")
	require.Equal(t, domain.StatusNew, lead.Status)

	_, err := f.svc.UpdateStatus(context.Background(), lead.ID, 1, domain.StatusAssigned, admin)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "agentId", verr.Field)
}

func TestTerminalStatusReleasesAgent(t *testing.T) {
	f := newFixture()
	bea := f.store.AddAgent("Bea", true)
	lead := f.submit(t, "Ali")
	require.Equal(t, 1, f.agent(t, bea.ID).OpenLeadCount)

	_, err := f.svc.UpdateStatus(context.Background(), lead.ID, 1, domain.StatusLost, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, f.agent(t, bea.ID).OpenLeadCount)
}

func TestReassignMovesCounts(t *testing.T) {
	f := newFixture()
	bea := f.store.AddAgent("Bea", true)
	lead := f.submit(t, "Ali")
	cas := f.store.AddAgent("Cas", true)
	ctx := context.Background()

	updated, err := f.svc.Reassign(ctx, lead.ID, 1, cas.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, cas.ID, *updated.AgentID)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 0, f.agent(t, bea.ID).OpenLeadCount)
	assert.Equal(t, 1, f.agent(t, cas.ID).OpenLeadCount)

	history := auditFor(f.store, lead.ID)
	require.Len(t, history, 2)
	last := history[1]
	assert.Equal(t, domain.AuditReassigned, last.Action)
	assert.Equal(t, bea.ID, *last.FromAgentID)
	assert.Equal(t, cas.ID, *last.ToAgentID)

	require.Len(t, f.rec.Events, 1)
	ev := f.rec.Events[0].(events.LeadAssigned)
	assert.Equal(t, bea.ID, *ev.PreviousAgentID)
}

func TestReassignDrainsNewLead(t *testing.T) {
	f := newFixture()
	lead := f.submit(t, "Ali")
	bea := f.store.AddAgent("Bea", true)

	updated, err := f.svc.Reassign(context.Background(), lead.ID, 1, bea.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	assert.Equal(t, 1, f.agent(t, bea.ID).OpenLeadCount)

	history := auditFor(f.store, lead.ID)
	require.Len(t, history, 2)
	assert.Equal(t, domain.AuditAssigned, history[1].Action)
	assert.Equal(t, domain.StatusNew, *history[1].FromStatus)
}

func TestReassignToSameAgentChangesNothing(t *testing.T) {
	f := newFixture()
	bea := f.store.AddAgent("Bea", true)
	lead := f.submit(t, "Ali")

	updated, err := f.svc.Reassign(context.Background(), lead.ID, 1, bea.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 1, f.agent(t, bea.ID).OpenLeadCount)
	assert.Len(t, auditFor(f.store, lead.ID), 1)
	assert.Empty(t, f.rec.Events)
}

func TestReassignRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown agent", func(t *testing.T) {
		f := newFixture()
		f.store.AddAgent("Bea", true)
		lead := f.submit(t, "Ali")
		_, err := f.svc.Reassign(ctx, lead.ID, 1, uuid.New(), admin)
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "agent", nf.Resource)
	})

	t.Run("inactive agent", func(t *testing.T) {
		f := newFixture()
		f.store.AddAgent("Bea", true)
		lead := f.submit(t, "Ali")
		off := f.store.AddAgent("Off", false)
		_, err := f.svc.Reassign(ctx, lead.ID, 1, off.ID, admin)
		var ua *domain.AgentUnavailableError
		require.ErrorAs(t, err, &ua)
	})

	t.Run("closed lead", func(t *testing.T) {
		f := newFixture()
		f.store.AddAgent("Bea", true)
		lead := f.submit(t, "Ali")
		cas := f.store.AddAgent("Cas", true)
		lead, err := f.svc.UpdateStatus(ctx, lead.ID, 1, domain.StatusLost, admin)
		require.NoError(t, err)

		_, err = f.svc.Reassign(ctx, lead.ID, lead.Version, cas.ID, admin)
		var terr *domain.InvalidTransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.StatusLost, terr.From)
		assert.Equal(t, 0, f.agent(t, cas.ID).OpenLeadCount)
	})

	t.Run("stale", func(t *testing.T) {
		f := newFixture()
		f.store.AddAgent("Bea", true)
		lead := f.submit(t, "Ali")
		cas := f.store.AddAgent("Cas", true)
		_, err := f.svc.Reassign(ctx, lead.ID, 2, cas.ID, admin)
		require.ErrorIs(t, err, domain.ErrStaleVersion)
		assert.Equal(t, 0, f.agent(t, cas.ID).OpenLeadCount)
	})
}

func TestExactlyOneOwnerAfterMixedOperations(t *testing.T) {
	f := newFixture()
	agents := []domain.Agent{f.store.AddAgent("A", true), f.store.AddAgent("B", true), f.store.AddAgent("C", true)}
	ctx := context.Background()

	leads := make([]domain.Lead, 0, 9)
	for i := 0; i < 9; i++ {
		leads = append(leads, f.submit(t, "Lead"))
	}
	_, err := f.svc.Reassign(ctx, leads[0].ID, 1, agents[2].ID, admin)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, leads[1].ID, 1, domain.StatusLost, admin)
	require.NoError(t, err)
	l2, err := f.svc.UpdateStatus(ctx, leads[2].ID, 1, domain.StatusContacted, admin)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, l2.ID, l2.Version, domain.StatusConverted, admin)
	require.NoError(t, err)

	open := map[uuid.UUID]int{}
	for _, l := range f.store.Leads() {
		if l.Status != domain.StatusNew {
			require.NotNil(t, l.AgentID)
		}
		if l.Status.IsOpen() {
			open[*l.AgentID]++
		}
	}
	for _, a := range f.store.Agents() {
		assert.Equal(t, open[a.ID], a.OpenLeadCount, a.Name)
	}
}
