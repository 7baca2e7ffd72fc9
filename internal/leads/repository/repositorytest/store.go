// Package repositorytest provides an in-memory lead store with the same
// transactional contract as the pgx repository.
package repositorytest

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Store models Postgres READ COMMITTED. Each statement reads the latest
// committed rows plus the transaction's own writes without blocking. Writes
// take a row lock held until commit or rollback, then re-read the row so a
// writer that waited sees what the winner committed. LockAssignment takes a
// store-wide lock the same way pg_advisory_xact_lock does.
type Store struct {
	mu       sync.Mutex
	state    state
	hooks    Hooks
	txSeen   int
	rows     map[uuid.UUID]chan struct{}
	assignMu chan struct{}
}

// Hooks lets tests inject failures and widen race windows.
type Hooks struct {
	// BeforeClaim runs before each ClaimAgent; returning false makes the
	// claim lose as if the agent had been deactivated.
	BeforeClaim func(agentID uuid.UUID) bool
	// AfterPick runs after LeastLoadedAgent returns an agent.
	AfterPick func(agentID uuid.UUID)
	// FailInsert, when non-nil, is returned from InsertLead.
	FailInsert error
}

type state struct {
	leads    map[uuid.UUID]domain.Lead
	agents   map[uuid.UUID]domain.Agent
	projects map[uuid.UUID]domain.Project
	audit    []domain.AuditEntry
}

// New returns an empty store.
func New() *Store {
	return &Store{
		state: state{
			leads:    map[uuid.UUID]domain.Lead{},
			agents:   map[uuid.UUID]domain.Agent{},
			projects: map[uuid.UUID]domain.Project{},
		},
		rows:     map[uuid.UUID]chan struct{}{},
		assignMu: make(chan struct{}, 1),
	}
}

// SetHooks replaces the hooks.
func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// AddAgent seeds an agent and returns it.
func (s *Store) AddAgent(name string, active bool) domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	a := domain.Agent{
		ID:        uuid.New(),
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Active:    active,
		CreatedAt: now.Add(time.Duration(len(s.state.agents)) * time.Millisecond),
		UpdatedAt: now,
	}
	s.state.agents[a.ID] = a
	return a
}

// AddProject seeds a project and returns it.
func (s *Store) AddProject(name string) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Project{ID: uuid.New(), Name: name, Slug: strings.ToLower(name), Active: true, CreatedAt: time.Now().UTC()}
	s.state.projects[p.ID] = p
	return p
}

// SetOpenLeadCount overwrites an agent's cached count, to simulate drift.
func (s *Store) SetOpenLeadCount(agentID uuid.UUID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.state.agents[agentID]
	a.OpenLeadCount = n
	s.state.agents[agentID] = a
}

// Agents returns a copy of all committed agents.
func (s *Store) Agents() []domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Agent, 0, len(s.state.agents))
	for _, a := range s.state.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Leads returns a copy of all committed leads.
func (s *Store) Leads() []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Lead, 0, len(s.state.leads))
	for _, l := range s.state.leads {
		out = append(out, l)
	}
	return out
}

// Audit returns a copy of every committed audit entry in commit order.
func (s *Store) Audit() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.audit)
}

// Transactions counts calls to WithinTx.
func (s *Store) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txSeen
}

// GetProject serves the project lookup port.
func (s *Store) GetProject(_ context.Context, id uuid.UUID) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.projects[id]
	if !ok {
		return domain.Project{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.LeadTx) error) error {
	s.mu.Lock()
	s.txSeen++
	hooks := s.hooks
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	t := &tx{
		s:      s,
		hooks:  hooks,
		leads:  map[uuid.UUID]domain.Lead{},
		agents: map[uuid.UUID]domain.Agent{},
		held:   map[uuid.UUID]bool{},
	}
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// lockRow blocks until the row lock for id is free or ctx ends.
func (s *Store) lockRow(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	ch, ok := s.rows[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rows[id] = ch
	}
	s.mu.Unlock()
	return acquire(ctx, ch)
}

func (s *Store) unlockRow(id uuid.UUID) {
	s.mu.Lock()
	ch := s.rows[id]
	s.mu.Unlock()
	<-ch
}

func acquire(ctx context.Context, ch chan struct{}) error {
	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type tx struct {
	s      *Store
	hooks  Hooks
	leads  map[uuid.UUID]domain.Lead
	agents map[uuid.UUID]domain.Agent
	audit  []domain.AuditEntry
	held   map[uuid.UUID]bool
	assign bool
}

func (t *tx) lock(ctx context.Context, id uuid.UUID) error {
	if t.held[id] {
		return nil
	}
	if err := t.s.lockRow(ctx, id); err != nil {
		return err
	}
	t.held[id] = true
	return nil
}

func (t *tx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, l := range t.leads {
		t.s.state.leads[id] = l
	}
	for id, a := range t.agents {
		t.s.state.agents[id] = a
	}
	t.s.state.audit = append(t.s.state.audit, t.audit...)
}

// release drops every lock the transaction holds. Pending writes that were
// not committed are discarded with the tx.
func (t *tx) release() {
	for id := range t.held {
		t.s.unlockRow(id)
	}
	if t.assign {
		<-t.s.assignMu
	}
}

func (t *tx) lead(id uuid.UUID) (domain.Lead, bool) {
	if l, ok := t.leads[id]; ok {
		return l, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	l, ok := t.s.state.leads[id]
	return l, ok
}

func (t *tx) agent(id uuid.UUID) (domain.Agent, bool) {
	if a, ok := t.agents[id]; ok {
		return a, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	a, ok := t.s.state.agents[id]
	return a, ok
}

func (t *tx) LockAssignment(ctx context.Context) error {
	if t.assign {
		return nil
	}
	if err := acquire(ctx, t.s.assignMu); err != nil {
		return err
	}
	t.assign = true
	return nil
}

func (t *tx) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	l, ok := t.lead(id)
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (t *tx) GetAgent(_ context.Context, id uuid.UUID) (domain.Agent, error) {
	a, ok := t.agent(id)
	if !ok {
		return domain.Agent{}, repository.ErrNotFound
	}
	return a, nil
}

func (t *tx) InsertLead(ctx context.Context, lead domain.Lead) error {
	if t.hooks.FailInsert != nil {
		return t.hooks.FailInsert
	}
	if err := t.lock(ctx, lead.ID); err != nil {
		return err
	}
	t.leads[lead.ID] = lead
	return nil
}

func (t *tx) UpdateLeadVersioned(ctx context.Context, lead domain.Lead, expected int64) error {
	if err := t.lock(ctx, lead.ID); err != nil {
		return err
	}
	cur, ok := t.lead(lead.ID)
	if !ok || cur.Version != expected {
		return repository.ErrStaleVersion
	}
	cur.AgentID = lead.AgentID
	cur.Status = lead.Status
	cur.Notes = lead.Notes
	cur.Version = lead.Version
	cur.UpdatedAt = lead.UpdatedAt
	cur.StatusChangedAt = lead.StatusChangedAt
	t.leads[lead.ID] = cur
	return nil
}

func (t *tx) AppendAudit(_ context.Context, entries ...domain.AuditEntry) error {
	t.audit = append(t.audit, entries...)
	return nil
}

func (t *tx) LeastLoadedAgent(_ context.Context) (domain.Agent, error) {
	t.s.mu.Lock()
	active := make([]domain.Agent, 0, len(t.s.state.agents))
	for id, a := range t.s.state.agents {
		if own, ok := t.agents[id]; ok {
			a = own
		}
		if a.Active {
			active = append(active, a)
		}
	}
	t.s.mu.Unlock()

	if len(active) == 0 {
		return domain.Agent{}, repository.ErrNoActiveAgent
	}
	sort.Slice(active, func(i, j int) bool { return lessLoaded(active[i], active[j]) })
	if t.hooks.AfterPick != nil {
		t.hooks.AfterPick(active[0].ID)
	}
	return active[0], nil
}

// lessLoaded mirrors the SQL ordering: count, last assignment (never first),
// creation time, id.
func lessLoaded(a, b domain.Agent) bool {
	if a.OpenLeadCount != b.OpenLeadCount {
		return a.OpenLeadCount < b.OpenLeadCount
	}
	switch {
	case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
		return true
	case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
		return false
	case a.LastAssignedAt != nil && !a.LastAssignedAt.Equal(*b.LastAssignedAt):
		return a.LastAssignedAt.Before(*b.LastAssignedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (t *tx) ClaimAgent(ctx context.Context, agentID uuid.UUID, at time.Time) (bool, error) {
	if t.hooks.BeforeClaim != nil && !t.hooks.BeforeClaim(agentID) {
		return false, nil
	}
	if err := t.lock(ctx, agentID); err != nil {
		return false, err
	}
	a, ok := t.agent(agentID)
	if !ok || !a.Active {
		return false, nil
	}
	a.OpenLeadCount++
	stamp := at
	a.LastAssignedAt = &stamp
	a.UpdatedAt = at
	t.agents[agentID] = a
	return true, nil
}

func (t *tx) AdjustOpenLeadCount(ctx context.Context, agentID uuid.UUID, delta int, requireActive bool, at time.Time) error {
	if err := t.lock(ctx, agentID); err != nil {
		return err
	}
	a, ok := t.agent(agentID)
	if !ok || (requireActive && !a.Active) {
		return repository.ErrAgentUnavailable
	}
	a.OpenLeadCount = max(a.OpenLeadCount+delta, 0)
	if delta > 0 {
		stamp := at
		a.LastAssignedAt = &stamp
	}
	a.UpdatedAt = at
	t.agents[agentID] = a
	return nil
}
