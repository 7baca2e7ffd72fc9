package repositorytest

import (
	"context"
	"sort"
	"time"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

var (
	_ repository.Transactor       = (*Store)(nil)
	_ repository.LeadReader       = (*Store)(nil)
	_ repository.UnassignedReader = (*Store)(nil)
	_ repository.AgentStore       = (*Store)(nil)
	_ repository.ReportReader     = (*Store)(nil)
	_ repository.CountReconciler  = (*Store)(nil)
)

func (s *Store) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (s *Store) GetAgent(_ context.Context, id uuid.UUID) (domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.agents[id]
	if !ok {
		return domain.Agent{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListLeads(_ context.Context, p repository.ListParams) (repository.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]domain.Lead, 0)
	for _, l := range s.state.leads {
		if p.Status != nil && l.Status != *p.Status {
			continue
		}
		if p.ProjectID != nil && (l.ProjectID == nil || *l.ProjectID != *p.ProjectID) {
			continue
		}
		if p.AgentID != nil && (l.AgentID == nil || *l.AgentID != *p.AgentID) {
			continue
		}
		if p.Unassigned && l.AgentID != nil {
			continue
		}
		if !inRange(l.CreatedAt, p.CreatedFrom, p.CreatedTo) {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	start := min(p.Offset, len(matched))
	end := min(start+limit, len(matched))
	return repository.ListResult{Items: matched[start:end], Total: len(matched)}, nil
}

func (s *Store) ListAudit(_ context.Context, leadID uuid.UUID) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditEntry, 0)
	for _, e := range s.state.audit {
		if e.LeadID == leadID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListUnassigned(_ context.Context, limit int) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, l := range s.state.leads {
		if l.Status == domain.StatusNew && l.AgentID == nil {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListAgents(_ context.Context, activeOnly bool) ([]domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Agent, 0, len(s.state.agents))
	for _, a := range s.state.agents {
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) SetAgentActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) (domain.Agent, error) {
	if err := s.lockRow(ctx, id); err != nil {
		return domain.Agent{}, err
	}
	defer s.unlockRow(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.agents[id]
	if !ok {
		return domain.Agent{}, repository.ErrNotFound
	}
	a.Active = active
	a.UpdatedAt = at
	s.state.agents[id] = a
	return a, nil
}

func (s *Store) UpsertAgent(ctx context.Context, agent domain.Agent) (domain.Agent, error) {
	s.mu.Lock()
	var existingID uuid.UUID
	for id, existing := range s.state.agents {
		if existing.Email == agent.Email {
			existingID = id
			break
		}
	}
	s.mu.Unlock()

	if existingID != uuid.Nil {
		if err := s.lockRow(ctx, existingID); err != nil {
			return domain.Agent{}, err
		}
		defer s.unlockRow(existingID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.state.agents[existingID]; ok {
		existing.Name = agent.Name
		existing.Active = agent.Active
		existing.UpdatedAt = agent.UpdatedAt
		s.state.agents[existingID] = existing
		return existing, nil
	}
	agent.OpenLeadCount = 0
	agent.LastAssignedAt = nil
	agent.CreatedAt = agent.UpdatedAt
	s.state.agents[agent.ID] = agent
	return agent, nil
}

func (s *Store) LeadReport(_ context.Context, rng domain.ReportRange) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := domain.Report{
		GeneratedAt: time.Now().UTC(),
		ByStatus:    make(map[domain.Status]int, len(domain.AllStatuses)),
		ByProject:   make([]domain.ProjectCount, 0),
		ByAgent:     make([]domain.AgentLoad, 0),
	}
	for _, st := range domain.AllStatuses {
		report.ByStatus[st] = 0
	}

	projectCounts := map[uuid.UUID]int{}
	general := 0
	agentLeads := map[uuid.UUID]*domain.AgentLoad{}
	for _, a := range s.state.agents {
		agentLeads[a.ID] = &domain.AgentLoad{AgentID: a.ID, AgentName: a.Name, Active: a.Active, OpenLeadCount: a.OpenLeadCount}
	}

	for _, l := range s.state.leads {
		if !inRange(l.CreatedAt, rng.From, rng.To) {
			continue
		}
		report.Total++
		report.ByStatus[l.Status]++
		if l.ProjectID == nil {
			general++
		} else {
			projectCounts[*l.ProjectID]++
		}
		if l.AgentID != nil {
			if al, ok := agentLeads[*l.AgentID]; ok {
				al.Leads++
				if l.Status == domain.StatusConverted {
					al.Converted++
				}
			}
		}
	}

	for id, n := range projectCounts {
		id := id
		report.ByProject = append(report.ByProject, domain.ProjectCount{ProjectID: &id, ProjectName: s.state.projects[id].Name, Count: n})
	}
	if general > 0 {
		report.ByProject = append(report.ByProject, domain.ProjectCount{Count: general})
	}
	sort.Slice(report.ByProject, func(i, j int) bool {
		if report.ByProject[i].Count != report.ByProject[j].Count {
			return report.ByProject[i].Count > report.ByProject[j].Count
		}
		return report.ByProject[i].ProjectName < report.ByProject[j].ProjectName
	})
	for _, al := range agentLeads {
		report.ByAgent = append(report.ByAgent, *al)
	}
	sort.Slice(report.ByAgent, func(i, j int) bool { return report.ByAgent[i].AgentName < report.ByAgent[j].AgentName })

	report.Unassigned = report.ByStatus[domain.StatusNew]
	return report, nil
}

func (s *Store) ReconcileOpenLeadCounts(ctx context.Context) ([]domain.CountDrift, error) {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.state.agents))
	for id := range s.state.agents {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for i, id := range ids {
		if err := s.lockRow(ctx, id); err != nil {
			for _, held := range ids[:i] {
				s.unlockRow(held)
			}
			return nil, err
		}
	}
	defer func() {
		for _, id := range ids {
			s.unlockRow(id)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := map[uuid.UUID]int{}
	for _, l := range s.state.leads {
		if l.AgentID != nil && l.Status.IsOpen() {
			recorded[*l.AgentID]++
		}
	}

	drift := make([]domain.CountDrift, 0)
	for id, a := range s.state.agents {
		if a.OpenLeadCount == recorded[id] {
			continue
		}
		drift = append(drift, domain.CountDrift{AgentID: id, Cached: a.OpenLeadCount, Recorded: recorded[id]})
		a.OpenLeadCount = recorded[id]
		s.state.agents[id] = a
	}
	return drift, nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
