// Package management is the entry point for lead intake and admin reads.
// It ties normalization, duplicate suppression and assignment together for
// public submissions and serves the admin lead list.
package management

import (
	"context"
	"errors"
	"time"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leads/dedupe"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/intake"
	"property_portal_backend/internal/leads/ports"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Assigner persists a candidate and binds it to an agent.
type Assigner interface {
	Assign(ctx context.Context, c intake.Candidate) (domain.Lead, error)
}

// SubmitResult describes what a submission produced.
type SubmitResult struct {
	LeadID uuid.UUID
	Status domain.Status
	// Duplicate is set when an identical recent submission was found and
	// its lead returned instead of creating a new one.
	Duplicate bool
}

// ListFilter narrows the admin lead list. Page is 1-based.
type ListFilter struct {
	Status      *domain.Status
	ProjectID   *uuid.UUID
	AgentID     *uuid.UUID
	Unassigned  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// ListResult is one page of leads.
type ListResult struct {
	Items      []domain.Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Service handles lead submission and reads.
type Service struct {
	normalizer *intake.Normalizer
	projects   ports.ProjectLookup
	dedupe     dedupe.Deduper
	assigner   Assigner
	reader     repository.LeadReader
	bus        events.Publisher
	log        *logger.Logger
}

// Deps groups the collaborators of Service.
type Deps struct {
	Normalizer *intake.Normalizer
	Projects   ports.ProjectLookup
	Dedupe     dedupe.Deduper
	Assigner   Assigner
	Reader     repository.LeadReader
	Bus        events.Publisher
	Log        *logger.Logger
}

// New creates a new lead management service.
func New(d Deps) *Service {
	if d.Dedupe == nil {
		d.Dedupe = dedupe.Noop{}
	}
	return &Service{
		normalizer: d.Normalizer,
		projects:   d.Projects,
		dedupe:     d.Dedupe,
		assigner:   d.Assigner,
		reader:     d.Reader,
		bus:        d.Bus,
		log:        d.Log,
	}
}

// Submit validates raw, creates the lead and assigns it. When no agent is
// active the lead is still created and the returned error is
// domain.ErrNoAgentAvailable alongside a populated result.
func (s *Service) Submit(ctx context.Context, raw intake.Raw) (SubmitResult, error) {
	candidate, err := s.normalizer.Normalize(raw)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := s.checkProject(ctx, candidate.ProjectID); err != nil {
		return SubmitResult{}, err
	}

	key := dedupe.Fingerprint(candidate)
	existing, err := s.dedupe.Reserve(ctx, key)
	switch {
	case errors.Is(err, dedupe.ErrInFlight):
		return SubmitResult{}, err
	case err != nil:
		s.log.Warn("duplicate check unavailable, accepting submission", "error", err)
		key = ""
	case existing != nil:
		return s.duplicate(ctx, *existing)
	}

	lead, err := s.assigner.Assign(ctx, candidate)
	noAgent := errors.Is(err, domain.ErrNoAgentAvailable)
	if err != nil && !noAgent {
		if key != "" {
			if rerr := s.dedupe.Release(ctx, key); rerr != nil {
				s.log.Warn("failed to release duplicate reservation", "error", rerr)
			}
		}
		return SubmitResult{}, err
	}
	if key != "" {
		if cerr := s.dedupe.Confirm(ctx, key, lead.ID); cerr != nil {
			s.log.Warn("failed to record submission fingerprint", "leadId", lead.ID, "error", cerr)
		}
	}

	s.publishCreated(ctx, lead, noAgent)
	res := SubmitResult{LeadID: lead.ID, Status: lead.Status}
	if noAgent {
		return res, domain.ErrNoAgentAvailable
	}
	return res, nil
}

func (s *Service) checkProject(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	project, err := s.projects.GetProject(ctx, *id)
	if errors.Is(err, ports.ErrProjectNotFound) {
		return &domain.NotFoundError{Resource: "project", ID: *id}
	}
	if err != nil {
		return domain.Storage("get project", err)
	}
	if !project.Active {
		return &domain.ValidationError{Field: "project_id", Reason: "project is not accepting inquiries"}
	}
	return nil
}

func (s *Service) duplicate(ctx context.Context, id uuid.UUID) (SubmitResult, error) {
	lead, err := s.reader.GetLead(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		// The fingerprint outlived its lead; report the id anyway.
		return SubmitResult{LeadID: id, Duplicate: true}, nil
	}
	if err != nil {
		return SubmitResult{}, domain.Storage("get duplicate lead", err)
	}
	return SubmitResult{LeadID: lead.ID, Status: lead.Status, Duplicate: true}, nil
}

func (s *Service) publishCreated(ctx context.Context, lead domain.Lead, noAgent bool) {
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    string(lead.Source),
		ProjectID: lead.ProjectID,
		Email:     lead.Email,
	})

	switch {
	case lead.AgentID != nil:
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			AgentID:   *lead.AgentID,
			Actor:     domain.ActorSystem,
		})
	case noAgent:
		s.bus.Publish(ctx, events.LeadQueuedUnassigned{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID, Reason: "no_active_agent"})
	}
}

// GetByID retrieves a lead by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.reader.GetLead(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, &domain.NotFoundError{Resource: "lead", ID: id}
	}
	if err != nil {
		return domain.Lead{}, domain.Storage("get lead", err)
	}
	return lead, nil
}

// List returns one page of leads, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) (ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = defaultPageSize
	case f.PageSize > maxPageSize:
		f.PageSize = maxPageSize
	}
	if f.Unassigned && f.AgentID != nil {
		return ListResult{}, &domain.ValidationError{Field: "agentId", Reason: "cannot be combined with unassigned"}
	}

	res, err := s.reader.ListLeads(ctx, repository.ListParams{
		Status:      f.Status,
		ProjectID:   f.ProjectID,
		AgentID:     f.AgentID,
		Unassigned:  f.Unassigned,
		CreatedFrom: f.CreatedFrom,
		CreatedTo:   f.CreatedTo,
		Offset:      (f.Page - 1) * f.PageSize,
		Limit:       f.PageSize,
	})
	if err != nil {
		return ListResult{}, domain.Storage("list leads", err)
	}

	totalPages := (res.Total + f.PageSize - 1) / f.PageSize
	return ListResult{
		Items:      res.Items,
		Total:      res.Total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}, nil
}

// History returns the lead's audit entries, oldest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.reader.ListAudit(ctx, id)
	if err != nil {
		return nil, domain.Storage("list audit", err)
	}
	return entries, nil
}
