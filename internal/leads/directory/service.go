// Package directory manages the agents eligible to receive leads.
package directory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/sanitize"
	"property_portal_backend/platform/validator"

	"github.com/google/uuid"
)

// AgentInput describes an agent to create or update by email.
type AgentInput struct {
	Name   string `json:"name" validate:"required,min=2,max=200"`
	Email  string `json:"email" validate:"required,email,max=254"`
	Active bool   `json:"active"`
}

// Service reads and maintains the Agent Directory.
type Service struct {
	store    repository.AgentStore
	validate *validator.Validator
	log      *logger.Logger
	now      func() time.Time
}

// New creates a directory service.
func New(store repository.AgentStore, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		validate: validator.Validate,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns agents ordered by name.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Agent, error) {
	agents, err := s.store.ListAgents(ctx, activeOnly)
	if err != nil {
		return nil, domain.Storage("list agents", err)
	}
	return agents, nil
}

// Get returns one agent.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	agent, err := s.store.GetAgent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Agent{}, &domain.NotFoundError{Resource: "agent", ID: id}
	}
	if err != nil {
		return domain.Agent{}, domain.Storage("get agent", err)
	}
	return agent, nil
}

// SetActive flips eligibility for new leads. Leads the agent already owns
// stay with them until an admin reassigns them.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool, actor string) (domain.Agent, error) {
	agent, err := s.store.SetAgentActive(ctx, id, active, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Agent{}, &domain.NotFoundError{Resource: "agent", ID: id}
	}
	if err != nil {
		return domain.Agent{}, domain.Storage("set agent active", err)
	}

	s.log.Info("agent eligibility changed",
		"agentId", id,
		"active", active,
		"openLeads", agent.OpenLeadCount,
		"actor", actor,
	)
	return agent, nil
}

// Upsert creates the agent or updates the one with the same email.
func (s *Service) Upsert(ctx context.Context, in AgentInput) (domain.Agent, error) {
	in.Name = sanitize.Line(in.Name)
	in.Email = sanitize.FoldEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		fields := validator.FieldErrors(err)
		if len(fields) == 0 {
			return domain.Agent{}, &domain.ValidationError{Field: "agent", Reason: err.Error()}
		}
		first := slices.Sorted(maps.Keys(fields))[0]
		return domain.Agent{}, &domain.ValidationError{Field: first, Reason: "failed " + fields[first]}
	}

	now := s.now()
	agent, err := s.store.UpsertAgent(ctx, domain.Agent{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     in.Email,
		Active:    in.Active,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Agent{}, domain.Storage("upsert agent", err)
	}
	return agent, nil
}
