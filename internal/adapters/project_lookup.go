// Package adapters contains adapters that bridge different bounded contexts.
// These adapters implement interfaces defined by consuming domains while
// wrapping services from providing domains.
package adapters

import (
	"context"
	"errors"

	"property_portal_backend/internal/leads/ports"
	projectsrepo "property_portal_backend/internal/projects/repository"

	"github.com/google/uuid"
)

// ProjectGetter is the slice of the projects repository the adapter wraps.
type ProjectGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (projectsrepo.Project, error)
}

// ProjectLookup satisfies the leads domain's ProjectLookup port.
type ProjectLookup struct {
	repo ProjectGetter
}

// NewProjectLookup creates a new adapter wrapping the projects repository.
func NewProjectLookup(repo ProjectGetter) *ProjectLookup {
	return &ProjectLookup{repo: repo}
}

// GetProject returns ports.ErrProjectNotFound for unknown ids.
func (a *ProjectLookup) GetProject(ctx context.Context, id uuid.UUID) (ports.ProjectInfo, error) {
	p, err := a.repo.GetByID(ctx, id)
	if errors.Is(err, projectsrepo.ErrNotFound) {
		return ports.ProjectInfo{}, ports.ErrProjectNotFound
	}
	if err != nil {
		return ports.ProjectInfo{}, err
	}
	return ports.ProjectInfo{ID: p.ID, Name: p.Name, Active: p.Active}, nil
}

var _ ports.ProjectLookup = (*ProjectLookup)(nil)
