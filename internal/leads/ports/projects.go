// Package ports defines consumer-driven interfaces for external dependencies.
// These interfaces are defined in the Leads domain based on what it needs,
// rather than what other domains choose to offer.
package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProjectNotFound is returned by ProjectLookup for unknown ids.
var ErrProjectNotFound = errors.New("project not found")

// ProjectInfo is the minimal project data intake needs.
type ProjectInfo struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// ProjectLookup validates project references on submissions.
// The projects domain implements it through an adapter.
type ProjectLookup interface {
	// GetProject returns ErrProjectNotFound when id does not exist.
	GetProject(ctx context.Context, id uuid.UUID) (ProjectInfo, error)
}
