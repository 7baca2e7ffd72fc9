// Package projects provides read access to the developer's property projects.
// Project editing lives in the content admin and is not part of this service.
package projects

import (
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/projects/handler"
	"property_portal_backend/internal/projects/repository"
	"property_portal_backend/platform/logger"
)

// Module is the projects bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repo
}

// NewModule creates the projects module.
func NewModule(pool repository.Querier, log *logger.Logger) *Module {
	repo := repository.New(pool)
	return &Module{handler: handler.New(repo, log), repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "projects"
}

// Repository returns the repository for adapters.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts the public project list.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/projects"))
}

var _ apphttp.Module = (*Module)(nil)
