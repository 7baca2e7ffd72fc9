// Package leads provides the lead intake bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"property_portal_backend/internal/events"
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/leads/assignment"
	"property_portal_backend/internal/leads/dedupe"
	"property_portal_backend/internal/leads/directory"
	"property_portal_backend/internal/leads/guard"
	"property_portal_backend/internal/leads/handler"
	"property_portal_backend/internal/leads/intake"
	"property_portal_backend/internal/leads/lifecycle"
	"property_portal_backend/internal/leads/maintenance"
	"property_portal_backend/internal/leads/management"
	"property_portal_backend/internal/leads/notes"
	"property_portal_backend/internal/leads/ports"
	"property_portal_backend/internal/leads/reporting"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"
)

// Config combines the settings the leads module reads.
type Config interface {
	config.IntakeConfig
	config.AssignmentConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	agentHandler  *handler.AgentHandler
	management    *management.Service
	directory     *directory.Service
	drainer       *maintenance.Drainer
	reconciler    *maintenance.Reconciler
}

// NewModule creates and initializes the leads module with all its dependencies.
// A nil deduper disables duplicate suppression.
func NewModule(pool repository.Pool, eventBus events.Bus, projects ports.ProjectLookup, deduper dedupe.Deduper, val *validator.Validator, cfg Config, log *logger.Logger) *Module {
	repo := repository.New(pool)

	engine := assignment.New(repo, cfg, log)
	g := guard.New(repo)

	mgmtSvc := management.New(management.Deps{
		Normalizer: intake.NewNormalizer(val, cfg.GetPhoneDefaultRegion()),
		Projects:   projects,
		Dedupe:     deduper,
		Assigner:   engine,
		Reader:     repo,
		Bus:        eventBus,
		Log:        log,
	})
	directorySvc := directory.New(repo, log)
	drainer := maintenance.NewDrainer(repo, engine, eventBus, log)

	h := handler.New(handler.Services{
		Management: mgmtSvc,
		Lifecycle:  lifecycle.New(g, repo, eventBus, log),
		Notes:      notes.New(g, eventBus),
		Reporting:  reporting.New(repo),
		Directory:  directorySvc,
		Drainer:    drainer,
	}, val, log)

	return &Module{
		handler:       h,
		publicHandler: handler.NewPublicHandler(mgmtSvc, log),
		agentHandler:  handler.NewAgentHandler(directorySvc, log),
		management:    mgmtSvc,
		directory:     directorySvc,
		drainer:       drainer,
		reconciler:    maintenance.NewReconciler(repo, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// Directory returns the Agent Directory service.
func (m *Module) Directory() *directory.Service {
	return m.directory
}

// Drainer returns the unassigned-pool drain job.
func (m *Module) Drainer() *maintenance.Drainer {
	return m.drainer
}

// Reconciler returns the open-lead-count reconciliation job.
func (m *Module) Reconciler() *maintenance.Reconciler {
	return m.reconciler
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.publicHandler.RegisterRoutes(ctx.Public)
	m.handler.RegisterRoutes(ctx.Admin.Group("/leads"))
	m.agentHandler.RegisterRoutes(ctx.Admin.Group("/agents"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
