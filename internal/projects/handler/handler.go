package handler

import (
	"context"

	"property_portal_backend/internal/projects/repository"
	"property_portal_backend/platform/httpkit"
	"property_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Lister lists the projects shown on the inquiry forms.
type Lister interface {
	ListActive(ctx context.Context) ([]repository.Project, error)
}

type ProjectResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type Handler struct {
	repo Lister
	log  *logger.Logger
}

func New(repo Lister, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

func (h *Handler) List(c *gin.Context) {
	projects, err := h.repo.ListActive(c.Request.Context())
	if httpkit.HandleError(c, err, h.log) {
		return
	}

	items := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		items = append(items, ProjectResponse{ID: p.ID, Name: p.Name, Slug: p.Slug})
	}
	httpkit.OK(c, gin.H{"items": items})
}
