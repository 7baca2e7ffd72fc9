package handler

import (
	"context"
	"errors"
	"net/http"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/intake"
	"property_portal_backend/internal/leads/management"
	"property_portal_backend/internal/leads/transport"
	"property_portal_backend/platform/httpkit"
	"property_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Submitter creates leads from public form submissions.
type Submitter interface {
	Submit(ctx context.Context, raw intake.Raw) (management.SubmitResult, error)
}

// PublicHandler handles the unauthenticated inquiry forms.
type PublicHandler struct {
	svc Submitter
	log *logger.Logger
}

// NewPublicHandler creates a handler for public lead submission.
func NewPublicHandler(svc Submitter, log *logger.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, log: log}
}

// RegisterRoutes registers the inquiry endpoints under /public.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.SubmitGeneral)
	rg.POST("/projects/:projectId/leads", h.SubmitProject)
}

// SubmitGeneral accepts the general inquiry form. A projectId in the body
// turns it into a project inquiry.
func (h *PublicHandler) SubmitGeneral(c *gin.Context) {
	var req transport.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	h.submit(c, req, domain.SourceGeneral)
}

// SubmitProject accepts the inquiry form on a project page.
func (h *PublicHandler) SubmitProject(c *gin.Context) {
	projectID, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	var req transport.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	req.ProjectID = &projectID
	h.submit(c, req, domain.SourceProject)
}

func (h *PublicHandler) submit(c *gin.Context, req transport.SubmitLeadRequest, source domain.Source) {
	res, err := h.svc.Submit(c.Request.Context(), intake.Raw{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		Source:    source,
		ProjectID: req.ProjectID,
	})

	queued := errors.Is(err, domain.ErrNoAgentAvailable)
	if queued {
		h.log.WithContext(c.Request.Context()).Warn("lead stored without an agent", "leadId", res.LeadID)
	} else if httpkit.HandleError(c, err, h.log) {
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	httpkit.JSON(c, status, transport.SubmitLeadResponse{
		LeadID:    res.LeadID,
		Status:    string(res.Status),
		Duplicate: res.Duplicate,
		Queued:    res.Status == domain.StatusNew,
	})
}
