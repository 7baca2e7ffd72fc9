package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"property_portal_backend/internal/leads/directory"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/lifecycle"
	"property_portal_backend/internal/leads/maintenance"
	"property_portal_backend/internal/leads/management"
	"property_portal_backend/internal/leads/notes"
	"property_portal_backend/internal/leads/reporting"
	"property_portal_backend/internal/leads/transport"
	"property_portal_backend/platform/httpkit"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Drainer assigns leads waiting in the unassigned pool.
type Drainer interface {
	Run(ctx context.Context, batch int) (maintenance.DrainRunResult, error)
}

// Services groups the lead services the admin handler serves.
type Services struct {
	Management *management.Service
	Lifecycle  *lifecycle.Service
	Notes      *notes.Service
	Reporting  *reporting.Service
	Directory  *directory.Service
	Drainer    Drainer
}

// Handler serves the authenticated admin lead API.
type Handler struct {
	svc Services
	val *validator.Validator
	log *logger.Logger
}

func New(svc Services, val *validator.Validator, log *logger.Logger) *Handler {
	if val == nil {
		val = validator.Validate
	}
	return &Handler{svc: svc, val: val, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/report", h.Report)
	rg.POST("/assign-pending", h.AssignPending)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/audit", h.ListAudit)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.PUT("/:id/notes", h.UpdateNotes)
	rg.PUT("/:id/assign", h.Assign)
}

func (h *Handler) List(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	res, err := h.svc.Management.List(c.Request.Context(), filter)
	if httpkit.HandleError(c, err, h.log) {
		return
	}

	httpkit.OK(c, transport.LeadListResponse{
		Items:      transport.ToLeadResponses(res.Items),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	lead, err := h.svc.Management.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ListAudit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.svc.Management.History(c.Request.Context(), id)
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, gin.H{"items": transport.ToAuditResponses(entries)})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !bindJSON(c, h.val, &req) {
		return
	}

	lead, err := h.svc.Lifecycle.UpdateStatus(c.Request.Context(), id, req.ExpectedVersion, domain.Status(req.Status), httpkit.Actor(c, domain.ActorSystem))
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) UpdateNotes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateNotesRequest
	if !bindJSON(c, h.val, &req) {
		return
	}

	lead, err := h.svc.Notes.Update(c.Request.Context(), id, req.ExpectedVersion, req.Notes, httpkit.Actor(c, domain.ActorSystem))
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Assign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.AssignRequest
	if !bindJSON(c, h.val, &req) {
		return
	}
	agentID := uuid.MustParse(req.AgentID)

	lead, err := h.svc.Lifecycle.Reassign(c.Request.Context(), id, req.ExpectedVersion, agentID, httpkit.Actor(c, domain.ActorSystem))
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) AssignPending(c *gin.Context) {
	var req transport.DrainRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, h.val, &req) {
		return
	}

	res, err := h.svc.Drainer.Run(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, transport.DrainResponse{
		Scanned:          res.Scanned,
		Assigned:         res.Assigned,
		Skipped:          res.Skipped,
		NoAgentAvailable: res.NoAgent,
	})
}

func (h *Handler) Report(c *gin.Context) {
	from, err := parseTime(c.Query("from"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "from must be RFC3339")
		return
	}
	to, err := parseTime(c.Query("to"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "to must be RFC3339")
		return
	}

	report, err := h.svc.Reporting.Report(c.Request.Context(), from, to)
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, transport.ToReportResponse(report))
}

// bindJSON decodes and validates the JSON body, writing the error response
// on failure.
func bindJSON(c *gin.Context, val *validator.Validator, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusUnprocessableEntity, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func parseListFilter(c *gin.Context) (management.ListFilter, error) {
	var f management.ListFilter

	if raw := c.Query("status"); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			return f, queryError("status must be one of new, assigned, contacted, converted, lost")
		}
		f.Status = &st
	}
	for _, p := range []struct {
		name string
		dst  **uuid.UUID
	}{{"projectId", &f.ProjectID}, {"agentId", &f.AgentID}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, queryError(p.name + " must be a UUID")
		}
		*p.dst = &id
	}
	if raw := c.Query("unassigned"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, queryError("unassigned must be a boolean")
		}
		f.Unassigned = v
	}

	var err error
	if f.CreatedFrom, err = parseTime(c.Query("createdFrom")); err != nil {
		return f, queryError("createdFrom must be RFC3339")
	}
	if f.CreatedTo, err = parseTime(c.Query("createdTo")); err != nil {
		return f, queryError("createdTo must be RFC3339")
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &f.Page}, {"pageSize", &f.PageSize}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, queryError(p.name + " must be a positive integer")
		}
		*p.dst = n
	}
	return f, nil
}
