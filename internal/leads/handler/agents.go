package handler

import (
	"property_portal_backend/internal/leads/directory"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/transport"
	"property_portal_backend/platform/httpkit"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// AgentHandler serves the Agent Directory endpoints.
type AgentHandler struct {
	svc *directory.Service
	val *validator.Validator
	log *logger.Logger
}

func NewAgentHandler(svc *directory.Service, log *logger.Logger) *AgentHandler {
	return &AgentHandler{svc: svc, val: validator.Validate, log: log}
}

func (h *AgentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PATCH("/:id/active", h.SetActive)
}

func (h *AgentHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	agents, err := h.svc.List(c.Request.Context(), activeOnly)
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, gin.H{"items": transport.ToAgentResponses(agents)})
}

func (h *AgentHandler) SetActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.SetAgentActiveRequest
	if !bindJSON(c, h.val, &req) {
		return
	}

	agent, err := h.svc.SetActive(c.Request.Context(), id, *req.Active, httpkit.Actor(c, domain.ActorSystem))
	if httpkit.HandleError(c, err, h.log) {
		return
	}
	httpkit.OK(c, transport.ToAgentResponse(agent))
}
