package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// SubmitLeadRequest is the body of both public inquiry forms. Field rules
// are enforced by the intake normalizer.
type SubmitLeadRequest struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Message   *string    `json:"message,omitempty"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
}

type UpdateStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=new assigned contacted converted lost"`
	ExpectedVersion int64  `json:"expectedVersion" validate:"required,min=1"`
}

type UpdateNotesRequest struct {
	Notes           string `json:"notes" validate:"max=20000"`
	ExpectedVersion int64  `json:"expectedVersion" validate:"required,min=1"`
}

type AssignRequest struct {
	AgentID         string `json:"agentId" validate:"required,uuid"`
	ExpectedVersion int64  `json:"expectedVersion" validate:"required,min=1"`
}

type SetAgentActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type DrainRequest struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=500"`
}

// Response DTOs

type SubmitLeadResponse struct {
	LeadID    uuid.UUID `json:"leadId"`
	Status    string    `json:"status,omitempty"`
	Duplicate bool      `json:"duplicate"`
	Queued    bool      `json:"queued"`
}

type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	PhoneE164       string     `json:"phoneE164,omitempty"`
	Message         *string    `json:"message,omitempty"`
	Source          string     `json:"source"`
	ProjectID       *uuid.UUID `json:"projectId,omitempty"`
	AgentID         *uuid.UUID `json:"agentId,omitempty"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	StatusChangedAt time.Time  `json:"statusChangedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type AuditEntryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Action      string     `json:"action"`
	FromStatus  *string    `json:"fromStatus"`
	ToStatus    string     `json:"toStatus"`
	FromAgentID *uuid.UUID `json:"fromAgentId,omitempty"`
	ToAgentID   *uuid.UUID `json:"toAgentId,omitempty"`
	Actor       string     `json:"actor"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type AgentResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Active         bool       `json:"active"`
	OpenLeadCount  int        `json:"openLeadCount"`
	LastAssignedAt *time.Time `json:"lastAssignedAt,omitempty"`
}

type ProjectCountResponse struct {
	ProjectID   *uuid.UUID `json:"projectId"`
	ProjectName string     `json:"projectName,omitempty"`
	Count       int        `json:"count"`
}

type AgentLoadResponse struct {
	AgentID       uuid.UUID `json:"agentId"`
	AgentName     string    `json:"agentName"`
	Active        bool      `json:"active"`
	OpenLeadCount int       `json:"openLeadCount"`
	Leads         int       `json:"leads"`
	Converted     int       `json:"converted"`
}

type ReportResponse struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Total       int                    `json:"total"`
	Unassigned  int                    `json:"unassigned"`
	ByStatus    map[string]int         `json:"byStatus"`
	ByProject   []ProjectCountResponse `json:"byProject"`
	ByAgent     []AgentLoadResponse    `json:"byAgent"`
}

type DrainResponse struct {
	Scanned          int  `json:"scanned"`
	Assigned         int  `json:"assigned"`
	Skipped          int  `json:"skipped"`
	NoAgentAvailable bool `json:"noAgentAvailable"`
}
