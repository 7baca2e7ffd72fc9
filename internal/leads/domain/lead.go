package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source records which website form produced a lead.
type Source string

const (
	SourceGeneral Source = "website-general"
	SourceProject Source = "website-project"
)

// ActorSystem is the audit actor for changes nobody requested directly.
const ActorSystem = "system"

// Lead is a prospective buyer's enquiry.
type Lead struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Phone           string
	PhoneDigits     string
	PhoneE164       string
	Message         *string
	Source          Source
	ProjectID       *uuid.UUID
	AgentID         *uuid.UUID
	Status          Status
	Notes           string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StatusChangedAt time.Time
}

// Agent is a salesperson who receives leads.
type Agent struct {
	ID             uuid.UUID
	Name           string
	Email          string
	Active         bool
	OpenLeadCount  int
	LastAssignedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Project is a property development a lead may be interested in.
type Project struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Active    bool
	CreatedAt time.Time
}

// AuditAction names the kind of change an audit entry records.
type AuditAction string

const (
	AuditCreated       AuditAction = "created"
	AuditAssigned      AuditAction = "assigned"
	AuditStatusChanged AuditAction = "status_changed"
	AuditReassigned    AuditAction = "reassigned"
	AuditNotesUpdated  AuditAction = "notes_updated"
)

// AuditEntry is one append-only record of a change to a lead.
type AuditEntry struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Action      AuditAction
	FromStatus  *Status
	ToStatus    Status
	FromAgentID *uuid.UUID
	ToAgentID   *uuid.UUID
	Actor       string
	CreatedAt   time.Time
}

// NewAudit builds an entry stamped with a fresh ID.
func NewAudit(leadID uuid.UUID, action AuditAction, from *Status, to Status, actor string, at time.Time) AuditEntry {
	if actor == "" {
		actor = ActorSystem
	}
	return AuditEntry{
		ID:         uuid.New(),
		LeadID:     leadID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		CreatedAt:  at,
	}
}

// StatusPtr returns a pointer to s.
func StatusPtr(s Status) *Status { return &s }
