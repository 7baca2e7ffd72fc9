package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportRange optionally restricts a report to leads created in [From, To).
type ReportRange struct {
	From *time.Time
	To   *time.Time
}

// ProjectCount is the number of leads for one project. A nil ProjectID is
// the general-enquiry bucket.
type ProjectCount struct {
	ProjectID   *uuid.UUID
	ProjectName string
	Count       int
}

// AgentLoad is one agent's share of the report.
type AgentLoad struct {
	AgentID       uuid.UUID
	AgentName     string
	Active        bool
	OpenLeadCount int
	Leads         int
	Converted     int
}

// Report is a snapshot-consistent summary of the lead book.
type Report struct {
	GeneratedAt time.Time
	Total       int
	ByStatus    map[Status]int
	ByProject   []ProjectCount
	ByAgent     []AgentLoad
	Unassigned  int
}

// CountDrift is an agent whose cached open count disagreed with the leads table.
type CountDrift struct {
	AgentID  uuid.UUID
	Cached   int
	Recorded int
}
