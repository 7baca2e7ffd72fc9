package transport

import (
	"property_portal_backend/internal/leads/domain"
)

func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:              l.ID,
		Name:            l.Name,
		Email:           l.Email,
		Phone:           l.Phone,
		PhoneE164:       l.PhoneE164,
		Message:         l.Message,
		Source:          string(l.Source),
		ProjectID:       l.ProjectID,
		AgentID:         l.AgentID,
		Status:          string(l.Status),
		Notes:           l.Notes,
		Version:         l.Version,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
		StatusChangedAt: l.StatusChangedAt,
	}
}

func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

func ToAuditResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		var from *string
		if e.FromStatus != nil {
			s := string(*e.FromStatus)
			from = &s
		}
		out = append(out, AuditEntryResponse{
			ID:          e.ID,
			Action:      string(e.Action),
			FromStatus:  from,
			ToStatus:    string(e.ToStatus),
			FromAgentID: e.FromAgentID,
			ToAgentID:   e.ToAgentID,
			Actor:       e.Actor,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

func ToAgentResponse(a domain.Agent) AgentResponse {
	return AgentResponse{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Active:         a.Active,
		OpenLeadCount:  a.OpenLeadCount,
		LastAssignedAt: a.LastAssignedAt,
	}
}

func ToAgentResponses(agents []domain.Agent) []AgentResponse {
	out := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, ToAgentResponse(a))
	}
	return out
}

func ToReportResponse(r domain.Report) ReportResponse {
	resp := ReportResponse{
		GeneratedAt: r.GeneratedAt,
		Total:       r.Total,
		Unassigned:  r.Unassigned,
		ByStatus:    make(map[string]int, len(r.ByStatus)),
		ByProject:   make([]ProjectCountResponse, 0, len(r.ByProject)),
		ByAgent:     make([]AgentLoadResponse, 0, len(r.ByAgent)),
	}
	for st, n := range r.ByStatus {
		resp.ByStatus[string(st)] = n
	}
	for _, p := range r.ByProject {
		resp.ByProject = append(resp.ByProject, ProjectCountResponse{ProjectID: p.ProjectID, ProjectName: p.ProjectName, Count: p.Count})
	}
	for _, a := range r.ByAgent {
		resp.ByAgent = append(resp.ByAgent, AgentLoadResponse{
			AgentID:       a.AgentID,
			AgentName:     a.AgentName,
			Active:        a.Active,
			OpenLeadCount: a.OpenLeadCount,
			Leads:         a.Leads,
			Converted:     a.Converted,
		})
	}
	return resp
}
