// Package notes handles the admin notes kept on a lead.
// Notes are a single text field; every edit is version-checked and audited.
package notes

import (
	"context"
	"time"
	"unicode/utf8"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/guard"
	"property_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// MaxNotesRunes bounds the notes field.
const MaxNotesRunes = 10000

// Service handles lead note operations.
type Service struct {
	guard *guard.Guard
	bus   events.Publisher
}

// New creates a new notes service.
func New(g *guard.Guard, bus events.Publisher) *Service {
	return &Service{guard: g, bus: bus}
}

// Update replaces the lead's notes. Saving identical notes bumps the
// version without an audit entry.
func (s *Service) Update(ctx context.Context, leadID uuid.UUID, expectedVersion int64, notes string, actor string) (domain.Lead, error) {
	clean := sanitize.Text(notes)
	if utf8.RuneCountInString(clean) > MaxNotesRunes {
		return domain.Lead{}, &domain.ValidationError{Field: "notes", Reason: "must be at most 10000 characters"}
	}

	changed := false
	lead, err := s.guard.UpdateLead(ctx, leadID, expectedVersion, func(current domain.Lead, now time.Time) (guard.Change, error) {
		next := current
		if current.Notes == clean {
			return guard.Change{Lead: next}, nil
		}
		changed = true
		next.Notes = clean
		entry := domain.NewAudit(leadID, domain.AuditNotesUpdated, domain.StatusPtr(current.Status), current.Status, actor, now)
		return guard.Change{Lead: next, Audit: []domain.AuditEntry{entry}}, nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if changed {
		if actor == "" {
			actor = domain.ActorSystem
		}
		s.bus.Publish(ctx, events.LeadNotesUpdated{BaseEvent: events.NewBaseEvent(), LeadID: leadID, Actor: actor})
	}
	return lead, nil
}
