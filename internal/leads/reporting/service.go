// Package reporting serves the dashboard's read-only lead counts.
package reporting

import (
	"context"
	"time"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/internal/leads/repository"
)

// Service builds lead reports.
type Service struct {
	reader repository.ReportReader
}

// New creates a reporting service.
func New(reader repository.ReportReader) *Service {
	return &Service{reader: reader}
}

// Report counts leads created in [from, to) by status, project and agent.
// Either bound may be nil. All counts come from one committed snapshot.
func (s *Service) Report(ctx context.Context, from, to *time.Time) (domain.Report, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return domain.Report{}, &domain.ValidationError{Field: "from", Reason: "must be before to"}
	}
	report, err := s.reader.LeadReport(ctx, domain.ReportRange{From: utc(from), To: utc(to)})
	if err != nil {
		return domain.Report{}, domain.Storage("lead report", err)
	}
	return report, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
