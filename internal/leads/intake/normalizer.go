// Package intake validates and canonicalizes raw lead submissions.
package intake

import (
	"strings"
	"unicode/utf8"

	"property_portal_backend/internal/leads/domain"
	"property_portal_backend/platform/phone"
	"property_portal_backend/platform/sanitize"
	"property_portal_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	minNameRunes    = 2
	maxNameRunes    = 200
	maxEmailRunes   = 254
	minPhoneDigits  = 8
	maxPhoneRunes   = 32
	minMessageRunes = 10
	maxMessageRunes = 5000
)

// Raw is an untrusted submission as received from a public form.
type Raw struct {
	Name      string
	Email     string
	Phone     string
	Message   *string
	Source    domain.Source
	ProjectID *uuid.UUID
}

// Candidate is a validated, canonical lead ready for assignment.
type Candidate struct {
	Name        string
	Email       string
	Phone       string
	PhoneDigits string
	PhoneE164   string
	Message     *string
	Source      domain.Source
	ProjectID   *uuid.UUID
}

// Raw turns a candidate back into a submission. Normalizing the result
// yields the same candidate.
func (c Candidate) Raw() Raw {
	return Raw{
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Message:   c.Message,
		Source:    c.Source,
		ProjectID: c.ProjectID,
	}
}

// Normalizer applies the submission rules. It has no side effects; project
// existence is checked by the caller.
type Normalizer struct {
	validate *validator.Validator
	region   string
}

// NewNormalizer builds a normalizer. region is the phone region used for
// numbers without a country prefix.
func NewNormalizer(v *validator.Validator, region string) *Normalizer {
	if v == nil {
		v = validator.Validate
	}
	if region == "" {
		region = phone.DefaultRegion
	}
	return &Normalizer{validate: v, region: region}
}

// Normalize checks fields in a fixed order (name, email, phone, message,
// project) and returns a *domain.ValidationError for the first one that fails.
func (n *Normalizer) Normalize(raw Raw) (Candidate, error) {
	name, err := n.name(raw.Name)
	if err != nil {
		return Candidate{}, err
	}
	email, err := n.email(raw.Email)
	if err != nil {
		return Candidate{}, err
	}
	display, digits, err := n.phone(raw.Phone)
	if err != nil {
		return Candidate{}, err
	}
	message, err := n.message(raw.Message)
	if err != nil {
		return Candidate{}, err
	}
	source, err := n.source(raw.Source, raw.ProjectID)
	if err != nil {
		return Candidate{}, err
	}

	var projectID *uuid.UUID
	if raw.ProjectID != nil {
		id := *raw.ProjectID
		projectID = &id
	}

	return Candidate{
		Name:        name,
		Email:       email,
		Phone:       display,
		PhoneDigits: digits,
		PhoneE164:   phone.NormalizeE164(display, n.region),
		Message:     message,
		Source:      source,
		ProjectID:   projectID,
	}, nil
}

func (n *Normalizer) name(raw string) (string, error) {
	name := sanitize.Line(raw)
	switch count := utf8.RuneCountInString(name); {
	case count == 0:
		return "", invalid("name", "is required")
	case count < minNameRunes:
		return "", invalid("name", "must be at least 2 characters")
	case count > maxNameRunes:
		return "", invalid("name", "is too long")
	}
	return name, nil
}

func (n *Normalizer) email(raw string) (string, error) {
	email := sanitize.FoldEmail(raw)
	if email == "" {
		return "", invalid("email", "is required")
	}
	if utf8.RuneCountInString(email) > maxEmailRunes || n.validate.Var(email, "email") != nil {
		return "", invalid("email", "is not a valid email address")
	}
	return email, nil
}

// phone returns the display form (whitespace collapsed) and the bare digits.
func (n *Normalizer) phone(raw string) (string, string, error) {
	display := strings.Join(strings.Fields(raw), " ")
	if display == "" {
		return "", "", invalid("phone", "is required")
	}
	if utf8.RuneCountInString(display) > maxPhoneRunes || n.validate.Var(display, "phonechars") != nil {
		return "", "", invalid("phone", "may only contain digits, spaces and + - ( )")
	}
	digits := phone.Digits(display)
	if len(digits) < minPhoneDigits {
		return "", "", invalid("phone", "must contain at least 8 digits")
	}
	return display, digits, nil
}

func (n *Normalizer) message(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	msg := sanitize.Text(*raw)
	if msg == "" {
		return nil, nil
	}
	switch count := utf8.RuneCountInString(msg); {
	case count < minMessageRunes:
		return nil, invalid("message", "must be at least 10 characters")
	case count > maxMessageRunes:
		return nil, invalid("message", "is too long")
	}
	return &msg, nil
}

func (n *Normalizer) source(src domain.Source, projectID *uuid.UUID) (domain.Source, error) {
	switch src {
	case "":
		if projectID != nil {
			return domain.SourceProject, nil
		}
		return domain.SourceGeneral, nil
	case domain.SourceProject:
		if projectID == nil {
			return "", invalid("project_id", "is required for project inquiries")
		}
		return src, nil
	case domain.SourceGeneral:
		if projectID != nil {
			return domain.SourceProject, nil
		}
		return src, nil
	default:
		return "", invalid("source", "is not a known source")
	}
}

func invalid(field, reason string) error {
	return &domain.ValidationError{Field: field, Reason: reason}
}
