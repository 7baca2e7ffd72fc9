package domain

import (
	"errors"
	"fmt"

	"property_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// ErrNoAgentAvailable is returned when no active agent can take a lead.
// Intake still persists the lead with status new.
var ErrNoAgentAvailable = noAgentError{}

// ErrStaleVersion matches every *StaleVersionError via errors.Is.
var ErrStaleVersion = errors.New("lead was modified by someone else")

type noAgentError struct{}

func (noAgentError) Error() string        { return "no active agent available" }
func (noAgentError) AppKind() apperr.Kind { return apperr.KindConflict }

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string        { return e.Field + ": " + e.Reason }
func (e *ValidationError) AppKind() apperr.Kind { return apperr.KindValidation }
func (e *ValidationError) AppDetails() interface{} {
	return map[string]string{"field": e.Field, "reason": e.Reason}
}

// NotFoundError reports a missing lead, agent or project.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string        { return e.Resource + " not found" }
func (e *NotFoundError) AppKind() apperr.Kind { return apperr.KindNotFound }

// InvalidTransitionError reports a status change the lifecycle forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move lead from %s to %s", e.From, e.To)
}
func (e *InvalidTransitionError) AppKind() apperr.Kind { return apperr.KindConflict }
func (e *InvalidTransitionError) AppDetails() interface{} {
	return map[string]string{"from": string(e.From), "to": string(e.To)}
}

// StaleVersionError reports an update based on an outdated lead version.
type StaleVersionError struct {
	LeadID   uuid.UUID
	Expected int64
	Actual   int64
}

func (e *StaleVersionError) Error() string        { return ErrStaleVersion.Error() }
func (e *StaleVersionError) Is(target error) bool { return target == ErrStaleVersion }
func (e *StaleVersionError) AppKind() apperr.Kind { return apperr.KindPreconditionFailed }
func (e *StaleVersionError) AppDetails() interface{} {
	return map[string]int64{"expectedVersion": e.Expected, "currentVersion": e.Actual}
}

// StorageError wraps a persistence failure. The message never exposes the
// underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string        { return "storage unavailable: " + e.Op }
func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) AppKind() apperr.Kind { return apperr.KindUnavailable }

// AgentUnavailableError reports an agent that is missing or inactive at the
// moment a lead would be handed to them.
type AgentUnavailableError struct {
	AgentID uuid.UUID
}

func (e *AgentUnavailableError) Error() string        { return "agent is not active" }
func (e *AgentUnavailableError) AppKind() apperr.Kind { return apperr.KindConflict }

// Storage wraps err in a StorageError unless it is nil or already carries a
// domain kind.
func Storage(op string, err error) error {
	if err == nil || apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
