// Package domain provides core business rules for the leads bounded context.
package domain

import "slices"

// Status is a lead's lifecycle state.
type Status string

const (
	StatusNew       Status = "new"
	StatusAssigned  Status = "assigned"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusNew, StatusAssigned, StatusContacted, StatusConverted, StatusLost}

// transitions holds the allowed status edges. Everything not listed,
// including any edge out of converted or lost, is rejected.
var transitions = map[Status][]Status{
	StatusNew:       {StatusAssigned},
	StatusAssigned:  {StatusContacted, StatusLost},
	StatusContacted: {StatusConverted, StatusLost},
}

// ParseStatus returns the Status for s, or false if s is not a known status.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, slices.Contains(AllStatuses, st)
}

// CanTransition reports whether from -> to is an allowed edge.
// A same-status move is not an edge; callers treat it as a no-op.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// CheckTransition returns nil when from -> to is allowed or when from == to,
// otherwise an InvalidTransitionError.
func CheckTransition(from, to Status) error {
	if from == to || CanTransition(from, to) {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusConverted || s == StatusLost
}

// IsOpen reports whether a lead in this status counts toward its agent's load.
func (s Status) IsOpen() bool {
	return s == StatusAssigned || s == StatusContacted
}

func (s Status) String() string { return string(s) }
