package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrEmptyQueue         = errors.New("no citizens waiting in queue")
	ErrCapacityExceeded   = errors.New("daily ticket capacity reached")
	ErrInvalidTransition  = errors.New("invalid ticket transition")
	ErrContention         = errors.New("ticket store contention")
	ErrValidation         = errors.New("validation failed")
)

// TransitionError is returned when a ticket is missing or not in a state
// from which the event may fire. Current is empty when the ticket could not
// be found; callers that need to tell the two apart must read the ticket.
type TransitionError struct {
	TicketID string
	Event    Event
	Current  Status
}

func (e *TransitionError) Error() string {
	if e.Current == "" {
		return fmt.Sprintf("ticket %q not found in a state that allows %q", e.TicketID, e.Event)
	}
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// CapacityError is returned when a service has issued every number for the day.
type CapacityError struct {
	ServiceID string
	Day       Day
	Limit     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("service %q reached %d tickets on %s", e.ServiceID, e.Limit, e.Day)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
