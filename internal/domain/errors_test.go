package domain_test

import (
	"errors"
	"testing"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		TicketID: "t-1",
		Event:    domain.EventComplete,
		Current:  domain.StatusCalled,
	}
	want := `event "complete" is not valid from state "called"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransitionError_MissingTicket(t *testing.T) {
	err := &domain.TransitionError{TicketID: "t-9", Event: domain.EventStart}
	want := `ticket "t-9" not found in a state that allows "start"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransitionError_Unwrap(t *testing.T) {
	var err error = &domain.TransitionError{TicketID: "t-1", Event: domain.EventCancel}
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("errors.Is(%v, ErrInvalidTransition) = false", err)
	}
}

func TestCapacityError(t *testing.T) {
	var err error = &domain.CapacityError{ServiceID: "svc-1", Day: "2026-10-18", Limit: 999}
	want := `service "svc-1" reached 999 tickets on 2026-10-18`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Error("CapacityError should unwrap to ErrCapacityExceeded")
	}
}

func TestValidationError(t *testing.T) {
	var err error = &domain.ValidationError{Field: "citizen_name", Message: "must not be empty"}
	if got, want := err.Error(), "validation: citizen_name: must not be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Error("ValidationError should unwrap to ErrValidation")
	}
}
