package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/neomorfeo/queuedesk/internal/adapter/fsm"
	"github.com/neomorfeo/queuedesk/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// A waiting ticket has to be called before service can start.
	_, err := v.Apply(ctx, domain.StatusWaiting, domain.EventStart)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventStart {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventStart)
	}
	if trErr.Current != domain.StatusWaiting {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusWaiting)
	}
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Error("expected error to wrap ErrInvalidTransition")
	}
}

func TestValidator_TerminalStatesAreFinal(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()
	events := []domain.Event{
		domain.EventCall,
		domain.EventStart,
		domain.EventComplete,
		domain.EventNoShow,
		domain.EventCancel,
	}

	for _, s := range domain.Statuses {
		if !s.Terminal() {
			continue
		}
		for _, e := range events {
			if _, err := v.Apply(ctx, s, e); !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("Apply(%q, %q) err = %v, want ErrInvalidTransition", s, e, err)
			}
		}
	}
}

func TestValidator_CancelFromEveryActiveState(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, s := range []domain.Status{domain.StatusWaiting, domain.StatusCalled, domain.StatusServing} {
		got, err := v.Apply(ctx, s, domain.EventCancel)
		if err != nil {
			t.Fatalf("Apply(%q, cancel) error: %v", s, err)
		}
		if got != domain.StatusCancelled {
			t.Errorf("Apply(%q, cancel) = %q, want %q", s, got, domain.StatusCancelled)
		}
	}
}

func TestValidator_FullLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.Status
		event domain.Event
		want  domain.Status
	}{
		{domain.StatusWaiting, domain.EventCall, domain.StatusCalled},
		{domain.StatusCalled, domain.EventStart, domain.StatusServing},
		{domain.StatusServing, domain.EventComplete, domain.StatusCompleted},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_UnknownEvent(t *testing.T) {
	v := adapter.New()

	_, err := v.Apply(context.Background(), domain.StatusWaiting, domain.EventCreate)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}
