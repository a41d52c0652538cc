package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// transition locks a ticket, fires event on it and persists the result as
// one unit of work. A missing ticket is reported as an invalid transition.
// When only is set the ticket must currently be in one of those statuses,
// even if the event could fire from others.
func (s *QueueService) transition(ctx context.Context, ticketID string, event domain.Event, actor string, only ...domain.Status) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.tickets.GetForUpdate(ctx, ticketID)
		if errors.Is(err, domain.ErrTicketNotFound) {
			return &domain.TransitionError{TicketID: ticketID, Event: event}
		}
		if err != nil {
			return fmt.Errorf("locking ticket: %w", err)
		}
		if len(only) > 0 && !slices.Contains(only, current.Status) {
			return &domain.TransitionError{TicketID: ticketID, Event: event, Current: current.Status}
		}

		ticket, err = s.apply(ctx, current, event, actor)
		return err
	})
	if err != nil {
		s.logFailure(ctx, "ticket "+string(event)+" failed", err, "ticket_id", ticketID)
		return domain.Ticket{}, err
	}

	s.committed(ctx, event, ticket)
	return ticket, nil
}

// apply validates event against the locked ticket, stamps it and writes it
// back conditionally on the status it was read with.
func (s *QueueService) apply(ctx context.Context, t domain.Ticket, event domain.Event, actor string) (domain.Ticket, error) {
	from := t.Status

	dst, err := s.validator.Apply(ctx, from, event)
	if err != nil {
		var trErr *domain.TransitionError
		if errors.As(err, &trErr) {
			trErr.TicketID = t.ID
		}
		return domain.Ticket{}, err
	}

	t.Stamp(event, dst, actor, notBefore(s.now(), t))

	if err := s.tickets.Update(ctx, t, from); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return domain.Ticket{}, &domain.TransitionError{TicketID: t.ID, Event: event}
		}
		return domain.Ticket{}, fmt.Errorf("updating ticket: %w", err)
	}
	return t, nil
}

// notBefore keeps lifecycle timestamps non-decreasing when the clock steps back.
func notBefore(at time.Time, t domain.Ticket) time.Time {
	latest := t.CreatedAt
	for _, ts := range []*time.Time{t.CalledAt, t.StartedAt, t.CompletedAt} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	if at.Before(latest) {
		return latest
	}
	return at
}
