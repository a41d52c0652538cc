package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// Sequencer hands out daily ticket numbers per service.
//
// Lock and Next must share the transaction of the insert that uses the
// number. Lock holds off other allocators for the service until it ends.
type Sequencer struct {
	tickets  domain.TicketRepository
	capacity int
}

func NewSequencer(tickets domain.TicketRepository, capacity int) *Sequencer {
	if capacity <= 0 || capacity > domain.MaxDailyNumber {
		capacity = domain.MaxDailyNumber
	}
	return &Sequencer{tickets: tickets, capacity: capacity}
}

// Lock serializes allocation for serviceID within the current transaction.
func (s *Sequencer) Lock(ctx context.Context, serviceID string) error {
	if err := s.tickets.LockSequence(ctx, serviceID); err != nil {
		return fmt.Errorf("locking sequence: %w", err)
	}
	return nil
}

// Next returns the next number in [1, capacity] for the service on day.
func (s *Sequencer) Next(ctx context.Context, serviceID string, day domain.Day) (int, error) {
	current, err := s.tickets.MaxNumber(ctx, serviceID, day)
	if err != nil {
		return 0, fmt.Errorf("reading current number: %w", err)
	}
	if current >= s.capacity {
		return 0, &domain.CapacityError{ServiceID: serviceID, Day: day, Limit: s.capacity}
	}
	return current + 1, nil
}
