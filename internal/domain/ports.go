package domain

import (
	"context"
	"time"
)

// TicketRepository defines the persistence contract for tickets.
// Methods join the transaction carried by ctx when there is one.
type TicketRepository interface {
	Insert(ctx context.Context, ticket Ticket) error
	GetByID(ctx context.Context, id string) (Ticket, error)

	// GetForUpdate reads a ticket and holds an exclusive lock on it until
	// the enclosing transaction ends.
	GetForUpdate(ctx context.Context, id string) (Ticket, error)

	// OldestWaiting locks and returns the earliest created waiting ticket of
	// a service. Returns ErrTicketNotFound when none is waiting.
	OldestWaiting(ctx context.Context, serviceID string) (Ticket, error)

	// LockSequence serializes number allocation for a service until the
	// enclosing transaction ends. Allocators take it before reading the
	// clock, so creation times follow number order.
	LockSequence(ctx context.Context, serviceID string) error

	// MaxNumber returns the highest number issued for the service on day, or 0.
	// Only meaningful after LockSequence in the same transaction.
	MaxNumber(ctx context.Context, serviceID string, day Day) (int, error)

	// Update persists a transition. It only applies while the stored status
	// still equals from; otherwise it returns ErrInvalidTransition.
	Update(ctx context.Context, ticket Ticket, from Status) error

	CountByStatus(ctx context.Context, serviceID string, day Day) (StatusCounts, error)

	// CountAhead counts waiting or called tickets of the same service created
	// strictly before the given ticket.
	CountAhead(ctx context.Context, ticket Ticket) (int, error)

	List(ctx context.Context, filter ListFilter) ([]Ticket, error)
}

// ListFilter holds optional criteria for listing tickets.
type ListFilter struct {
	ServiceID    string
	Statuses     []Status
	Day          Day
	CalledBefore time.Time
	Limit        int
}

// Directory is the read-only view of offices and services.
type Directory interface {
	// ActiveService returns an active service together with its office.
	// It fails with ErrServiceUnavailable when either is missing or inactive.
	ActiveService(ctx context.Context, id string) (Service, Office, error)

	// Service returns a service whatever its or its office's active flags.
	// A missing service fails with ErrServiceUnavailable.
	Service(ctx context.Context, id string) (Service, error)

	// ActiveOffice fails with ErrServiceUnavailable when the office is
	// missing or inactive.
	ActiveOffice(ctx context.Context, id string) (Office, error)

	// ServicesOf lists the active services of an office.
	ServicesOf(ctx context.Context, officeID string) ([]Service, error)
}

// TxRunner runs fn as a single atomic unit of work against the ticket store.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransitionValidator resolves the destination status of an event.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, ticket Ticket) error
}
