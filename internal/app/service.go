package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// Options tunes a QueueService. Zero values fall back to the defaults.
type Options struct {
	// Location decides which calendar day a ticket belongs to.
	Location *time.Location

	DailyCapacity    int
	MinutesPerTicket int

	Logger *slog.Logger

	// Now replaces the wall clock in tests.
	Now func() time.Time
}

// QueueService orchestrates ticket issuing and lifecycle operations.
// Every mutation runs as one unit of work through the TxRunner; events are
// published only after that unit has committed.
type QueueService struct {
	tickets   domain.TicketRepository
	directory domain.Directory
	tx        domain.TxRunner
	validator domain.TransitionValidator
	publisher domain.EventPublisher
	sequencer *Sequencer

	loc              *time.Location
	minutesPerTicket int
	logger           *slog.Logger
	now              func() time.Time
}

// NewQueueService creates a service with the given adapters.
func NewQueueService(
	tickets domain.TicketRepository,
	directory domain.Directory,
	tx domain.TxRunner,
	validator domain.TransitionValidator,
	publisher domain.EventPublisher,
	opts Options,
) *QueueService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MinutesPerTicket <= 0 {
		opts.MinutesPerTicket = domain.MinutesPerTicket
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &QueueService{
		tickets:          tickets,
		directory:        directory,
		tx:               tx,
		validator:        validator,
		publisher:        publisher,
		sequencer:        NewSequencer(tickets, opts.DailyCapacity),
		loc:              opts.Location,
		minutesPerTicket: opts.MinutesPerTicket,
		logger:           opts.Logger,
		now:              opts.Now,
	}
}

// CreateTicketInput carries what a citizen provides when joining a queue.
type CreateTicketInput struct {
	CitizenName  string
	CitizenPhone string
	ServiceID    string
}

// CreateTicket issues the next number of the service's daily sequence and
// persists a waiting ticket with it.
func (s *QueueService) CreateTicket(ctx context.Context, in CreateTicketInput) (domain.Ticket, error) {
	name := strings.TrimSpace(in.CitizenName)
	if name == "" {
		return domain.Ticket{}, &domain.ValidationError{Field: "citizen_name", Message: "must not be empty"}
	}

	if _, _, err := s.directory.ActiveService(ctx, in.ServiceID); err != nil {
		return domain.Ticket{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("generating ticket id: %w", err)
	}

	var ticket domain.Ticket
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.sequencer.Lock(ctx, in.ServiceID); err != nil {
			return err
		}
		// Under the lock, so creation order matches number order.
		createdAt := s.now().In(s.loc)
		day := domain.DayOf(createdAt)

		number, err := s.sequencer.Next(ctx, in.ServiceID, day)
		if err != nil {
			return err
		}

		ticket = domain.NewTicket(id, name, strings.TrimSpace(in.CitizenPhone), in.ServiceID, number, createdAt)
		if err := s.tickets.Insert(ctx, ticket); err != nil {
			return fmt.Errorf("creating ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "create ticket failed", err, "service_id", in.ServiceID)
		return domain.Ticket{}, err
	}

	s.committed(ctx, domain.EventCreate, ticket)
	return ticket, nil
}

// CallNext moves the longest-waiting ticket of the service to called.
func (s *QueueService) CallNext(ctx context.Context, serviceID, officer string) (domain.Ticket, error) {
	if _, _, err := s.directory.ActiveService(ctx, serviceID); err != nil {
		return domain.Ticket{}, err
	}

	var ticket domain.Ticket
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		next, err := s.tickets.OldestWaiting(ctx, serviceID)
		if errors.Is(err, domain.ErrTicketNotFound) {
			return fmt.Errorf("service %q: %w", serviceID, domain.ErrEmptyQueue)
		}
		if err != nil {
			return fmt.Errorf("selecting next ticket: %w", err)
		}

		ticket, err = s.apply(ctx, next, domain.EventCall, officer)
		return err
	})
	if err != nil {
		s.logFailure(ctx, "call next failed", err, "service_id", serviceID)
		return domain.Ticket{}, err
	}

	s.committed(ctx, domain.EventCall, ticket)
	return ticket, nil
}

// StartService begins serving a called ticket.
func (s *QueueService) StartService(ctx context.Context, ticketID, officer string) (domain.Ticket, error) {
	return s.transition(ctx, ticketID, domain.EventStart, officer)
}

// CompleteService finishes a ticket being served.
func (s *QueueService) CompleteService(ctx context.Context, ticketID string) (domain.Ticket, error) {
	return s.transition(ctx, ticketID, domain.EventComplete, "")
}

// MarkNoShow closes a called ticket whose citizen did not turn up.
func (s *QueueService) MarkNoShow(ctx context.Context, ticketID string) (domain.Ticket, error) {
	return s.transition(ctx, ticketID, domain.EventNoShow, "")
}

// CancelTicket withdraws a waiting, called or serving ticket.
func (s *QueueService) CancelTicket(ctx context.Context, ticketID string) (domain.Ticket, error) {
	return s.transition(ctx, ticketID, domain.EventCancel, "")
}

// WithdrawTicket cancels a ticket only while it is still waiting.
// Citizens leave a queue this way; a called or serving ticket stays put.
func (s *QueueService) WithdrawTicket(ctx context.Context, ticketID string) (domain.Ticket, error) {
	return s.transition(ctx, ticketID, domain.EventCancel, "", domain.StatusWaiting)
}

// GetTicket returns a ticket by id, or domain.ErrTicketNotFound.
func (s *QueueService) GetTicket(ctx context.Context, ticketID string) (domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// ServiceQueueSnapshot counts today's tickets of a service per status.
func (s *QueueService) ServiceQueueSnapshot(ctx context.Context, serviceID string) (domain.StatusCounts, error) {
	return s.ServiceDaySnapshot(ctx, serviceID, s.Today())
}

// ServiceDaySnapshot counts the tickets a service issued on day per status.
// Every status is present in the result, zero when unused.
func (s *QueueService) ServiceDaySnapshot(ctx context.Context, serviceID string, day domain.Day) (domain.StatusCounts, error) {
	counts, err := s.tickets.CountByStatus(ctx, serviceID, day)
	if err != nil {
		return nil, fmt.Errorf("counting tickets: %w", err)
	}

	out := make(domain.StatusCounts, len(domain.Statuses))
	for _, st := range domain.Statuses {
		out[st] = counts[st]
	}
	return out, nil
}

// OfficeSnapshot returns today's counts for every active service of an
// office that has issued at least one ticket today.
func (s *QueueService) OfficeSnapshot(ctx context.Context, officeID string) (domain.OfficeSnapshot, error) {
	office, err := s.directory.ActiveOffice(ctx, officeID)
	if err != nil {
		return domain.OfficeSnapshot{}, err
	}

	services, err := s.directory.ServicesOf(ctx, officeID)
	if err != nil {
		return domain.OfficeSnapshot{}, fmt.Errorf("listing services: %w", err)
	}

	snapshot := domain.OfficeSnapshot{Office: office}
	for _, svc := range services {
		counts, err := s.ServiceQueueSnapshot(ctx, svc.ID)
		if err != nil {
			return domain.OfficeSnapshot{}, err
		}
		if counts.Total() == 0 {
			continue
		}
		snapshot.Services = append(snapshot.Services, domain.ServiceSnapshot{Service: svc, Counts: counts})
	}
	return snapshot, nil
}

// WaitingTickets lists the waiting tickets of a service in call order.
func (s *QueueService) WaitingTickets(ctx context.Context, serviceID string) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, domain.ListFilter{
		ServiceID: serviceID,
		Statuses:  []domain.Status{domain.StatusWaiting},
	})
}

// Today is the current calendar day in the queue's time zone.
func (s *QueueService) Today() domain.Day {
	return domain.DayOf(s.now().In(s.loc))
}

// committed logs and publishes a mutation that is already durable.
// A publish failure cannot undo it, so it is only logged.
func (s *QueueService) committed(ctx context.Context, event domain.Event, ticket domain.Ticket) {
	s.logger.InfoContext(ctx, "ticket "+string(event),
		"ticket_id", ticket.ID,
		"service_id", ticket.ServiceID,
		"number", ticket.Number,
		"status", string(ticket.Status),
	)

	if err := s.publisher.Publish(ctx, event, ticket); err != nil {
		s.logger.ErrorContext(ctx, "publishing ticket event",
			"event", string(event),
			"ticket_id", ticket.ID,
			"error", err,
		)
	}
}

func (s *QueueService) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	level := slog.LevelDebug
	if errors.Is(err, domain.ErrContention) {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, msg, append(attrs, "error", err)...)
}
