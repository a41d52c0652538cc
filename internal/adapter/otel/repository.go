package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

const tracerName = "github.com/neomorfeo/queuedesk/internal/adapter/otel"

// TracingTicketRepository wraps a domain.TicketRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingTicketRepository struct {
	next   domain.TicketRepository
	tracer trace.Tracer
}

// Compile-time check: TracingTicketRepository implements domain.TicketRepository.
var _ domain.TicketRepository = (*TracingTicketRepository)(nil)

// NewTracingTicketRepository creates a tracing decorator around the given repository.
func NewTracingTicketRepository(next domain.TicketRepository) *TracingTicketRepository {
	return &TracingTicketRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingTicketRepository) Insert(ctx context.Context, ticket domain.Ticket) error {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.Insert",
		trace.WithAttributes(ticketAttributes(ticket)...),
	)
	defer span.End()

	err := r.next.Insert(ctx, ticket)
	recordError(span, err)
	return err
}

func (r *TracingTicketRepository) GetByID(ctx context.Context, id string) (domain.Ticket, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.GetByID",
		trace.WithAttributes(attribute.String("ticket.id", id)),
	)
	defer span.End()

	ticket, err := r.next.GetByID(ctx, id)
	recordError(span, err)
	return ticket, err
}

func (r *TracingTicketRepository) GetForUpdate(ctx context.Context, id string) (domain.Ticket, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.GetForUpdate",
		trace.WithAttributes(attribute.String("ticket.id", id)),
	)
	defer span.End()

	ticket, err := r.next.GetForUpdate(ctx, id)
	if err == nil {
		span.SetAttributes(attribute.String("ticket.status", string(ticket.Status)))
	}
	recordError(span, err)
	return ticket, err
}

func (r *TracingTicketRepository) OldestWaiting(ctx context.Context, serviceID string) (domain.Ticket, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.OldestWaiting",
		trace.WithAttributes(attribute.String("service.id", serviceID)),
	)
	defer span.End()

	ticket, err := r.next.OldestWaiting(ctx, serviceID)
	if err == nil {
		span.SetAttributes(
			attribute.String("ticket.id", ticket.ID),
			attribute.Int("ticket.number", ticket.Number),
		)
	}
	recordError(span, err)
	return ticket, err
}

func (r *TracingTicketRepository) LockSequence(ctx context.Context, serviceID string) error {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.LockSequence",
		trace.WithAttributes(attribute.String("service.id", serviceID)),
	)
	defer span.End()

	err := r.next.LockSequence(ctx, serviceID)
	recordError(span, err)
	return err
}

func (r *TracingTicketRepository) MaxNumber(ctx context.Context, serviceID string, day domain.Day) (int, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.MaxNumber",
		trace.WithAttributes(
			attribute.String("service.id", serviceID),
			attribute.String("service.day", day.String()),
		),
	)
	defer span.End()

	n, err := r.next.MaxNumber(ctx, serviceID, day)
	if err == nil {
		span.SetAttributes(attribute.Int("result.max_number", n))
	}
	recordError(span, err)
	return n, err
}

func (r *TracingTicketRepository) Update(ctx context.Context, ticket domain.Ticket, from domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.Update",
		trace.WithAttributes(
			attribute.String("ticket.id", ticket.ID),
			attribute.String("ticket.status.from", string(from)),
			attribute.String("ticket.status", string(ticket.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, ticket, from)
	recordError(span, err)
	return err
}

func (r *TracingTicketRepository) CountByStatus(ctx context.Context, serviceID string, day domain.Day) (domain.StatusCounts, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.CountByStatus",
		trace.WithAttributes(
			attribute.String("service.id", serviceID),
			attribute.String("service.day", day.String()),
		),
	)
	defer span.End()

	counts, err := r.next.CountByStatus(ctx, serviceID, day)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", counts.Total()))
	}
	recordError(span, err)
	return counts, err
}

func (r *TracingTicketRepository) CountAhead(ctx context.Context, ticket domain.Ticket) (int, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.CountAhead",
		trace.WithAttributes(
			attribute.String("ticket.id", ticket.ID),
			attribute.String("service.id", ticket.ServiceID),
		),
	)
	defer span.End()

	n, err := r.next.CountAhead(ctx, ticket)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", n))
	}
	recordError(span, err)
	return n, err
}

func (r *TracingTicketRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Ticket, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.List",
		trace.WithAttributes(attribute.Int("filter.limit", filter.Limit)),
	)
	defer span.End()

	if filter.ServiceID != "" {
		span.SetAttributes(attribute.String("service.id", filter.ServiceID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		span.SetAttributes(attribute.StringSlice("filter.statuses", statuses))
	}

	tickets, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(tickets)))
	}
	return tickets, err
}

func ticketAttributes(t domain.Ticket) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ticket.id", t.ID),
		attribute.String("service.id", t.ServiceID),
		attribute.Int("ticket.number", t.Number),
		attribute.String("ticket.status", string(t.Status)),
	}
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
