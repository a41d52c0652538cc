package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// TicketEventsMetric counts ticket lifecycle events handed to the publisher,
// labelled by event type, service and outcome.
const TicketEventsMetric = "queuedesk.ticket.events"

var _ domain.EventPublisher = (*TracingPublisher)(nil)

// TracingPublisher traces and counts every ticket event on its way out.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
	events metric.Int64Counter
}

func NewTracingPublisher(next domain.EventPublisher) (*TracingPublisher, error) {
	events, err := otel.Meter(tracerName).Int64Counter(TicketEventsMetric,
		metric.WithDescription("Ticket lifecycle events published after commit"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", TicketEventsMetric, err)
	}

	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
		events: events,
	}, nil
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event, ticket domain.Ticket) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			append(ticketAttributes(ticket), attribute.String("event.type", string(event)))...,
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event, ticket)
	recordError(span, err)

	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	p.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", string(event)),
		attribute.String("service.id", ticket.ServiceID),
		attribute.String("outcome", outcome),
	))
	return err
}
