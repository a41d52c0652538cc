package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a ticket event to the worker. River serializes it as
// JSON into its job table; the snapshot spares the worker a database read.
type EventJobArgs struct {
	Event        string `json:"event"`
	TicketID     string `json:"ticket_id"`
	ServiceID    string `json:"service_id"`
	Number       int    `json:"number"`
	Status       string `json:"status"`
	CitizenName  string `json:"citizen_name"`
	CitizenPhone string `json:"citizen_phone,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "ticket.event" }

// Client is the River client type over database/sql, shared by the sqlite
// and postgres drivers.
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a ticket event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, ticket domain.Ticket) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Event:        string(event),
		TicketID:     ticket.ID,
		ServiceID:    ticket.ServiceID,
		Number:       ticket.Number,
		Status:       string(ticket.Status),
		CitizenName:  ticket.CitizenName,
		CitizenPhone: ticket.CitizenPhone,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
