package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// TicketView is a ticket together with its point-in-time wait estimate.
type TicketView struct {
	Ticket        domain.Ticket
	TicketsAhead  int
	EstimatedWait time.Duration
}

// EstimateWait counts the waiting or called tickets of the same service
// created before t and multiplies by the flat per-ticket service time.
// Tickets in a terminal state have nothing left to wait for.
func (s *QueueService) EstimateWait(ctx context.Context, t domain.Ticket) (int, time.Duration, error) {
	if !t.Status.Active() {
		return 0, 0, nil
	}

	ahead, err := s.tickets.CountAhead(ctx, t)
	if err != nil {
		return 0, 0, fmt.Errorf("counting tickets ahead: %w", err)
	}
	return ahead, time.Duration(ahead*s.minutesPerTicket) * time.Minute, nil
}

// TicketStatus returns a ticket with its estimated wait.
func (s *QueueService) TicketStatus(ctx context.Context, ticketID string) (TicketView, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return TicketView{}, err
	}

	ahead, wait, err := s.EstimateWait(ctx, ticket)
	if err != nil {
		return TicketView{}, err
	}
	return TicketView{Ticket: ticket, TicketsAhead: ahead, EstimatedWait: wait}, nil
}
