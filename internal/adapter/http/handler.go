package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/queuedesk/internal/app"
	"github.com/neomorfeo/queuedesk/internal/domain"
)

// TicketResponse is the API representation of a ticket.
type TicketResponse struct {
	ID           string `json:"id" doc:"Unique identifier"`
	CitizenName  string `json:"citizen_name" doc:"Name of the citizen"`
	CitizenPhone string `json:"citizen_phone,omitempty" doc:"Contact phone"`
	ServiceID    string `json:"service_id" doc:"Service the ticket queues for"`
	Number       int    `json:"number" doc:"Daily sequence number within the service"`
	Day          string `json:"day" doc:"Calendar day the number belongs to"`
	Status       string `json:"status" doc:"Lifecycle state"`
	CreatedAt    string `json:"created_at" doc:"Creation timestamp (RFC 3339)"`
	CalledAt     string `json:"called_at,omitempty" doc:"When the ticket was called"`
	StartedAt    string `json:"started_at,omitempty" doc:"When service began"`
	CompletedAt  string `json:"completed_at,omitempty" doc:"When service finished"`
	CalledBy     string `json:"called_by,omitempty" doc:"Officer who called the ticket"`
	ServedBy     string `json:"served_by,omitempty" doc:"Officer who served the ticket"`
}

func toTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		CitizenName:  t.CitizenName,
		CitizenPhone: t.CitizenPhone,
		ServiceID:    t.ServiceID,
		Number:       t.Number,
		Day:          t.Day.String(),
		Status:       string(t.Status),
		CreatedAt:    formatTime(&t.CreatedAt),
		CalledAt:     formatTime(t.CalledAt),
		StartedAt:    formatTime(t.StartedAt),
		CompletedAt:  formatTime(t.CompletedAt),
		CalledBy:     t.CalledBy,
		ServedBy:     t.ServedBy,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toCounts(c domain.StatusCounts) map[string]int {
	out := make(map[string]int, len(c))
	for st, n := range c {
		out[string(st)] = n
	}
	return out
}

// --- Create Ticket ---

type CreateTicketInput struct {
	ActorHeaders
	Body struct {
		CitizenName  string `json:"citizen_name" minLength:"1" maxLength:"200" doc:"Name of the citizen"`
		CitizenPhone string `json:"citizen_phone,omitempty" maxLength:"50" doc:"Contact phone"`
		ServiceID    string `json:"service_id" minLength:"1" doc:"Service to queue for"`
	}
}

type TicketOutput struct {
	Body TicketResponse
}

// --- Ticket by ID ---

type TicketIDInput struct {
	ActorHeaders
	ID string `path:"id" doc:"Ticket ID"`
}

type TicketStatusResponse struct {
	Ticket               TicketResponse `json:"ticket"`
	TicketsAhead         int            `json:"tickets_ahead" doc:"Waiting or called tickets created earlier"`
	EstimatedWaitMinutes int            `json:"estimated_wait_minutes" doc:"Flat estimate of the remaining wait"`
}

type TicketStatusOutput struct {
	Body TicketStatusResponse
}

// --- Service queue ---

type ServiceIDInput struct {
	ActorHeaders
	ID string `path:"id" doc:"Service ID"`
}

type SnapshotInput struct {
	ActorHeaders
	ID  string `path:"id" doc:"Service ID"`
	Day string `query:"day" doc:"Calendar day as YYYY-MM-DD; today when empty"`
}

type SnapshotResponse struct {
	ServiceID string         `json:"service_id"`
	Day       string         `json:"day"`
	Counts    map[string]int `json:"counts" doc:"Tickets issued that day per status"`
}

type SnapshotOutput struct {
	Body SnapshotResponse
}

type WaitingOutput struct {
	Body []TicketResponse
}

// --- Office ---

type OfficeIDInput struct {
	ActorHeaders
	ID string `path:"id" doc:"Office ID"`
}

type ServiceSnapshotResponse struct {
	ServiceID string         `json:"service_id"`
	Name      string         `json:"name"`
	Counts    map[string]int `json:"counts"`
}

type OfficeSnapshotResponse struct {
	OfficeID string                    `json:"office_id"`
	Name     string                    `json:"name"`
	Services []ServiceSnapshotResponse `json:"services" doc:"Services with tickets today"`
}

type OfficeSnapshotOutput struct {
	Body OfficeSnapshotResponse
}

type handler struct {
	svc  *app.QueueService
	auth authorizer
}

// ticketAction authorizes a staff action on an existing ticket, then runs op.
func (h handler) ticketAction(ctx context.Context, in *TicketIDInput, op func(context.Context, Actor, string) (domain.Ticket, error)) (*TicketOutput, error) {
	actor, err := in.Actor()
	if err != nil {
		return nil, err
	}

	ticket, err := h.svc.GetTicket(ctx, in.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	if err := h.auth.staff(ctx, actor, ticket.ServiceID); err != nil {
		return nil, toHumaError(err)
	}

	ticket, err = op(ctx, actor, in.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &TicketOutput{Body: toTicketResponse(ticket)}, nil
}

// Register adds all queue API routes to the Huma API. The directory is
// used to authorize callers before any queue operation runs.
func Register(api huma.API, svc *app.QueueService, directory domain.Directory) {
	h := handler{svc: svc, auth: authorizer{directory: directory}}

	huma.Register(api, huma.Operation{
		OperationID:   "create-ticket",
		Method:        http.MethodPost,
		Path:          "/api/v1/tickets",
		Summary:       "Take a ticket for a service",
		Tags:          []string{"Tickets"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTicketInput) (*TicketOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}
		if err := h.auth.anyone(ctx, actor, input.Body.ServiceID); err != nil {
			return nil, toHumaError(err)
		}

		ticket, err := svc.CreateTicket(ctx, app.CreateTicketInput{
			CitizenName:  input.Body.CitizenName,
			CitizenPhone: input.Body.CitizenPhone,
			ServiceID:    input.Body.ServiceID,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TicketOutput{Body: toTicketResponse(ticket)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-ticket",
		Method:      http.MethodGet,
		Path:        "/api/v1/tickets/{id}",
		Summary:     "Get a ticket by ID",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *TicketIDInput) (*TicketOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}

		ticket, err := svc.GetTicket(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		if err := h.auth.anyone(ctx, actor, ticket.ServiceID); err != nil {
			return nil, toHumaError(err)
		}
		return &TicketOutput{Body: toTicketResponse(ticket)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-ticket-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/tickets/{id}/status",
		Summary:     "Get a ticket with its estimated wait",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *TicketIDInput) (*TicketStatusOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}

		view, err := svc.TicketStatus(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		if err := h.auth.anyone(ctx, actor, view.Ticket.ServiceID); err != nil {
			return nil, toHumaError(err)
		}
		return &TicketStatusOutput{Body: TicketStatusResponse{
			Ticket:               toTicketResponse(view.Ticket),
			TicketsAhead:         view.TicketsAhead,
			EstimatedWaitMinutes: int(view.EstimatedWait / time.Minute),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-service",
		Method:      http.MethodPost,
		Path:        "/api/v1/tickets/{id}/start",
		Summary:     "Start serving a called ticket",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *TicketIDInput) (*TicketOutput, error) {
		return h.ticketAction(ctx, input, func(ctx context.Context, actor Actor, id string) (domain.Ticket, error) {
			return svc.StartService(ctx, id, actor.Name)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-service",
		Method:      http.MethodPost,
		Path:        "/api/v1/tickets/{id}/complete",
		Summary:     "Finish serving a ticket",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *TicketIDInput) (*TicketOutput, error) {
		return h.ticketAction(ctx, input, func(ctx context.Context, _ Actor, id string) (domain.Ticket, error) {
			return svc.CompleteService(ctx, id)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-no-show",
		Method:      http.MethodPost,
		Path:        "/api/v1/tickets/{id}/no-show",
		Summary:     "Close a called ticket whose citizen did not appear",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *TicketIDInput) (*TicketOutput, error) {
		return h.ticketAction(ctx, input, func(ctx context.Context, _ Actor, id string) (domain.Ticket, error) {
			return svc.MarkNoShow(ctx, id)
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-ticket",
		Method:      http.MethodPost,
		Path:        "/api/v1/tickets/{id}/cancel",
		Summary:     "Cancel a ticket",
		Description: "Citizens can only cancel tickets that are still waiting.",
		Tags:        []string{"Tickets"},
	}, func(ctx context.Context, input *TicketIDInput) (*TicketOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}
		if actor.Role != RoleCitizen {
			return h.ticketAction(ctx, input, func(ctx context.Context, _ Actor, id string) (domain.Ticket, error) {
				return svc.CancelTicket(ctx, id)
			})
		}

		ticket, err := svc.GetTicket(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		if ticket.Status != domain.StatusWaiting {
			return nil, toHumaError(forbidden("citizens can only cancel waiting tickets"))
		}

		ticket, err = svc.WithdrawTicket(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TicketOutput{Body: toTicketResponse(ticket)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "call-next",
		Method:      http.MethodPost,
		Path:        "/api/v1/services/{id}/call-next",
		Summary:     "Call the longest-waiting ticket of a service",
		Tags:        []string{"Services"},
	}, func(ctx context.Context, input *ServiceIDInput) (*TicketOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}
		if err := h.auth.staff(ctx, actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}

		ticket, err := svc.CallNext(ctx, input.ID, actor.Name)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TicketOutput{Body: toTicketResponse(ticket)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "service-snapshot",
		Method:      http.MethodGet,
		Path:        "/api/v1/services/{id}/snapshot",
		Summary:     "Count a service's tickets per status for one day",
		Tags:        []string{"Services"},
	}, func(ctx context.Context, input *SnapshotInput) (*SnapshotOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}
		if err := h.auth.staff(ctx, actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}

		day := svc.Today()
		if input.Day != "" {
			if day, err = domain.ParseDay(input.Day); err != nil {
				return nil, toHumaError(&domain.ValidationError{Field: "day", Message: "must be YYYY-MM-DD"})
			}
		}

		counts, err := svc.ServiceDaySnapshot(ctx, input.ID, day)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SnapshotOutput{Body: SnapshotResponse{ServiceID: input.ID, Day: day.String(), Counts: toCounts(counts)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-waiting",
		Method:      http.MethodGet,
		Path:        "/api/v1/services/{id}/waiting",
		Summary:     "List waiting tickets in call order",
		Tags:        []string{"Services"},
	}, func(ctx context.Context, input *ServiceIDInput) (*WaitingOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}
		if err := h.auth.staff(ctx, actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}

		tickets, err := svc.WaitingTickets(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TicketResponse, len(tickets))
		for i, t := range tickets {
			resp[i] = toTicketResponse(t)
		}
		return &WaitingOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "office-snapshot",
		Method:      http.MethodGet,
		Path:        "/api/v1/offices/{id}/snapshot",
		Summary:     "Count today's tickets per service of an office",
		Tags:        []string{"Offices"},
	}, func(ctx context.Context, input *OfficeIDInput) (*OfficeSnapshotOutput, error) {
		actor, err := input.Actor()
		if err != nil {
			return nil, err
		}
		if err := h.auth.office(actor, input.ID); err != nil {
			return nil, toHumaError(err)
		}

		snapshot, err := svc.OfficeSnapshot(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := OfficeSnapshotResponse{
			OfficeID: snapshot.Office.ID,
			Name:     snapshot.Office.Name,
			Services: make([]ServiceSnapshotResponse, 0, len(snapshot.Services)),
		}
		for _, s := range snapshot.Services {
			resp.Services = append(resp.Services, ServiceSnapshotResponse{
				ServiceID: s.Service.ID,
				Name:      s.Service.Name,
				Counts:    toCounts(s.Counts),
			})
		}
		return &OfficeSnapshotOutput{Body: resp}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	var fbErr *forbiddenError
	if errors.As(err, &fbErr) {
		return huma.Error403Forbidden(fbErr.reason)
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		return huma.Error404NotFound("ticket not found")
	case errors.Is(err, domain.ErrEmptyQueue):
		return huma.Error404NotFound("no ticket is waiting")
	case errors.Is(err, domain.ErrServiceUnavailable):
		return huma.Error409Conflict("service is not available")
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInvalidTransition):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrContention):
		return huma.ErrorWithHeaders(
			huma.Error503ServiceUnavailable("queue is busy, retry shortly"),
			http.Header{"Retry-After": []string{"1"}},
		)
	}

	return huma.Error500InternalServerError("internal server error")
}
