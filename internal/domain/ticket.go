package domain

import "time"

// Status represents the lifecycle state of a ticket.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCalled    Status = "called"
	StatusServing   Status = "serving"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every ticket status in lifecycle order.
var Statuses = []Status{
	StatusWaiting,
	StatusCalled,
	StatusServing,
	StatusCompleted,
	StatusNoShow,
	StatusCancelled,
}

// Active reports whether a ticket in this status can still move.
func (s Status) Active() bool {
	return s == StatusWaiting || s == StatusCalled || s == StatusServing
}

// Terminal reports whether the status has no outgoing transition.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow || s == StatusCancelled
}

// Event represents an action that triggers a ticket state transition.
type Event string

const (
	EventCall     Event = "call"
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventNoShow   Event = "no_show"
	EventCancel   Event = "cancel"

	// EventCreate is published for new tickets. It is not a transition.
	EventCreate Event = "create"
)

// Transition defines a valid state change: an event moves a ticket from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the ticket lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventCall, Src: StatusWaiting, Dst: StatusCalled},
	{Event: EventStart, Src: StatusCalled, Dst: StatusServing},
	{Event: EventComplete, Src: StatusServing, Dst: StatusCompleted},
	{Event: EventNoShow, Src: StatusCalled, Dst: StatusNoShow},
	{Event: EventCancel, Src: StatusWaiting, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusCalled, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusServing, Dst: StatusCancelled},
}

// SourcesOf returns the statuses from which event may fire.
func SourcesOf(event Event) []Status {
	var out []Status
	for _, t := range Transitions {
		if t.Event == event {
			out = append(out, t.Src)
		}
	}
	return out
}

const (
	// MaxDailyNumber bounds the tickets a service can issue in one day.
	MaxDailyNumber = 999

	// MinutesPerTicket is the flat service time used for wait estimates.
	MinutesPerTicket = 15
)

// Ticket is one citizen's queued request for a service.
type Ticket struct {
	ID           string
	CitizenName  string
	CitizenPhone string
	ServiceID    string
	Number       int
	Day          Day
	Status       Status
	CreatedAt    time.Time
	CalledAt     *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CalledBy     string
	ServedBy     string
}

// NewTicket creates a ticket in the initial "waiting" state.
func NewTicket(id, citizenName, citizenPhone, serviceID string, number int, createdAt time.Time) Ticket {
	return Ticket{
		ID:           id,
		CitizenName:  citizenName,
		CitizenPhone: citizenPhone,
		ServiceID:    serviceID,
		Number:       number,
		Day:          DayOf(createdAt),
		Status:       StatusWaiting,
		CreatedAt:    createdAt,
	}
}

// Stamp records the side effects of moving the ticket to dst at the given
// time: the matching timestamp and the acting officer, where applicable.
func (t *Ticket) Stamp(event Event, dst Status, actor string, at time.Time) {
	t.Status = dst
	switch event {
	case EventCall:
		t.CalledAt = &at
		t.CalledBy = actor
	case EventStart:
		t.StartedAt = &at
		t.ServedBy = actor
	case EventComplete:
		t.CompletedAt = &at
	}
}

// StatusCounts maps each status to the number of tickets in it.
type StatusCounts map[Status]int

// Total returns the number of tickets across all statuses.
func (c StatusCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
