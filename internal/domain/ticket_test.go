package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

func TestNewTicket(t *testing.T) {
	created := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	ticket := domain.NewTicket("id-1", "Ana Silva", "555-0101", "svc-1", 7, created)

	if ticket.ID != "id-1" {
		t.Errorf("ID = %q, want %q", ticket.ID, "id-1")
	}
	if ticket.CitizenName != "Ana Silva" {
		t.Errorf("CitizenName = %q, want %q", ticket.CitizenName, "Ana Silva")
	}
	if ticket.Number != 7 {
		t.Errorf("Number = %d, want 7", ticket.Number)
	}
	if ticket.Status != domain.StatusWaiting {
		t.Errorf("Status = %q, want %q", ticket.Status, domain.StatusWaiting)
	}
	if ticket.Day != "2026-10-18" {
		t.Errorf("Day = %q, want %q", ticket.Day, "2026-10-18")
	}
	if ticket.CalledAt != nil || ticket.StartedAt != nil || ticket.CompletedAt != nil {
		t.Error("lifecycle timestamps should be nil on a new ticket")
	}
}

func TestDayOf_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 02:00 UTC on the 19th is still the 18th five hours west.
	at := time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC).In(loc)
	if got := domain.DayOf(at); got != "2026-10-18" {
		t.Errorf("DayOf = %q, want %q", got, "2026-10-18")
	}
}

func TestParseDay(t *testing.T) {
	if _, err := domain.ParseDay("2026-10-18"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := domain.ParseDay("18/10/2026"); err == nil {
		t.Error("expected error for malformed day")
	}
}

func TestStamp(t *testing.T) {
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	ticket := domain.NewTicket("id-1", "Ana", "", "svc-1", 1, at.Add(-time.Hour))

	ticket.Stamp(domain.EventCall, domain.StatusCalled, "Officer Reyes", at)
	if ticket.CalledAt == nil || !ticket.CalledAt.Equal(at) {
		t.Errorf("CalledAt = %v, want %v", ticket.CalledAt, at)
	}
	if ticket.CalledBy != "Officer Reyes" {
		t.Errorf("CalledBy = %q", ticket.CalledBy)
	}

	ticket.Stamp(domain.EventStart, domain.StatusServing, "Officer Diaz", at.Add(time.Minute))
	if ticket.ServedBy != "Officer Diaz" {
		t.Errorf("ServedBy = %q", ticket.ServedBy)
	}
	if ticket.CalledBy != "Officer Reyes" {
		t.Error("start must not overwrite CalledBy")
	}

	ticket.Stamp(domain.EventComplete, domain.StatusCompleted, "", at.Add(2*time.Minute))
	if ticket.Status != domain.StatusCompleted {
		t.Errorf("Status = %q", ticket.Status)
	}
	if ticket.CompletedAt.Before(*ticket.StartedAt) {
		t.Error("CompletedAt before StartedAt")
	}
}

func TestStatus_TerminalAndActive(t *testing.T) {
	for _, s := range domain.Statuses {
		if s.Active() == s.Terminal() {
			t.Errorf("status %q: Active and Terminal must be exclusive", s)
		}
	}
}

func TestTransitions_AllEventsHaveEntries(t *testing.T) {
	events := []domain.Event{
		domain.EventCall,
		domain.EventStart,
		domain.EventComplete,
		domain.EventNoShow,
		domain.EventCancel,
	}

	for _, event := range events {
		if len(domain.SourcesOf(event)) == 0 {
			t.Errorf("event %q has no transition defined", event)
		}
	}
}

func TestTransitions_NoExitFromTerminal(t *testing.T) {
	for _, tr := range domain.Transitions {
		if tr.Src.Terminal() {
			t.Errorf("transition %q leaves terminal state %q", tr.Event, tr.Src)
		}
	}
}

func TestTransitions_OneDestinationPerEvent(t *testing.T) {
	dst := make(map[domain.Event]domain.Status)
	for _, tr := range domain.Transitions {
		if prev, ok := dst[tr.Event]; ok && prev != tr.Dst {
			t.Errorf("event %q leads to both %q and %q", tr.Event, prev, tr.Dst)
		}
		dst[tr.Event] = tr.Dst
	}
}

func TestTransitions_InvalidPaths(t *testing.T) {
	// These transitions must NOT exist.
	invalid := []struct {
		event domain.Event
		src   domain.Status
	}{
		{domain.EventStart, domain.StatusWaiting},
		{domain.EventComplete, domain.StatusCalled},
		{domain.EventNoShow, domain.StatusWaiting},
		{domain.EventNoShow, domain.StatusServing},
		{domain.EventCall, domain.StatusCalled},
		{domain.EventCancel, domain.StatusCompleted},
	}

	for _, tc := range invalid {
		for _, tr := range domain.Transitions {
			if tr.Event == tc.event && tr.Src == tc.src {
				t.Errorf("unexpected transition: %q from %q should not exist", tc.event, tc.src)
			}
		}
	}
}

func TestStatusCounts_Total(t *testing.T) {
	c := domain.StatusCounts{domain.StatusWaiting: 3, domain.StatusCompleted: 2}
	if got := c.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
}
