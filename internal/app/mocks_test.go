package app_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket

	// onLock runs inside LockSequence.
	onLock func()
}

func newMockRepo() *mockRepo {
	return &mockRepo{tickets: make(map[string]domain.Ticket)}
}

func (m *mockRepo) Insert(_ context.Context, t domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tickets {
		if existing.ServiceID == t.ServiceID && existing.Day == t.Day && existing.Number == t.Number {
			return domain.ErrContention
		}
	}
	m.tickets[t.ID] = t
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return t, nil
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id string) (domain.Ticket, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) OldestWaiting(_ context.Context, serviceID string) (domain.Ticket, error) {
	waiting := m.filter(func(t domain.Ticket) bool {
		return t.ServiceID == serviceID && t.Status == domain.StatusWaiting
	})
	if len(waiting) == 0 {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return waiting[0], nil
}

func (m *mockRepo) LockSequence(context.Context, string) error {
	if m.onLock != nil {
		m.onLock()
	}
	return nil
}

func (m *mockRepo) MaxNumber(_ context.Context, serviceID string, day domain.Day) (int, error) {
	highest := 0
	for _, t := range m.filter(func(t domain.Ticket) bool { return t.ServiceID == serviceID && t.Day == day }) {
		if t.Number > highest {
			highest = t.Number
		}
	}
	return highest, nil
}

func (m *mockRepo) Update(_ context.Context, t domain.Ticket, from domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tickets[t.ID]
	if !ok || stored.Status != from {
		return domain.ErrInvalidTransition
	}
	m.tickets[t.ID] = t
	return nil
}

func (m *mockRepo) CountByStatus(_ context.Context, serviceID string, day domain.Day) (domain.StatusCounts, error) {
	counts := make(domain.StatusCounts)
	for _, t := range m.filter(func(t domain.Ticket) bool { return t.ServiceID == serviceID && t.Day == day }) {
		counts[t.Status]++
	}
	return counts, nil
}

func (m *mockRepo) CountAhead(_ context.Context, ticket domain.Ticket) (int, error) {
	ahead := m.filter(func(t domain.Ticket) bool {
		return t.ServiceID == ticket.ServiceID &&
			(t.Status == domain.StatusWaiting || t.Status == domain.StatusCalled) &&
			t.CreatedAt.Before(ticket.CreatedAt)
	})
	return len(ahead), nil
}

func (m *mockRepo) List(_ context.Context, f domain.ListFilter) ([]domain.Ticket, error) {
	out := m.filter(func(t domain.Ticket) bool {
		if f.ServiceID != "" && t.ServiceID != f.ServiceID {
			return false
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
			return false
		}
		if f.Day != "" && t.Day != f.Day {
			return false
		}
		if !f.CalledBefore.IsZero() && (t.CalledAt == nil || !t.CalledAt.Before(f.CalledBefore)) {
			return false
		}
		return true
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// filter returns matching tickets in creation order.
func (m *mockRepo) filter(keep func(domain.Ticket) bool) []domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, t := range m.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func containsStatus(list []domain.Status, s domain.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// mockTx serializes units of work the way the real stores do.
type mockTx struct {
	mu    sync.Mutex
	calls int
}

func (m *mockTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return fn(ctx)
}

type mockDirectory struct {
	offices  map[string]domain.Office
	services map[string]domain.Service
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		offices: map[string]domain.Office{
			"off-1": {ID: "off-1", Name: "Central Registry", Active: true},
			"off-2": {ID: "off-2", Name: "Harbor Annex", Active: false},
		},
		services: map[string]domain.Service{
			"svc-1": {ID: "svc-1", OfficeID: "off-1", Name: "Passport Renewal", Active: true},
			"svc-2": {ID: "svc-2", OfficeID: "off-1", Name: "Birth Certificate", Active: true},
			"svc-3": {ID: "svc-3", OfficeID: "off-1", Name: "Land Titles", Active: false},
			"svc-4": {ID: "svc-4", OfficeID: "off-2", Name: "Vehicle Plates", Active: true},
		},
	}
}

func (m *mockDirectory) ActiveService(_ context.Context, id string) (domain.Service, domain.Office, error) {
	svc, ok := m.services[id]
	if !ok || !svc.Active {
		return domain.Service{}, domain.Office{}, domain.ErrServiceUnavailable
	}
	office, ok := m.offices[svc.OfficeID]
	if !ok || !office.Active {
		return domain.Service{}, domain.Office{}, domain.ErrServiceUnavailable
	}
	return svc, office, nil
}

func (m *mockDirectory) Service(_ context.Context, id string) (domain.Service, error) {
	svc, ok := m.services[id]
	if !ok {
		return domain.Service{}, domain.ErrServiceUnavailable
	}
	return svc, nil
}

func (m *mockDirectory) ActiveOffice(_ context.Context, id string) (domain.Office, error) {
	office, ok := m.offices[id]
	if !ok || !office.Active {
		return domain.Office{}, domain.ErrServiceUnavailable
	}
	return office, nil
}

func (m *mockDirectory) ServicesOf(_ context.Context, officeID string) ([]domain.Service, error) {
	var out []domain.Service
	for _, s := range m.services {
		if s.OfficeID == officeID && s.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	event  domain.Event
	ticket domain.Ticket
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, t domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{event: e, ticket: t})
	return nil
}

func (m *mockPublisher) last() publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

var errPublish = errors.New("queue down")

// fakeClock advances only when told to.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
