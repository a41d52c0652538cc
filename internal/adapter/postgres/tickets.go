package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

var _ domain.TicketRepository = (*TicketRepository)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const ticketColumns = `id, service_id, citizen_name, citizen_phone, number, service_day, status,
	created_at, called_at, started_at, completed_at, called_by, served_by`

// TicketRepository implements domain.TicketRepository using PostgreSQL.
type TicketRepository struct {
	store *Store
}

func (r *TicketRepository) Insert(ctx context.Context, t domain.Ticket) error {
	_, err := r.store.q(ctx).Exec(ctx,
		`INSERT INTO tickets (`+ticketColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.ServiceID, t.CitizenName, t.CitizenPhone, t.Number, string(t.Day), string(t.Status),
		t.CreatedAt, t.CalledAt, t.StartedAt, t.CompletedAt, t.CalledBy, t.ServedBy,
	)
	return mapError(err, "inserting ticket")
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (domain.Ticket, error) {
	return scanTicket(r.store.q(ctx).QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id,
	))
}

func (r *TicketRepository) GetForUpdate(ctx context.Context, id string) (domain.Ticket, error) {
	return scanTicket(r.store.q(ctx).QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id,
	))
}

// OldestWaiting skips rows another caller already holds, so concurrent
// officers on one service each get a different ticket instead of queueing.
func (r *TicketRepository) OldestWaiting(ctx context.Context, serviceID string) (domain.Ticket, error) {
	return scanTicket(r.store.q(ctx).QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE service_id = $1 AND status = $2
		 ORDER BY created_at, number
		 LIMIT 1
		 FOR UPDATE SKIP LOCKED`,
		serviceID, string(domain.StatusWaiting),
	))
}

// LockSequence takes a transaction-scoped advisory lock keyed on the service.
func (r *TicketRepository) LockSequence(ctx context.Context, serviceID string) error {
	if _, err := r.store.q(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, serviceID); err != nil {
		return mapError(err, "locking service sequence")
	}
	return nil
}

func (r *TicketRepository) MaxNumber(ctx context.Context, serviceID string, day domain.Day) (int, error) {
	var n int
	err := r.store.q(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(number), 0) FROM tickets WHERE service_id = $1 AND service_day = $2`,
		serviceID, string(day),
	).Scan(&n)
	if err != nil {
		return 0, mapError(err, "reading max ticket number")
	}
	return n, nil
}

func (r *TicketRepository) Update(ctx context.Context, t domain.Ticket, from domain.Status) error {
	tag, err := r.store.q(ctx).Exec(ctx,
		`UPDATE tickets
		 SET status = $1, called_at = $2, started_at = $3, completed_at = $4, called_by = $5, served_by = $6
		 WHERE id = $7 AND status = $8`,
		string(t.Status), t.CalledAt, t.StartedAt, t.CompletedAt, t.CalledBy, t.ServedBy, t.ID, string(from),
	)
	if err != nil {
		return mapError(err, "updating ticket")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *TicketRepository) CountByStatus(ctx context.Context, serviceID string, day domain.Day) (domain.StatusCounts, error) {
	query, args, err := psql.Select("status", "COUNT(*)").
		From("tickets").
		Where(sq.Eq{"service_id": serviceID, "service_day": string(day)}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building count query: %w", err)
	}

	rows, err := r.store.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "counting tickets")
	}
	defer rows.Close()

	counts := make(domain.StatusCounts)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[domain.Status(status)] = n
	}
	return counts, rows.Err()
}

func (r *TicketRepository) CountAhead(ctx context.Context, t domain.Ticket) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("tickets").
		Where(sq.Eq{
			"service_id": t.ServiceID,
			"status":     []string{string(domain.StatusWaiting), string(domain.StatusCalled)},
		}).
		Where(sq.Lt{"created_at": t.CreatedAt}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var n int
	if err := r.store.q(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "counting tickets ahead")
	}
	return n, nil
}

func (r *TicketRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Ticket, error) {
	b := psql.Select(ticketColumns).From("tickets").OrderBy("created_at", "number")

	if filter.ServiceID != "" {
		b = b.Where(sq.Eq{"service_id": filter.ServiceID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	if filter.Day != "" {
		b = b.Where(sq.Eq{"service_day": string(filter.Day)})
	}
	if !filter.CalledBefore.IsZero() {
		b = b.Where(sq.Lt{"called_at": filter.CalledBefore})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := r.store.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "listing tickets")
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	var day, status string
	var calledAt, startedAt, completedAt *time.Time

	err := row.Scan(&t.ID, &t.ServiceID, &t.CitizenName, &t.CitizenPhone, &t.Number, &day, &status,
		&t.CreatedAt, &calledAt, &startedAt, &completedAt, &t.CalledBy, &t.ServedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, mapError(err, "scanning ticket")
	}

	t.Day = domain.Day(day)
	t.Status = domain.Status(status)
	t.CalledAt = calledAt
	t.StartedAt = startedAt
	t.CompletedAt = completedAt
	return t, nil
}
