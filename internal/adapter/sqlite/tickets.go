package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

var _ domain.TicketRepository = (*TicketRepository)(nil)

// Fixed width keeps lexical order equal to chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const ticketColumns = `id, service_id, citizen_name, citizen_phone, number, service_day, status,
	created_at, called_at, started_at, completed_at, called_by, served_by`

// TicketRepository implements domain.TicketRepository using SQLite.
// Row locks do not exist in SQLite: the immediate transaction opened by
// Store.RunInTx already excludes every other writer, so the ForUpdate reads
// are plain selects.
type TicketRepository struct {
	store *Store
}

func (r *TicketRepository) Insert(ctx context.Context, t domain.Ticket) error {
	_, err := r.store.q(ctx).ExecContext(ctx,
		`INSERT INTO tickets (`+ticketColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ServiceID, t.CitizenName, t.CitizenPhone, t.Number, string(t.Day), string(t.Status),
		formatTime(t.CreatedAt), nullTime(t.CalledAt), nullTime(t.StartedAt), nullTime(t.CompletedAt),
		t.CalledBy, t.ServedBy,
	)
	return mapError(err, "inserting ticket")
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (domain.Ticket, error) {
	return scanTicket(r.store.q(ctx).QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id,
	))
}

func (r *TicketRepository) GetForUpdate(ctx context.Context, id string) (domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *TicketRepository) OldestWaiting(ctx context.Context, serviceID string) (domain.Ticket, error) {
	return scanTicket(r.store.q(ctx).QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE service_id = ? AND status = ?
		 ORDER BY created_at, number
		 LIMIT 1`,
		serviceID, string(domain.StatusWaiting),
	))
}

// LockSequence is a no-op: RunInTx begins IMMEDIATE, so the transaction
// already holds the database write lock.
func (r *TicketRepository) LockSequence(context.Context, string) error {
	return nil
}

func (r *TicketRepository) MaxNumber(ctx context.Context, serviceID string, day domain.Day) (int, error) {
	var n int
	err := r.store.q(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) FROM tickets WHERE service_id = ? AND service_day = ?`,
		serviceID, string(day),
	).Scan(&n)
	if err != nil {
		return 0, mapError(err, "reading max ticket number")
	}
	return n, nil
}

func (r *TicketRepository) Update(ctx context.Context, t domain.Ticket, from domain.Status) error {
	result, err := r.store.q(ctx).ExecContext(ctx,
		`UPDATE tickets
		 SET status = ?, called_at = ?, started_at = ?, completed_at = ?, called_by = ?, served_by = ?
		 WHERE id = ? AND status = ?`,
		string(t.Status), nullTime(t.CalledAt), nullTime(t.StartedAt), nullTime(t.CompletedAt),
		t.CalledBy, t.ServedBy, t.ID, string(from),
	)
	if err != nil {
		return mapError(err, "updating ticket")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *TicketRepository) CountByStatus(ctx context.Context, serviceID string, day domain.Day) (domain.StatusCounts, error) {
	query, args, err := sq.Select("status", "COUNT(*)").
		From("tickets").
		Where(sq.Eq{"service_id": serviceID, "service_day": string(day)}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building count query: %w", err)
	}

	rows, err := r.store.q(ctx).QueryContext(ctx, query, args...)
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
	query, args, err := sq.Select("COUNT(*)").
		From("tickets").
		Where(sq.Eq{
			"service_id": t.ServiceID,
			"status":     []string{string(domain.StatusWaiting), string(domain.StatusCalled)},
		}).
		Where(sq.Lt{"created_at": formatTime(t.CreatedAt)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var n int
	if err := r.store.q(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "counting tickets ahead")
	}
	return n, nil
}

func (r *TicketRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Ticket, error) {
	b := sq.Select(ticketColumns).From("tickets").OrderBy("created_at", "number")

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
		b = b.Where(sq.Lt{"called_at": formatTime(filter.CalledBefore)})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := r.store.q(ctx).QueryContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (domain.Ticket, error) {
	var t domain.Ticket
	var day, status, createdAt string
	var calledAt, startedAt, completedAt sql.NullString

	err := row.Scan(&t.ID, &t.ServiceID, &t.CitizenName, &t.CitizenPhone, &t.Number, &day, &status,
		&createdAt, &calledAt, &startedAt, &completedAt, &t.CalledBy, &t.ServedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, mapError(err, "scanning ticket")
	}

	t.Day = domain.Day(day)
	t.Status = domain.Status(status)
	if t.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return domain.Ticket{}, fmt.Errorf("ticket %q: parsing created_at: %w", t.ID, err)
	}
	if t.CalledAt, err = parseNullTime(calledAt); err != nil {
		return domain.Ticket{}, fmt.Errorf("ticket %q: parsing called_at: %w", t.ID, err)
	}
	if t.StartedAt, err = parseNullTime(startedAt); err != nil {
		return domain.Ticket{}, fmt.Errorf("ticket %q: parsing started_at: %w", t.ID, err)
	}
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return domain.Ticket{}, fmt.Errorf("ticket %q: parsing completed_at: %w", t.ID, err)
	}

	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
