package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

var _ domain.Directory = (*DirectoryRepository)(nil)

// DirectoryRepository reads offices and services from PostgreSQL.
type DirectoryRepository struct {
	store *Store
}

func (r *DirectoryRepository) ActiveService(ctx context.Context, id string) (domain.Service, domain.Office, error) {
	var svc domain.Service
	var office domain.Office

	err := r.store.q(ctx).QueryRow(ctx,
		`SELECT s.id, s.office_id, s.name, s.code, s.active, o.id, o.name, o.code, o.active
		 FROM services s JOIN offices o ON o.id = s.office_id
		 WHERE s.id = $1`, id,
	).Scan(&svc.ID, &svc.OfficeID, &svc.Name, &svc.Code, &svc.Active,
		&office.ID, &office.Name, &office.Code, &office.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Service{}, domain.Office{}, fmt.Errorf("service %q does not exist: %w", id, domain.ErrServiceUnavailable)
		}
		return domain.Service{}, domain.Office{}, mapError(err, "reading service")
	}

	if !svc.Active {
		return domain.Service{}, domain.Office{}, fmt.Errorf("service %q is inactive: %w", id, domain.ErrServiceUnavailable)
	}
	if !office.Active {
		return domain.Service{}, domain.Office{}, fmt.Errorf("office %q is closed: %w", office.ID, domain.ErrServiceUnavailable)
	}
	return svc, office, nil
}

func (r *DirectoryRepository) Service(ctx context.Context, id string) (domain.Service, error) {
	var svc domain.Service

	err := r.store.q(ctx).QueryRow(ctx,
		`SELECT id, office_id, name, code, active FROM services WHERE id = $1`, id,
	).Scan(&svc.ID, &svc.OfficeID, &svc.Name, &svc.Code, &svc.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Service{}, fmt.Errorf("service %q does not exist: %w", id, domain.ErrServiceUnavailable)
		}
		return domain.Service{}, mapError(err, "reading service")
	}
	return svc, nil
}

func (r *DirectoryRepository) ActiveOffice(ctx context.Context, id string) (domain.Office, error) {
	var office domain.Office

	err := r.store.q(ctx).QueryRow(ctx,
		`SELECT id, name, code, active FROM offices WHERE id = $1`, id,
	).Scan(&office.ID, &office.Name, &office.Code, &office.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Office{}, fmt.Errorf("office %q does not exist: %w", id, domain.ErrServiceUnavailable)
		}
		return domain.Office{}, mapError(err, "reading office")
	}

	if !office.Active {
		return domain.Office{}, fmt.Errorf("office %q is closed: %w", id, domain.ErrServiceUnavailable)
	}
	return office, nil
}

func (r *DirectoryRepository) ServicesOf(ctx context.Context, officeID string) ([]domain.Service, error) {
	query, args, err := psql.Select("id", "office_id", "name", "code", "active").
		From("services").
		Where(sq.Eq{"office_id": officeID, "active": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building services query: %w", err)
	}

	rows, err := r.store.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "listing services")
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.OfficeID, &s.Name, &s.Code, &s.Active); err != nil {
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// Seed upserts offices and services in one transaction.
func (r *DirectoryRepository) Seed(ctx context.Context, offices []domain.Office, services []domain.Service) error {
	return r.store.RunInTx(ctx, func(ctx context.Context) error {
		q := r.store.q(ctx)
		for _, o := range offices {
			_, err := q.Exec(ctx,
				`INSERT INTO offices (id, name, code, active) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code, active = EXCLUDED.active`,
				o.ID, o.Name, o.Code, o.Active,
			)
			if err != nil {
				return fmt.Errorf("seeding office %q: %w", o.ID, err)
			}
		}
		for _, s := range services {
			_, err := q.Exec(ctx,
				`INSERT INTO services (id, office_id, name, code, active) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (id) DO UPDATE SET office_id = EXCLUDED.office_id, name = EXCLUDED.name,
				   code = EXCLUDED.code, active = EXCLUDED.active`,
				s.ID, s.OfficeID, s.Name, s.Code, s.Active,
			)
			if err != nil {
				return fmt.Errorf("seeding service %q: %w", s.ID, err)
			}
		}
		return nil
	})
}
