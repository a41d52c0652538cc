package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river/riverdriver"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/riverdriver/riversqlite"

	oteladapter "github.com/neomorfeo/queuedesk/internal/adapter/otel"
	"github.com/neomorfeo/queuedesk/internal/adapter/postgres"
	"github.com/neomorfeo/queuedesk/internal/adapter/sqlite"
	"github.com/neomorfeo/queuedesk/internal/config"
	"github.com/neomorfeo/queuedesk/internal/domain"
)

// store bundles what the rest of the process needs from the configured
// database, whichever driver backs it.
type store struct {
	tickets   domain.TicketRepository
	directory domain.Directory
	tx        domain.TxRunner
	seed      func(ctx context.Context, offices []domain.Office, services []domain.Service) error
	river     riverdriver.Driver[*sql.Tx]
	close     func()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := postgres.New(ctx, postgres.Config{
			DSN:         cfg.DSN,
			MaxConns:    cfg.MaxConns,
			LockTimeout: cfg.LockTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		db := pg.DB()
		return &store{
			tickets:   pg.Tickets(),
			directory: pg.Directory(),
			tx:        pg,
			seed:      pg.Directory().Seed,
			river:     riverdatabasesql.New(db),
			close: func() {
				db.Close()
				pg.Close()
			},
		}, nil

	default:
		db, err := oteladapter.OpenSQLite(cfg.Path, sqlite.DSN(cfg.Path, cfg.BusyTimeout))
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		lite, err := sqlite.NewFromDB(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		lite.SetLockTimeout(cfg.LockTimeout)

		return &store{
			tickets:   lite.Tickets(),
			directory: lite.Directory(),
			tx:        lite,
			seed:      lite.Directory().Seed,
			river:     riversqlite.New(db),
			close:     func() { lite.Close() },
		}, nil
	}
}
