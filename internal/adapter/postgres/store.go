package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultLockTimeout bounds row and advisory lock waits inside a unit of work.
const DefaultLockTimeout = 5 * time.Second

// Store is the PostgreSQL ticket store. Allocation is serialized per service
// with a transaction-scoped advisory lock; transitions lock the ticket row.
type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// Config holds pool settings.
type Config struct {
	DSN         string
	MaxConns    int32
	LockTimeout time.Duration
}

// New connects to PostgreSQL, runs migrations, and returns a ready store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store, err := NewFromPool(pool, cfg.LockTimeout)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewFromPool wraps an existing pool and runs migrations.
func NewFromPool(pool *pgxpool.Pool, lockTimeout time.Duration) (*Store, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{pool: pool, lockTimeout: lockTimeout}, nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// DB returns a database/sql handle over the pool for adapters that need one
// (e.g., river). The caller closes it.
func (s *Store) DB() *sql.DB {
	return stdlib.OpenDBFromPool(s.pool)
}

// Tickets returns the ticket repository backed by this store.
func (s *Store) Tickets() *TicketRepository {
	return &TicketRepository{store: s}
}

// Directory returns the office and service directory backed by this store.
func (s *Store) Directory() *DirectoryRepository {
	return &DirectoryRepository{store: s}
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
