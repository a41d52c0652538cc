package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	// DefaultLockTimeout bounds how long a unit of work waits for the write lock.
	DefaultLockTimeout = 5 * time.Second

	// DefaultBusyTimeout bounds SQLite's own wait on a database locked by another process.
	DefaultBusyTimeout = 5 * time.Second
)

// Store owns the SQLite connection shared by the ticket and directory repositories.
//
// Every transaction is opened with BEGIN IMMEDIATE on a single pooled connection,
// so a unit of work holds the database write lock from its first statement. That
// serializes number allocation and check-and-update transitions.
type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// DSN builds a modernc data source name for path with immediate transactions,
// foreign keys and the given busy timeout.
func DSN(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Set("_txlock", "immediate")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// New opens a SQLite database at path, runs migrations, and returns a ready store.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", DSN(path, DefaultBusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: an in-memory database exists per connection, and the
	// write lock is effectively held by whoever owns it.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{db: db, lockTimeout: DefaultLockTimeout}, nil
}

// SetLockTimeout changes how long RunInTx waits for the connection before
// giving up with domain.ErrContention.
func (s *Store) SetLockTimeout(d time.Duration) {
	if d > 0 {
		s.lockTimeout = d
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
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

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
