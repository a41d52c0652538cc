package otel

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenSQLite opens the ticket database at path through dsn with every
// statement traced and pool gauges exported.
//
// Tickets and River jobs share the one connection, and it doubles as the
// write lock for a unit of work, so the pool is capped at one.
func OpenSQLite(path, dsn string) (*sql.DB, error) {
	attrs := sqliteAttributes(path)

	db, err := otelsql.Open("sqlite", dsn,
		otelsql.WithAttributes(attrs...),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			DisableErrSkip:       true,
			OmitConnResetSession: true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening ticket database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(attrs...)); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering pool metrics: %w", err)
	}
	return db, nil
}

func sqliteAttributes(path string) []attribute.KeyValue {
	return []attribute.KeyValue{semconv.DBSystemSqlite, semconv.DBNamespace(filepath.Base(path))}
}
