package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// mapError translates lock and constraint failures into domain errors and
// wraps everything else with op.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if isBusy(err) || isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrContention)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isBusy(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return strings.Contains(err.Error(), "database is locked")
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
