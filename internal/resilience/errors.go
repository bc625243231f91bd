package resilience

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes for conflicts between concurrent transactions.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsRetryableWrite reports whether an error is a transient write
// conflict: a Postgres serialization failure or deadlock, or a locked
// SQLite database. Re-running the transaction is safe because the
// recompute batch is pure and deterministic given identical inputs.
func IsRetryableWrite(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}

	// modernc.org/sqlite surfaces SQLITE_BUSY/SQLITE_LOCKED as strings.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
