package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"stockledger/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the engine cares about.
const (
	sqlstateUniqueViolation   = "23505"
	sqlstateLockNotAvailable  = "55P03"
	sqlstateSerializationFail = "40001"
	sqlstateDeadlockDetected  = "40P01"
)

// MapError translates store-level failures into the engine's error taxonomy.
// Lock wait timeouts, serialization failures and deadlocks become
// ConcurrencyConflict so callers can retry with backoff; unique violations
// become Duplicate. Anything else passes through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlstateLockNotAvailable, sqlstateSerializationFail, sqlstateDeadlockDetected:
		return apperror.NewConcurrencyConflict(pgErr.TableName, pgErr.ConstraintName).WithCause(err)
	case sqlstateUniqueViolation:
		return apperror.NewDuplicate(pgErr.TableName, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	default:
		return err
	}
}
