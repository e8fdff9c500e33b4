package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the repositories react to
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// sqlState extracts the SQLSTATE from either driver's error type
func sqlState(err error) (code, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// IsUniqueViolation reports whether err is a unique constraint violation
func IsUniqueViolation(err error) bool {
	code, _ := sqlState(err)
	return code == sqlStateUniqueViolation
}

// IsSerializationFailure reports whether err means the transaction lost a
// serialization race and may be retried by the caller
func IsSerializationFailure(err error) bool {
	code, _ := sqlState(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

// ConstraintName returns the violated constraint, if the driver reported one
func ConstraintName(err error) string {
	_, constraint := sqlState(err)
	return constraint
}
