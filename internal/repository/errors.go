package repository

import (
	"context"
	"errors"

	"github.com/cetler74/dbcars-sub000/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes that mean "lost a race, retry".
const (
	pgExclusionViolation   = "23P01"
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgQueryCanceled        = "57014"
)

// translateError maps driver and gorm errors onto the domain taxonomy.
// Domain errors pass through untouched.
func translateError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFoundError(entity, id)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewStoreUnavailableError(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return domain.NewConflictError("subunit is already booked for an overlapping interval")
		case pgUniqueViolation:
			return domain.NewConflictError("duplicate " + pgErr.ConstraintName)
		case pgSerializationFailure, pgDeadlockDetected:
			return domain.NewConflictError("concurrent update, retry")
		case pgQueryCanceled:
			return domain.NewStoreUnavailableError(err)
		}
	}
	return err
}
