package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/apperror"
)

// ErrConcurrentUpdate is returned when Postgres aborts a unit of work because another
// one touched the same rows first.
var ErrConcurrentUpdate = apperror.Conflict("the resource was modified concurrently, reload and retry")

// Classify turns Postgres errors that describe a lost race into Conflict errors.
// Other errors, including AppErrors, are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.UniqueViolation:
		return apperror.Wrap(err, ErrConcurrentUpdate.Kind, ErrConcurrentUpdate.Message)
	case pgerrcode.CheckViolation:
		return apperror.Wrap(err, apperror.KindValidation, "value violates a storage constraint")
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
