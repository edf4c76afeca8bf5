package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/apperror"
)

func TestClassify(t *testing.T) {
	t.Run("lost races become conflicts", func(t *testing.T) {
		for _, code := range []string{pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.UniqueViolation} {
			err := Classify(fmt.Errorf("update slot: %w", &pgconn.PgError{Code: code}))
			assert.Equal(t, apperror.KindConflict, apperror.KindOf(err), code)
			assert.ErrorIs(t, err, ErrConcurrentUpdate)
		}
	})

	t.Run("check violations are validation errors", func(t *testing.T) {
		err := Classify(&pgconn.PgError{Code: pgerrcode.CheckViolation})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("app errors pass through", func(t *testing.T) {
		in := apperror.Forbidden("not authorized")
		assert.Same(t, in, Classify(in))
	})

	t.Run("other errors stay internal", func(t *testing.T) {
		in := errors.New("connection reset by peer")
		assert.Equal(t, in, Classify(in))
		assert.Equal(t, apperror.KindInternal, apperror.KindOf(Classify(&pgconn.PgError{Code: pgerrcode.UndefinedTable})))
	})

	assert.NoError(t, Classify(nil))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
}
