package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "eventbook/pkg/app_errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: "23505", ConstraintName: ConstraintActiveUserEvent})

	assert.True(t, IsUniqueViolation(err, ConstraintActiveUserEvent))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, ConstraintBookingCode))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
}

func TestWrapTxError(t *testing.T) {
	t.Run("SerializationFailure", func(t *testing.T) {
		err := WrapTxError(&pgconn.PgError{Code: "40001"})
		assert.ErrorIs(t, err, apperrors.ErrTransactionAborted)
	})

	t.Run("Deadlock", func(t *testing.T) {
		err := WrapTxError(&pgconn.PgError{Code: "40P01"})
		assert.ErrorIs(t, err, apperrors.ErrTransactionAborted)
	})

	t.Run("Timeout", func(t *testing.T) {
		err := WrapTxError(fmt.Errorf("commit: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, apperrors.ErrTransactionAborted)
	})

	t.Run("BusinessErrorUntouched", func(t *testing.T) {
		err := WrapTxError(apperrors.ErrInsufficientSeats)
		assert.Equal(t, apperrors.ErrInsufficientSeats, err)
	})

	t.Run("AlreadyWrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("%w: conflict", apperrors.ErrTransactionAborted)
		assert.Equal(t, wrapped, WrapTxError(wrapped))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, WrapTxError(nil))
	})
}
