package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxRunner_Serializable(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits On Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		runner := NewTxRunner(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE flights SET fully_booked`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := runner.Serializable(ctx, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `UPDATE flights SET fully_booked = true`)
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls Back On Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		runner := NewTxRunner(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := runner.Serializable(ctx, func(tx *sqlx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, models.KindInternal, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Domain Error Passes Through", func(t *testing.T) {
		db, mock := newMockDB(t)
		runner := NewTxRunner(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := runner.Serializable(ctx, func(tx *sqlx.Tx) error {
			return models.NewExpiredError("seat session expired")
		})
		assert.Equal(t, models.KindExpired, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Serialization Failure Is Conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		runner := NewTxRunner(db)

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

		err := runner.Serializable(ctx, func(tx *sqlx.Tx) error { return nil })
		assert.Equal(t, models.KindConflict, models.KindOf(err))
		assert.True(t, IsSerializationFailure(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unique Violation Inside Fn Is Conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		runner := NewTxRunner(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := runner.Serializable(ctx, func(tx *sqlx.Tx) error {
			return &pq.Error{Code: "23505"}
		})
		assert.Equal(t, models.KindConflict, models.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin Failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		runner := NewTxRunner(db)

		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		called := false
		err := runner.ReadCommitted(ctx, func(tx *sqlx.Tx) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
		assert.Contains(t, err.Error(), "failed to begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
