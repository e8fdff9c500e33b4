package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/azvaska/flight-gorilla-sub000/internal/models"
	"github.com/jmoiron/sqlx"
)

// TxRunner opens transactions on the shared pool
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner creates a new TxRunner
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Serializable runs fn inside a SERIALIZABLE transaction. The transaction is
// committed only when fn returns nil; any error rolls back every write.
// Serialization failures are reported as conflicts.
func (r *TxRunner) Serializable(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return runTx(ctx, r.db, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// ReadCommitted runs fn inside a default-isolation transaction
func (r *TxRunner) ReadCommitted(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return runTx(ctx, r.db, nil, fn)
}

func runTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return translateTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateTxError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func translateTxError(err error) error {
	var de *models.DomainError
	if errors.As(err, &de) {
		return err
	}
	if IsSerializationFailure(err) {
		return models.NewConflictError("concurrent update detected, please retry", err)
	}
	if IsUniqueViolation(err) {
		return models.NewConflictError("resource already taken", err)
	}
	return err
}
