package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// beginTx opens a transaction against the mock for repository methods that
// take the caller's *sqlx.Tx
func beginTx(t *testing.T, db *sqlx.DB, mock sqlmock.Sqlmock) *sqlx.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	return tx
}

// quoteSQL quotes a SQL fragment for sqlmock's regexp matcher
func quoteSQL(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

var t0 = time.Date(2030, time.June, 1, 12, 0, 0, 0, time.UTC)
