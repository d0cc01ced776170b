// Package testutil provides helpers shared by package tests: sqlmock backed
// databases for repository tests and an in-process TxManager for use case tests.
package testutil

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// NewMockDB returns a sqlmock database that matches queries by regular
// expression. The database is closed and expectations are verified at cleanup.
func NewMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet(), "unmet sqlmock expectations")
		_ = db.Close()
	})

	return db, mock
}

// TxManager runs units of work inline and serializes them, which gives use case
// tests the all-or-nothing visibility of a real transaction without a database.
// It counts calls so tests can assert an operation was transactional.
type TxManager struct {
	mu    sync.Mutex
	Calls int
}

// WithTx runs fn while holding the manager lock.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return fn(ctx)
}
