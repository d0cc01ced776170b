package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/vault/internal/testutil"
	"github.com/allisson/vault/internal/user/domain"
)

func TestMySQLUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	idBytes, err := user.ID.MarshalBinary()
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(idBytes, user.Username, user.Email, user.PasswordHash, true, user.CreatedAt, user.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewMySQLUserRepository(db).Create(ctx, user))
	})

	t.Run("Duplicate", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&mysql.MySQLError{Number: 1062})

		assert.ErrorIs(t, NewMySQLUserRepository(db).Create(ctx, user), domain.ErrUserAlreadyExists)
	})
}

func TestMySQLUserRepository_Get(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	idBytes, err := user.ID.MarshalBinary()
	require.NoError(t, err)

	db, mock := testutil.NewMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(idBytes).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			idBytes, user.Username, user.Email, user.PasswordHash, true, user.CreatedAt, user.UpdatedAt,
		))

	got, err := NewMySQLUserRepository(db).Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
}

func TestMySQLUserRepository_Update_NotFound(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewMySQLUserRepository(db).Update(context.Background(), newUser()), domain.ErrUserNotFound)
}
