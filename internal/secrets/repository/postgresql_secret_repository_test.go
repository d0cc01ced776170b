package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	apperrors "github.com/allisson/vault/internal/errors"
	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
	"github.com/allisson/vault/internal/testutil"
)

var (
	secretColumns  = []string{"id", "path", "name", "current_version", "created_by", "created_at", "updated_at"}
	versionColumns = []string{
		"id", "secret_id", "version", "encrypted_value", "wrapped_key", "kek_id", "is_active", "created_by", "created_at",
	}
	versionMetadataColumns = []string{"id", "secret_id", "version", "kek_id", "is_active", "created_by", "created_at"}
)

func newSecret() *secretsDomain.Secret {
	now := time.Now().UTC()
	return &secretsDomain.Secret{
		ID:             uuid.Must(uuid.NewV7()),
		Path:           "/api-keys/stripe",
		Name:           "Stripe",
		CurrentVersion: 1,
		CreatedBy:      uuid.Must(uuid.NewV7()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newVersion(secret *secretsDomain.Secret) *secretsDomain.SecretVersion {
	return &secretsDomain.SecretVersion{
		ID:             uuid.Must(uuid.NewV7()),
		SecretID:       secret.ID,
		Version:        1,
		EncryptedValue: []byte("ciphertext"),
		WrappedKey:     []byte("wrapped"),
		KekID:          "default",
		IsActive:       true,
		CreatedBy:      secret.CreatedBy,
		CreatedAt:      secret.CreatedAt,
	}
}

func TestPostgreSQLSecretRepository_Create(t *testing.T) {
	ctx := context.Background()
	secret := newSecret()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO secrets")).
			WithArgs(secret.ID, secret.Path, secret.Name, 1, secret.CreatedBy, secret.CreatedAt, secret.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgreSQLSecretRepository(db).Create(ctx, secret))
	})

	t.Run("DuplicatePath", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO secrets")).
			WillReturnError(&pq.Error{Code: "23505"})

		err := NewPostgreSQLSecretRepository(db).Create(ctx, secret)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretAlreadyExists)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("StorageError", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		driverErr := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO secrets")).WillReturnError(driverErr)

		err := NewPostgreSQLSecretRepository(db).Create(ctx, secret)
		assert.ErrorIs(t, err, apperrors.ErrStorage)
		assert.ErrorIs(t, err, driverErr)
	})
}

func TestPostgreSQLSecretRepository_Get(t *testing.T) {
	ctx := context.Background()
	secret := newSecret()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM secrets WHERE id = $1")).
			WithArgs(secret.ID).
			WillReturnRows(sqlmock.NewRows(secretColumns).AddRow(
				secret.ID.String(), secret.Path, secret.Name, 1, secret.CreatedBy.String(), secret.CreatedAt, secret.UpdatedAt,
			))

		got, err := NewPostgreSQLSecretRepository(db).Get(ctx, secret.ID)
		require.NoError(t, err)
		assert.Equal(t, secret.ID, got.ID)
		assert.Equal(t, secret.CreatedBy, got.CreatedBy)
		assert.Equal(t, "/api-keys/stripe", got.Path)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM secrets WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(secretColumns))

		_, err := NewPostgreSQLSecretRepository(db).Get(ctx, secret.ID)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})
}

func TestPostgreSQLSecretRepository_GetForUpdate(t *testing.T) {
	secret := newSecret()
	db, mock := testutil.NewMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM secrets WHERE id = $1 FOR UPDATE")).
		WithArgs(secret.ID).
		WillReturnRows(sqlmock.NewRows(secretColumns).AddRow(
			secret.ID.String(), secret.Path, secret.Name, 3, secret.CreatedBy.String(), secret.CreatedAt, secret.UpdatedAt,
		))

	got, err := NewPostgreSQLSecretRepository(db).GetForUpdate(context.Background(), secret.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentVersion)
}

func TestPostgreSQLSecretRepository_List(t *testing.T) {
	secret := newSecret()
	db, mock := testutil.NewMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY path ASC")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(secretColumns).AddRow(
			secret.ID.String(), secret.Path, secret.Name, 1, secret.CreatedBy.String(), secret.CreatedAt, secret.UpdatedAt,
		))

	secrets, err := NewPostgreSQLSecretRepository(db).List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, secret.ID, secrets[0].ID)
}

func TestPostgreSQLSecretRepository_UpdateCurrentVersion(t *testing.T) {
	ctx := context.Background()
	secretID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE secrets SET current_version = $1")).
			WithArgs(2, now, secretID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgreSQLSecretRepository(db).UpdateCurrentVersion(ctx, secretID, 2, now))
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE secrets")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgreSQLSecretRepository(db).UpdateCurrentVersion(ctx, secretID, 2, now)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})
}

func TestPostgreSQLSecretRepository_Delete(t *testing.T) {
	ctx := context.Background()
	secretID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM secrets WHERE id = $1")).
			WithArgs(secretID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgreSQLSecretRepository(db).Delete(ctx, secretID))
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM secrets")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewPostgreSQLSecretRepository(db).Delete(ctx, secretID), secretsDomain.ErrSecretNotFound)
	})
}

func TestPostgreSQLSecretVersionRepository_Create(t *testing.T) {
	ctx := context.Background()
	version := newVersion(newSecret())

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO secret_versions")).
			WithArgs(
				version.ID, version.SecretID, 1, version.EncryptedValue, version.WrappedKey,
				"default", true, version.CreatedBy, version.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgreSQLSecretVersionRepository(db).Create(ctx, version))
	})

	t.Run("SecondActiveVersion", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO secret_versions")).
			WillReturnError(&pq.Error{Code: "23505"})

		err := NewPostgreSQLSecretVersionRepository(db).Create(ctx, version)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestPostgreSQLSecretVersionRepository_GetActive(t *testing.T) {
	ctx := context.Background()
	version := newVersion(newSecret())

	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE secret_id = $1 AND is_active = TRUE")).
			WithArgs(version.SecretID).
			WillReturnRows(sqlmock.NewRows(versionColumns).AddRow(
				version.ID.String(), version.SecretID.String(), 1, version.EncryptedValue, version.WrappedKey,
				"default", true, version.CreatedBy.String(), version.CreatedAt,
			))

		got, err := NewPostgreSQLSecretVersionRepository(db).GetActive(ctx, version.SecretID)
		require.NoError(t, err)
		assert.Equal(t, version.ID, got.ID)
		assert.Equal(t, []byte("wrapped"), got.WrappedKey)
		assert.True(t, got.IsActive)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM secret_versions")).
			WillReturnRows(sqlmock.NewRows(versionColumns))

		_, err := NewPostgreSQLSecretVersionRepository(db).GetActive(ctx, version.SecretID)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretVersionNotFound)
	})
}

func TestPostgreSQLSecretVersionRepository_ListBySecretID(t *testing.T) {
	secret := newSecret()
	db, mock := testutil.NewMockDB(t)
	rows := sqlmock.NewRows(versionMetadataColumns)
	for v := 1; v <= 3; v++ {
		rows.AddRow(uuid.Must(uuid.NewV7()).String(), secret.ID.String(), v, "default", v == 3, secret.CreatedBy.String(), secret.CreatedAt)
	}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY version ASC")).WithArgs(secret.ID).WillReturnRows(rows)

	versions, err := NewPostgreSQLSecretVersionRepository(db).ListBySecretID(context.Background(), secret.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Nil(t, versions[0].EncryptedValue)
	assert.True(t, versions[2].IsActive)
}

func TestPostgreSQLSecretVersionRepository_Deactivate(t *testing.T) {
	secretID := uuid.Must(uuid.NewV7())
	db, mock := testutil.NewMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("SET is_active = FALSE WHERE secret_id = $1 AND is_active = TRUE")).
		WithArgs(secretID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := NewPostgreSQLSecretVersionRepository(db).Deactivate(context.Background(), secretID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestPostgreSQLSecretVersionRepository_Rewrap(t *testing.T) {
	ctx := context.Background()
	versionID := uuid.Must(uuid.NewV7())

	t.Run("GetBatchNotKekID", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE kek_id <> $1")).
			WithArgs("new", 100).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kek_id", "wrapped_key"}).
				AddRow(versionID.String(), "old", []byte("wrapped")))

		keys, err := NewPostgreSQLSecretVersionRepository(db).GetBatchNotKekID(ctx, "new", 100)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, versionID, keys[0].VersionID)
		assert.Equal(t, "old", keys[0].KekID)
	})

	t.Run("UpdateWrappedKey", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE secret_versions SET wrapped_key = $1, kek_id = $2 WHERE id = $3")).
			WithArgs([]byte("rewrapped"), "new", versionID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewPostgreSQLSecretVersionRepository(db).UpdateWrappedKey(ctx, &cryptoDomain.WrappedKey{
			VersionID: versionID, KekID: "new", WrappedKey: []byte("rewrapped"),
		})
		assert.NoError(t, err)
	})

	t.Run("UpdateWrappedKeyMissing", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE secret_versions")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgreSQLSecretVersionRepository(db).UpdateWrappedKey(ctx, &cryptoDomain.WrappedKey{VersionID: versionID})
		assert.ErrorIs(t, err, secretsDomain.ErrSecretVersionNotFound)
	})
}
