package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
)

// PostgreSQLSecretVersionRepository handles secret version persistence for
// PostgreSQL. It also serves the root key rewrap workflow, which only ever
// touches the wrapped_key and kek_id columns.
type PostgreSQLSecretVersionRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecretVersionRepository creates a new PostgreSQLSecretVersionRepository.
func NewPostgreSQLSecretVersionRepository(db *sql.DB) *PostgreSQLSecretVersionRepository {
	return &PostgreSQLSecretVersionRepository{db: db}
}

// Create inserts a version. A duplicate (secret_id, version) or a second active
// version returns ErrConflict.
func (r *PostgreSQLSecretVersionRepository) Create(
	ctx context.Context,
	version *secretsDomain.SecretVersion,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO secret_versions
			  (id, secret_id, version, encrypted_value, wrapped_key, kek_id, is_active, created_by, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		version.ID,
		version.SecretID,
		version.Version,
		version.EncryptedValue,
		version.WrappedKey,
		version.KekID,
		version.IsActive,
		version.CreatedBy,
		version.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "secret version already exists")
		}
		return apperrors.Storage(err, "failed to create secret version")
	}
	return nil
}

// GetActive retrieves the active version of a secret.
func (r *PostgreSQLSecretVersionRepository) GetActive(
	ctx context.Context,
	secretID uuid.UUID,
) (*secretsDomain.SecretVersion, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, secret_id, version, encrypted_value, wrapped_key, kek_id, is_active, created_by, created_at
			  FROM secret_versions
			  WHERE secret_id = $1 AND is_active = TRUE`

	var version secretsDomain.SecretVersion
	err := querier.QueryRowContext(ctx, query, secretID).Scan(
		&version.ID,
		&version.SecretID,
		&version.Version,
		&version.EncryptedValue,
		&version.WrappedKey,
		&version.KekID,
		&version.IsActive,
		&version.CreatedBy,
		&version.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretVersionNotFound
		}
		return nil, apperrors.Storage(err, "failed to get active secret version")
	}
	return &version, nil
}

// ListBySecretID returns version metadata ordered by version. Encrypted values
// and wrapped keys are not loaded.
func (r *PostgreSQLSecretVersionRepository) ListBySecretID(
	ctx context.Context,
	secretID uuid.UUID,
) ([]*secretsDomain.SecretVersion, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, secret_id, version, kek_id, is_active, created_by, created_at
			  FROM secret_versions
			  WHERE secret_id = $1
			  ORDER BY version ASC`

	rows, err := querier.QueryContext(ctx, query, secretID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list secret versions")
	}
	defer func() {
		_ = rows.Close()
	}()

	versions := make([]*secretsDomain.SecretVersion, 0)
	for rows.Next() {
		var version secretsDomain.SecretVersion
		err := rows.Scan(
			&version.ID,
			&version.SecretID,
			&version.Version,
			&version.KekID,
			&version.IsActive,
			&version.CreatedBy,
			&version.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "failed to scan secret version row")
		}
		versions = append(versions, &version)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating secret version rows")
	}

	return versions, nil
}

// Deactivate clears is_active on the active version of a secret and returns
// the affected row count.
func (r *PostgreSQLSecretVersionRepository) Deactivate(ctx context.Context, secretID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE secret_versions SET is_active = FALSE WHERE secret_id = $1 AND is_active = TRUE`

	result, err := querier.ExecContext(ctx, query, secretID)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to deactivate secret version")
	}
	return rowsAffected(result, "failed to deactivate secret version")
}

// DeleteBySecretID removes every version of a secret.
func (r *PostgreSQLSecretVersionRepository) DeleteBySecretID(ctx context.Context, secretID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM secret_versions WHERE secret_id = $1`, secretID)
	if err != nil {
		return apperrors.Storage(err, "failed to delete secret versions")
	}
	return nil
}

// GetBatchNotKekID returns up to limit wrapped keys not wrapped by kekID.
func (r *PostgreSQLSecretVersionRepository) GetBatchNotKekID(
	ctx context.Context,
	kekID string,
	limit int,
) ([]*cryptoDomain.WrappedKey, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, kek_id, wrapped_key
			  FROM secret_versions
			  WHERE kek_id <> $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE`

	rows, err := querier.QueryContext(ctx, query, kekID, limit)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to get wrapped keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := make([]*cryptoDomain.WrappedKey, 0)
	for rows.Next() {
		var key cryptoDomain.WrappedKey
		if err := rows.Scan(&key.VersionID, &key.KekID, &key.WrappedKey); err != nil {
			return nil, apperrors.Storage(err, "failed to scan wrapped key row")
		}
		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating wrapped key rows")
	}

	return keys, nil
}

// UpdateWrappedKey stores a rewrapped DEK and the ID of the root key that wrapped it.
func (r *PostgreSQLSecretVersionRepository) UpdateWrappedKey(
	ctx context.Context,
	key *cryptoDomain.WrappedKey,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE secret_versions SET wrapped_key = $1, kek_id = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, key.WrappedKey, key.KekID, key.VersionID)
	if err != nil {
		return apperrors.Storage(err, "failed to update wrapped key")
	}
	affected, err := rowsAffected(result, "failed to update wrapped key")
	if err != nil {
		return err
	}
	if affected == 0 {
		return secretsDomain.ErrSecretVersionNotFound
	}
	return nil
}

func rowsAffected(result sql.Result, msg string) (int64, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Storage(err, msg)
	}
	return affected, nil
}
