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

// MySQLSecretVersionRepository handles secret version persistence for MySQL.
// MySQL has no partial indexes, so the single active version per secret is
// enforced by the row lock taken in the rotate transaction.
type MySQLSecretVersionRepository struct {
	db *sql.DB
}

// NewMySQLSecretVersionRepository creates a new MySQLSecretVersionRepository.
func NewMySQLSecretVersionRepository(db *sql.DB) *MySQLSecretVersionRepository {
	return &MySQLSecretVersionRepository{db: db}
}

// Create inserts a version. A duplicate (secret_id, version) returns ErrConflict.
func (r *MySQLSecretVersionRepository) Create(ctx context.Context, version *secretsDomain.SecretVersion) error {
	querier := database.GetTx(ctx, r.db)

	id, err := version.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal version id")
	}
	secretID, err := version.SecretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}
	createdBy, err := version.CreatedBy.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal creator id")
	}

	query := `INSERT INTO secret_versions
			  (id, secret_id, version, encrypted_value, wrapped_key, kek_id, is_active, created_by, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		secretID,
		version.Version,
		version.EncryptedValue,
		version.WrappedKey,
		version.KekID,
		version.IsActive,
		createdBy,
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
func (r *MySQLSecretVersionRepository) GetActive(
	ctx context.Context,
	secretID uuid.UUID,
) (*secretsDomain.SecretVersion, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `SELECT id, secret_id, version, encrypted_value, wrapped_key, kek_id, is_active, created_by, created_at
			  FROM secret_versions
			  WHERE secret_id = ? AND is_active = TRUE`

	var version secretsDomain.SecretVersion
	var idBytes, secretIDBytes, createdByBytes []byte
	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&secretIDBytes,
		&version.Version,
		&version.EncryptedValue,
		&version.WrappedKey,
		&version.KekID,
		&version.IsActive,
		&createdByBytes,
		&version.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretVersionNotFound
		}
		return nil, apperrors.Storage(err, "failed to get active secret version")
	}
	if err := unmarshalVersionIDs(&version, idBytes, secretIDBytes, createdByBytes); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListBySecretID returns version metadata ordered by version.
func (r *MySQLSecretVersionRepository) ListBySecretID(
	ctx context.Context,
	secretID uuid.UUID,
) ([]*secretsDomain.SecretVersion, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `SELECT id, secret_id, version, kek_id, is_active, created_by, created_at
			  FROM secret_versions
			  WHERE secret_id = ?
			  ORDER BY version ASC`

	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list secret versions")
	}
	defer func() {
		_ = rows.Close()
	}()

	versions := make([]*secretsDomain.SecretVersion, 0)
	for rows.Next() {
		var version secretsDomain.SecretVersion
		var idBytes, secretIDBytes, createdByBytes []byte
		err := rows.Scan(
			&idBytes,
			&secretIDBytes,
			&version.Version,
			&version.KekID,
			&version.IsActive,
			&createdByBytes,
			&version.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "failed to scan secret version row")
		}
		if err := unmarshalVersionIDs(&version, idBytes, secretIDBytes, createdByBytes); err != nil {
			return nil, err
		}
		versions = append(versions, &version)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating secret version rows")
	}

	return versions, nil
}

// Deactivate clears is_active on the active version of a secret.
func (r *MySQLSecretVersionRepository) Deactivate(ctx context.Context, secretID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `UPDATE secret_versions SET is_active = FALSE WHERE secret_id = ? AND is_active = TRUE`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to deactivate secret version")
	}
	return rowsAffected(result, "failed to deactivate secret version")
}

// DeleteBySecretID removes every version of a secret.
func (r *MySQLSecretVersionRepository) DeleteBySecretID(ctx context.Context, secretID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM secret_versions WHERE secret_id = ?`, id); err != nil {
		return apperrors.Storage(err, "failed to delete secret versions")
	}
	return nil
}

// GetBatchNotKekID returns up to limit wrapped keys not wrapped by kekID.
func (r *MySQLSecretVersionRepository) GetBatchNotKekID(
	ctx context.Context,
	kekID string,
	limit int,
) ([]*cryptoDomain.WrappedKey, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, kek_id, wrapped_key
			  FROM secret_versions
			  WHERE kek_id <> ?
			  ORDER BY created_at ASC
			  LIMIT ?
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
		var idBytes []byte
		if err := rows.Scan(&idBytes, &key.KekID, &key.WrappedKey); err != nil {
			return nil, apperrors.Storage(err, "failed to scan wrapped key row")
		}
		if err := key.VersionID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal version id")
		}
		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating wrapped key rows")
	}

	return keys, nil
}

// UpdateWrappedKey stores a rewrapped DEK and the ID of the root key that wrapped it.
func (r *MySQLSecretVersionRepository) UpdateWrappedKey(ctx context.Context, key *cryptoDomain.WrappedKey) error {
	querier := database.GetTx(ctx, r.db)

	id, err := key.VersionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal version id")
	}

	query := `UPDATE secret_versions SET wrapped_key = ?, kek_id = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, key.WrappedKey, key.KekID, id)
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

func unmarshalVersionIDs(version *secretsDomain.SecretVersion, id, secretID, createdBy []byte) error {
	if err := version.ID.UnmarshalBinary(id); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal version id")
	}
	if err := version.SecretID.UnmarshalBinary(secretID); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal secret id")
	}
	if err := version.CreatedBy.UnmarshalBinary(createdBy); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal creator id")
	}
	return nil
}
