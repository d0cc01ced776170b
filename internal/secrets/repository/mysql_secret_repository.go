package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
)

// MySQLSecretRepository handles secret metadata persistence for MySQL using
// BINARY(16) ids.
type MySQLSecretRepository struct {
	db *sql.DB
}

// NewMySQLSecretRepository creates a new MySQLSecretRepository.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}

// Create inserts a secret. A taken path returns ErrSecretAlreadyExists.
func (r *MySQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, r.db)

	id, err := secret.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}
	createdBy, err := secret.CreatedBy.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal creator id")
	}

	query := `INSERT INTO secrets (id, path, name, current_version, created_by, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		secret.Path,
		secret.Name,
		secret.CurrentVersion,
		createdBy,
		secret.CreatedAt,
		secret.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return secretsDomain.ErrSecretAlreadyExists
		}
		return apperrors.Storage(err, "failed to create secret")
	}
	return nil
}

// Get retrieves secret metadata by ID.
func (r *MySQLSecretRepository) Get(ctx context.Context, secretID uuid.UUID) (*secretsDomain.Secret, error) {
	return r.get(ctx, secretID, `SELECT id, path, name, current_version, created_by, created_at, updated_at
			  FROM secrets WHERE id = ?`)
}

// GetForUpdate retrieves secret metadata and locks the row until the enclosing
// transaction ends. It must run inside TxManager.WithTx.
func (r *MySQLSecretRepository) GetForUpdate(
	ctx context.Context,
	secretID uuid.UUID,
) (*secretsDomain.Secret, error) {
	return r.get(ctx, secretID, `SELECT id, path, name, current_version, created_by, created_at, updated_at
			  FROM secrets WHERE id = ? FOR UPDATE`)
}

func (r *MySQLSecretRepository) get(
	ctx context.Context,
	secretID uuid.UUID,
	query string,
) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal secret id")
	}

	secret, err := scanMySQLSecret(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretNotFound
		}
		return nil, err
	}
	return secret, nil
}

// List retrieves secret metadata ordered by path with pagination.
func (r *MySQLSecretRepository) List(ctx context.Context, offset, limit int) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, path, name, current_version, created_by, created_at, updated_at
			  FROM secrets
			  ORDER BY path ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list secrets")
	}
	defer func() {
		_ = rows.Close()
	}()

	secrets := make([]*secretsDomain.Secret, 0)
	for rows.Next() {
		secret, err := scanMySQLSecret(rows)
		if err != nil {
			return nil, err
		}
		secrets = append(secrets, secret)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating secret rows")
	}

	return secrets, nil
}

// UpdateCurrentVersion sets current_version and updated_at.
func (r *MySQLSecretRepository) UpdateCurrentVersion(
	ctx context.Context,
	secretID uuid.UUID,
	version int,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	query := `UPDATE secrets SET current_version = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, version, updatedAt, id)
	if err != nil {
		return apperrors.Storage(err, "failed to update secret version")
	}
	return requireAffected(result, "failed to update secret version")
}

// Delete removes a secret row. Versions must be removed first.
func (r *MySQLSecretRepository) Delete(ctx context.Context, secretID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	id, err := secretID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE id = ?`, id)
	if err != nil {
		return apperrors.Storage(err, "failed to delete secret")
	}
	return requireAffected(result, "failed to delete secret")
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanMySQLSecret returns sql.ErrNoRows unwrapped so single-row callers can map it.
func scanMySQLSecret(row rowScanner) (*secretsDomain.Secret, error) {
	var secret secretsDomain.Secret
	var idBytes, createdByBytes []byte
	err := row.Scan(
		&idBytes,
		&secret.Path,
		&secret.Name,
		&secret.CurrentVersion,
		&createdByBytes,
		&secret.CreatedAt,
		&secret.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Storage(err, "failed to scan secret")
	}
	if err := secret.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal secret id")
	}
	if err := secret.CreatedBy.UnmarshalBinary(createdByBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal creator id")
	}
	return &secret, nil
}
