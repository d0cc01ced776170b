// Package repository provides PostgreSQL and MySQL persistence for secrets and
// their encrypted versions.
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

// PostgreSQLSecretRepository handles secret metadata persistence for PostgreSQL.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecretRepository creates a new PostgreSQLSecretRepository.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}

// Create inserts a secret. A taken path returns ErrSecretAlreadyExists.
func (r *PostgreSQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO secrets (id, path, name, current_version, created_by, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.Path,
		secret.Name,
		secret.CurrentVersion,
		secret.CreatedBy,
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
func (r *PostgreSQLSecretRepository) Get(ctx context.Context, secretID uuid.UUID) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, path, name, current_version, created_by, created_at, updated_at
			  FROM secrets WHERE id = $1`

	return scanPostgreSQLSecret(querier.QueryRowContext(ctx, query, secretID))
}

// GetForUpdate retrieves secret metadata and locks the row until the enclosing
// transaction ends. It must run inside TxManager.WithTx.
func (r *PostgreSQLSecretRepository) GetForUpdate(
	ctx context.Context,
	secretID uuid.UUID,
) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, path, name, current_version, created_by, created_at, updated_at
			  FROM secrets WHERE id = $1 FOR UPDATE`

	return scanPostgreSQLSecret(querier.QueryRowContext(ctx, query, secretID))
}

// List retrieves secret metadata ordered by path with pagination.
func (r *PostgreSQLSecretRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, path, name, current_version, created_by, created_at, updated_at
			  FROM secrets
			  ORDER BY path ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list secrets")
	}
	defer func() {
		_ = rows.Close()
	}()

	secrets := make([]*secretsDomain.Secret, 0)
	for rows.Next() {
		var secret secretsDomain.Secret
		err := rows.Scan(
			&secret.ID,
			&secret.Path,
			&secret.Name,
			&secret.CurrentVersion,
			&secret.CreatedBy,
			&secret.CreatedAt,
			&secret.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "failed to scan secret row")
		}
		secrets = append(secrets, &secret)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating secret rows")
	}

	return secrets, nil
}

// UpdateCurrentVersion sets current_version and updated_at.
func (r *PostgreSQLSecretRepository) UpdateCurrentVersion(
	ctx context.Context,
	secretID uuid.UUID,
	version int,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE secrets SET current_version = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, version, updatedAt, secretID)
	if err != nil {
		return apperrors.Storage(err, "failed to update secret version")
	}
	return requireAffected(result, "failed to update secret version")
}

// Delete removes a secret row. Versions must be removed first, see
// PostgreSQLSecretVersionRepository.DeleteBySecretID.
func (r *PostgreSQLSecretRepository) Delete(ctx context.Context, secretID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE id = $1`, secretID)
	if err != nil {
		return apperrors.Storage(err, "failed to delete secret")
	}
	return requireAffected(result, "failed to delete secret")
}

func scanPostgreSQLSecret(row *sql.Row) (*secretsDomain.Secret, error) {
	var secret secretsDomain.Secret
	err := row.Scan(
		&secret.ID,
		&secret.Path,
		&secret.Name,
		&secret.CurrentVersion,
		&secret.CreatedBy,
		&secret.CreatedAt,
		&secret.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretNotFound
		}
		return nil, apperrors.Storage(err, "failed to get secret")
	}
	return &secret, nil
}

func requireAffected(result sql.Result, msg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(err, msg)
	}
	if affected == 0 {
		return secretsDomain.ErrSecretNotFound
	}
	return nil
}
