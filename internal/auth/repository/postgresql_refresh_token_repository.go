// Package repository provides PostgreSQL and MySQL persistence for refresh tokens.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/vault/internal/auth/domain"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
)

// PostgreSQLRefreshTokenRepository implements refresh token persistence for PostgreSQL.
type PostgreSQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLRefreshTokenRepository creates a new PostgreSQL refresh token repository.
func NewPostgreSQLRefreshTokenRepository(db *sql.DB) *PostgreSQLRefreshTokenRepository {
	return &PostgreSQLRefreshTokenRepository{db: db}
}

// Create inserts a refresh token record.
func (p *PostgreSQLRefreshTokenRepository) Create(ctx context.Context, token *authDomain.StoredRefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, revoked, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Storage(err, "failed to create refresh token")
	}
	return nil
}

// GetByHash retrieves a refresh token by its keyed hash.
func (p *PostgreSQLRefreshTokenRepository) GetByHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.StoredRefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, user_id, expires_at, revoked, created_at
			  FROM refresh_tokens WHERE token_hash = $1`

	var token authDomain.StoredRefreshToken
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Storage(err, "failed to get refresh token")
	}
	return &token, nil
}

// Revoke flips revoked on a token that is not yet revoked and returns the number
// of affected rows. Zero means another request consumed the token first.
func (p *PostgreSQLRefreshTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE`,
		tokenID,
	)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to revoke refresh token")
	}
	return rowsAffected(result, "failed to revoke refresh token")
}

// RevokeAllByUserID revokes every live refresh token of the user.
func (p *PostgreSQLRefreshTokenRepository) RevokeAllByUserID(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE user_id = $1 AND revoked = FALSE AND expires_at > $2`,
		userID,
		now,
	)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to revoke refresh tokens")
	}
	return rowsAffected(result, "failed to revoke refresh tokens")
}

// DeleteExpired removes tokens that expired before the given time.
func (p *PostgreSQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to delete expired refresh tokens")
	}
	return rowsAffected(result, "failed to delete expired refresh tokens")
}

// CountExpired counts tokens that expired before the given time.
func (p *PostgreSQLRefreshTokenRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM refresh_tokens WHERE expires_at < $1`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to count expired refresh tokens")
	}
	return count, nil
}

func rowsAffected(result sql.Result, msg string) (int64, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Storage(err, msg)
	}
	return affected, nil
}
