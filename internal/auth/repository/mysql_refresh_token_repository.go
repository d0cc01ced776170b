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

// MySQLRefreshTokenRepository implements refresh token persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewMySQLRefreshTokenRepository creates a new MySQL refresh token repository.
func NewMySQLRefreshTokenRepository(db *sql.DB) *MySQLRefreshTokenRepository {
	return &MySQLRefreshTokenRepository{db: db}
}

// Create inserts a refresh token record.
func (m *MySQLRefreshTokenRepository) Create(ctx context.Context, token *authDomain.StoredRefreshToken) error {
	querier := database.GetTx(ctx, m.db)

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal refresh token id")
	}
	userID, err := token.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, revoked, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, token.TokenHash, userID, token.ExpiresAt, token.Revoked, token.CreatedAt)
	if err != nil {
		return apperrors.Storage(err, "failed to create refresh token")
	}
	return nil
}

// GetByHash retrieves a refresh token by its keyed hash.
func (m *MySQLRefreshTokenRepository) GetByHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.StoredRefreshToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, user_id, expires_at, revoked, created_at
			  FROM refresh_tokens WHERE token_hash = ?`

	var token authDomain.StoredRefreshToken
	var id, userID []byte
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&id,
		&token.TokenHash,
		&userID,
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

	if err := token.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal refresh token id")
	}
	if err := token.UserID.UnmarshalBinary(userID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	return &token, nil
}

// Revoke flips revoked on a token that is not yet revoked and returns the number
// of affected rows.
func (m *MySQLRefreshTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal refresh token id")
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE id = ? AND revoked = FALSE`,
		id,
	)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to revoke refresh token")
	}
	return rowsAffected(result, "failed to revoke refresh token")
}

// RevokeAllByUserID revokes every live refresh token of the user.
func (m *MySQLRefreshTokenRepository) RevokeAllByUserID(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := userID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal user id")
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE user_id = ? AND revoked = FALSE AND expires_at > ?`,
		id,
		now,
	)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to revoke refresh tokens")
	}
	return rowsAffected(result, "failed to revoke refresh tokens")
}

// DeleteExpired removes tokens that expired before the given time.
func (m *MySQLRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, before)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to delete expired refresh tokens")
	}
	return rowsAffected(result, "failed to delete expired refresh tokens")
}

// CountExpired counts tokens that expired before the given time.
func (m *MySQLRefreshTokenRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM refresh_tokens WHERE expires_at < ?`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Storage(err, "failed to count expired refresh tokens")
	}
	return count, nil
}
