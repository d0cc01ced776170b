package domain

import (
	"github.com/google/uuid"

	"github.com/allisson/vault/internal/errors"
)

// Authentication errors. All of them unwrap to errors.ErrUnauthorized so callers
// cannot tell which check failed.
var (
	// ErrInvalidCredentials covers an unknown username, a wrong password and an inactive user.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidToken covers bad signatures, expiry, wrong type and unknown refresh tokens.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrRefreshTokenReused signals an already consumed refresh token was presented again.
	ErrRefreshTokenReused = errors.Wrap(errors.ErrUnauthorized, "refresh token reused")

	// ErrRefreshTokenNotFound indicates no stored refresh token matches the hash.
	ErrRefreshTokenNotFound = errors.Wrap(errors.ErrNotFound, "refresh token not found")
)

// ReusedTokenError reports which user presented a consumed refresh token. It
// matches ErrRefreshTokenReused and therefore errors.ErrUnauthorized.
type ReusedTokenError struct {
	UserID uuid.UUID
}

func (e *ReusedTokenError) Error() string {
	return ErrRefreshTokenReused.Error()
}

func (e *ReusedTokenError) Unwrap() error {
	return ErrRefreshTokenReused
}
