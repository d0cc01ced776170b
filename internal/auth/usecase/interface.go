// Package usecase implements the token lifecycle: login, issue, single-use
// refresh, stateless access validation and revocation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/vault/internal/auth/domain"
	userDomain "github.com/allisson/vault/internal/user/domain"
)

// RefreshTokenRepository persists refresh token records.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *authDomain.StoredRefreshToken) error

	// GetByHash returns ErrRefreshTokenNotFound when no record matches.
	GetByHash(ctx context.Context, tokenHash string) (*authDomain.StoredRefreshToken, error)

	// Revoke marks a token revoked only if it is not revoked yet and returns
	// the affected row count.
	Revoke(ctx context.Context, tokenID uuid.UUID) (int64, error)

	// RevokeAllByUserID revokes every token of the user that is neither revoked
	// nor expired at now.
	RevokeAllByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)

	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	CountExpired(ctx context.Context, before time.Time) (int64, error)
}

// UserReader is the slice of the user store authentication needs.
type UserReader interface {
	Get(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userDomain.User, error)
}

// TokenUseCase manages access and refresh tokens.
type TokenUseCase interface {
	// Login verifies credentials and issues a pair. Unknown users, wrong
	// passwords and inactive users all return ErrInvalidCredentials.
	Login(ctx context.Context, input authDomain.LoginInput) (*authDomain.TokenPair, error)

	// Issue creates a pair for userID and persists the refresh token hash.
	Issue(ctx context.Context, userID uuid.UUID) (*authDomain.TokenPair, error)

	// Refresh exchanges a refresh token for a new pair. The presented token is
	// consumed; presenting it again revokes every refresh token of its owner.
	Refresh(ctx context.Context, refreshToken string) (*authDomain.TokenPair, error)

	// ValidateAccess verifies an access token without touching the store.
	ValidateAccess(accessToken string) (uuid.UUID, error)

	// RevokeAll revokes the user's live refresh tokens. Access tokens already
	// issued stay valid until they expire.
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)

	// CleanExpired deletes refresh tokens past their expiry, or only counts
	// them when dryRun is set.
	CleanExpired(ctx context.Context, dryRun bool) (int64, error)
}
