// Package usecase implements the token lifecycle: login, issue, single-use
// refresh, stateless access validation and revocation.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/vault/internal/auth/domain"
	authService "github.com/allisson/vault/internal/auth/service"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
	userDomain "github.com/allisson/vault/internal/user/domain"
)

// TokenConfig holds the token lifetimes.
type TokenConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type tokenUseCase struct {
	cfg            TokenConfig
	txManager      database.TxManager
	tokenRepo      RefreshTokenRepository
	userRepo       UserReader
	passwordHasher authService.PasswordHasher
	tokenHasher    authService.TokenHasher
	signer         authService.TokenSigner
	logger         *slog.Logger
	now            func() time.Time
}

// NewTokenUseCase creates a new TokenUseCase.
func NewTokenUseCase(
	cfg TokenConfig,
	txManager database.TxManager,
	tokenRepo RefreshTokenRepository,
	userRepo UserReader,
	passwordHasher authService.PasswordHasher,
	tokenHasher authService.TokenHasher,
	signer authService.TokenSigner,
	logger *slog.Logger,
) TokenUseCase {
	return &tokenUseCase{
		cfg:            cfg,
		txManager:      txManager,
		tokenRepo:      tokenRepo,
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		tokenHasher:    tokenHasher,
		signer:         signer,
		logger:         logger,
		now:            time.Now,
	}
}

// Login verifies username and password and issues a new token pair.
//
// Security Notes:
//   - Returns ErrInvalidCredentials for unknown users, wrong passwords and
//     inactive accounts alike to prevent user enumeration
//   - Unknown usernames still pay the full hashing cost
//   - The refresh token is only stored as a hash
func (t *tokenUseCase) Login(ctx context.Context, input authDomain.LoginInput) (*authDomain.TokenPair, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := t.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			// Burn the same hashing cost as a real check.
			t.passwordHasher.Verify(input.Password, "")
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !t.passwordHasher.Verify(input.Password, user.PasswordHash) || !user.IsActive {
		return nil, authDomain.ErrInvalidCredentials
	}

	return t.Issue(ctx, user.ID)
}

// Issue signs an access and refresh token for userID and records the refresh
// token hash. Callers inside WithTx share the transaction.
func (t *tokenUseCase) Issue(ctx context.Context, userID uuid.UUID) (*authDomain.TokenPair, error) {
	accessToken, accessClaims, err := t.signer.Sign(userID, authDomain.AccessToken, t.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshClaims, err := t.signer.Sign(userID, authDomain.RefreshToken, t.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	record := &authDomain.StoredRefreshToken{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: t.tokenHasher.Hash(refreshToken),
		UserID:    userID,
		ExpiresAt: refreshClaims.ExpiresAt,
		CreatedAt: t.now().UTC(),
	}
	if err := t.tokenRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &authDomain.TokenPair{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessClaims.ExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// Refresh consumes a refresh token and issues a new pair.
//
// The lookup, revoke and issue run in one transaction; the conditional revoke
// lets exactly one of two concurrent refreshes succeed.
//
// Returns:
//   - A new token pair when the token is valid, unconsumed and its owner active
//   - ErrInvalidToken for bad signatures, wrong type, unknown or expired tokens
//   - *ReusedTokenError (matching ErrRefreshTokenReused) when an already consumed
//     token is presented; every refresh token of the owner is revoked first
func (t *tokenUseCase) Refresh(ctx context.Context, refreshToken string) (*authDomain.TokenPair, error) {
	// Parse and Hash must see the same bytes.
	refreshToken = strings.TrimSpace(refreshToken)
	claims, err := t.signer.Parse(refreshToken, authDomain.RefreshToken)
	if err != nil {
		return nil, err
	}
	tokenHash := t.tokenHasher.Hash(refreshToken)

	var pair *authDomain.TokenPair
	var owner uuid.UUID
	err = t.txManager.WithTx(ctx, func(ctx context.Context) error {
		stored, err := t.tokenRepo.GetByHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, authDomain.ErrRefreshTokenNotFound) {
				return authDomain.ErrInvalidToken
			}
			return err
		}
		if stored.UserID != claims.UserID {
			return authDomain.ErrInvalidToken
		}
		owner = stored.UserID

		if stored.Revoked {
			return authDomain.ErrRefreshTokenReused
		}
		if !stored.Usable(t.now().UTC()) {
			return authDomain.ErrInvalidToken
		}

		// A concurrent refresh of the same token loses here.
		affected, err := t.tokenRepo.Revoke(ctx, stored.ID)
		if err != nil {
			return err
		}
		if affected != 1 {
			return authDomain.ErrRefreshTokenReused
		}

		user, err := t.userRepo.Get(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, userDomain.ErrUserNotFound) {
				return authDomain.ErrInvalidToken
			}
			return err
		}
		if !user.IsActive {
			return authDomain.ErrInvalidToken
		}

		pair, err = t.Issue(ctx, user.ID)
		return err
	})
	if errors.Is(err, authDomain.ErrRefreshTokenReused) {
		t.revokeReused(ctx, owner)
		return nil, &authDomain.ReusedTokenError{UserID: owner}
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// revokeReused revokes every token of a user whose consumed refresh token was
// presented again. It runs after the refresh transaction rolled back.
func (t *tokenUseCase) revokeReused(ctx context.Context, userID uuid.UUID) {
	revoked, err := t.RevokeAll(ctx, userID)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to revoke tokens after refresh token reuse",
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
		return
	}
	t.logger.WarnContext(ctx, "refresh token reuse detected, revoked all refresh tokens",
		slog.String("user_id", userID.String()),
		slog.Int64("revoked", revoked),
	)
}

func (t *tokenUseCase) ValidateAccess(accessToken string) (uuid.UUID, error) {
	claims, err := t.signer.Parse(accessToken, authDomain.AccessToken)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

func (t *tokenUseCase) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return t.tokenRepo.RevokeAllByUserID(ctx, userID, t.now().UTC())
}

func (t *tokenUseCase) CleanExpired(ctx context.Context, dryRun bool) (int64, error) {
	before := t.now().UTC()
	if dryRun {
		return t.tokenRepo.CountExpired(ctx, before)
	}
	count, err := t.tokenRepo.DeleteExpired(ctx, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to clean expired refresh tokens")
	}
	return count, nil
}
