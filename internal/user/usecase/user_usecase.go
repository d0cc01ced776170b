// Package usecase implements user administration and the administrator bootstrap.
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	authzUseCase "github.com/allisson/vault/internal/authz/usecase"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/user/domain"
)

type userUseCase struct {
	txManager    database.TxManager
	userRepo     UserRepository
	hasher       PasswordHasher
	tokenRevoker TokenRevoker
	engine       authzUseCase.PolicyEngine
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	hasher PasswordHasher,
	tokenRevoker TokenRevoker,
	engine authzUseCase.PolicyEngine,
) UserUseCase {
	return &userUseCase{
		txManager:    txManager,
		userRepo:     userRepo,
		hasher:       hasher,
		tokenRevoker: tokenRevoker,
		engine:       engine,
	}
}

func (u *userUseCase) Create(
	ctx context.Context,
	principalID uuid.UUID,
	input domain.CreateUserInput,
) (*domain.User, error) {
	if err := u.engine.Require(ctx, principalID, authzDomain.ResourceUser, authzDomain.ActionWrite); err != nil {
		return nil, err
	}

	user, err := newUser(input, u.hasher)
	if err != nil {
		return nil, err
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUseCase) Get(ctx context.Context, principalID, userID uuid.UUID) (*domain.User, error) {
	if err := u.engine.Require(ctx, principalID, authzDomain.ResourceUser, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return u.userRepo.Get(ctx, userID)
}

// Me returns the caller's own record. It needs no permission.
func (u *userUseCase) Me(ctx context.Context, principalID uuid.UUID) (*domain.User, error) {
	return u.userRepo.Get(ctx, principalID)
}

func (u *userUseCase) List(
	ctx context.Context,
	principalID uuid.UUID,
	offset, limit int,
) ([]*domain.User, error) {
	if err := u.engine.Require(ctx, principalID, authzDomain.ResourceUser, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return u.userRepo.List(ctx, offset, limit)
}

// Update changes email and password inside one transaction.
//
// Requires user:write, also when principalID equals userID. A password change
// revokes every refresh token of the user; a revocation failure rolls the
// update back.
func (u *userUseCase) Update(
	ctx context.Context,
	principalID, userID uuid.UUID,
	input domain.UpdateUserInput,
) (*domain.User, error) {
	// Changing one's own account goes through the same gate as any other.
	if err := u.engine.Require(ctx, principalID, authzDomain.ResourceUser, authzDomain.ActionWrite); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var passwordHash string
	if input.Password != nil {
		hash, err := u.hasher.Hash(*input.Password)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to hash password")
		}
		passwordHash = hash
	}

	var user *domain.User
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = u.userRepo.Get(ctx, userID)
		if err != nil {
			return err
		}

		if input.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
		}
		if passwordHash != "" {
			user.PasswordHash = passwordHash
		}
		user.UpdatedAt = time.Now().UTC()

		if err := u.userRepo.Update(ctx, user); err != nil {
			return err
		}
		if passwordHash != "" {
			if _, err := u.tokenRevoker.RevokeAll(ctx, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate marks the user inactive and revokes their refresh tokens.
// Deactivating an inactive user is a no-op.
func (u *userUseCase) Deactivate(ctx context.Context, principalID, userID uuid.UUID) error {
	if err := u.engine.Require(ctx, principalID, authzDomain.ResourceUser, authzDomain.ActionWrite); err != nil {
		return err
	}

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		user, err := u.userRepo.Get(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return nil
		}

		user.IsActive = false
		user.UpdatedAt = time.Now().UTC()
		if err := u.userRepo.Update(ctx, user); err != nil {
			return err
		}
		_, err = u.tokenRevoker.RevokeAll(ctx, user.ID)
		return err
	})
}

// Delete hard deletes the user; refresh tokens and memberships cascade.
func (u *userUseCase) Delete(ctx context.Context, principalID, userID uuid.UUID) error {
	if err := u.engine.Require(ctx, principalID, authzDomain.ResourceUser, authzDomain.ActionDelete); err != nil {
		return err
	}
	return u.userRepo.Delete(ctx, userID)
}

// newUser validates input and builds an active user with a hashed password.
func newUser(input domain.CreateUserInput, hasher PasswordHasher) (*domain.User, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	now := time.Now().UTC()
	return &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
