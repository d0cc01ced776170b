// Package usecase implements user administration and the administrator bootstrap.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/vault/internal/user/domain"
)

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PasswordHasher hashes user passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// TokenRevoker revokes a user's outstanding refresh tokens.
type TokenRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// UserUseCase administers users. Every method takes the acting principal.
type UserUseCase interface {
	Create(ctx context.Context, principalID uuid.UUID, input domain.CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, principalID, userID uuid.UUID) (*domain.User, error)
	// Me returns the principal's own record without a permission check.
	Me(ctx context.Context, principalID uuid.UUID) (*domain.User, error)
	List(ctx context.Context, principalID uuid.UUID, offset, limit int) ([]*domain.User, error)
	// Update changes email or password. Users may update themselves; a password
	// change revokes every refresh token of the user.
	Update(ctx context.Context, principalID, userID uuid.UUID, input domain.UpdateUserInput) (*domain.User, error)
	// Deactivate soft deletes the user and revokes their refresh tokens.
	Deactivate(ctx context.Context, principalID, userID uuid.UUID) error
	Delete(ctx context.Context, principalID, userID uuid.UUID) error
}

// BootstrapUseCase creates the first administrator.
type BootstrapUseCase interface {
	// CreateAdmin creates the user, an "admin" role holding an allow policy for
	// every built-in permission (reused if present) and the membership, in one
	// transaction.
	CreateAdmin(ctx context.Context, input domain.CreateUserInput) (*domain.User, error)
}
