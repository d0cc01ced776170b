// Package usecase implements the secret versioning service. Every operation is
// gated by the policy engine and values are sealed by the envelope encryption
// engine before they reach a repository.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
)

// SecretRepository persists secret metadata.
type SecretRepository interface {
	Create(ctx context.Context, secret *secretsDomain.Secret) error
	Get(ctx context.Context, secretID uuid.UUID) (*secretsDomain.Secret, error)

	// GetForUpdate locks the secret row for the rest of the transaction.
	GetForUpdate(ctx context.Context, secretID uuid.UUID) (*secretsDomain.Secret, error)

	List(ctx context.Context, offset, limit int) ([]*secretsDomain.Secret, error)
	UpdateCurrentVersion(ctx context.Context, secretID uuid.UUID, version int, updatedAt time.Time) error
	Delete(ctx context.Context, secretID uuid.UUID) error
}

// SecretVersionRepository persists encrypted secret versions.
type SecretVersionRepository interface {
	Create(ctx context.Context, version *secretsDomain.SecretVersion) error
	GetActive(ctx context.Context, secretID uuid.UUID) (*secretsDomain.SecretVersion, error)

	// ListBySecretID returns metadata only; EncryptedValue and WrappedKey are nil.
	ListBySecretID(ctx context.Context, secretID uuid.UUID) ([]*secretsDomain.SecretVersion, error)

	// Deactivate clears the active flag and returns the affected row count.
	Deactivate(ctx context.Context, secretID uuid.UUID) (int64, error)

	DeleteBySecretID(ctx context.Context, secretID uuid.UUID) error
}

// SecretUseCase manages secrets on behalf of an authenticated principal.
type SecretUseCase interface {
	// Create stores a secret and its first version in one transaction.
	Create(
		ctx context.Context,
		principalID uuid.UUID,
		input secretsDomain.CreateSecretInput,
	) (*secretsDomain.Secret, error)

	// Get returns metadata only.
	Get(ctx context.Context, principalID, secretID uuid.UUID) (*secretsDomain.Secret, error)

	// Reveal decrypts the active version. Callers must zero the returned value.
	Reveal(ctx context.Context, principalID, secretID uuid.UUID) (*secretsDomain.RevealedSecret, error)

	// Rotate appends a version holding value and makes it the active one.
	Rotate(ctx context.Context, principalID, secretID uuid.UUID, value []byte) (*secretsDomain.Secret, error)

	List(ctx context.Context, principalID uuid.UUID, offset, limit int) ([]*secretsDomain.Secret, error)

	// ListVersions returns version metadata, never values.
	ListVersions(ctx context.Context, principalID, secretID uuid.UUID) ([]*secretsDomain.SecretVersion, error)

	// Delete removes the secret and all of its versions.
	Delete(ctx context.Context, principalID, secretID uuid.UUID) error
}
