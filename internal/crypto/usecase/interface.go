// Package usecase contains the key maintenance workflows of the envelope
// encryption engine.
package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
)

// WrappedKeyRepository gives the rewrap workflow access to stored wrapped DEKs
// without exposing secret payloads.
type WrappedKeyRepository interface {
	// GetBatchNotKekID returns up to limit wrapped keys whose KekID differs from kekID.
	GetBatchNotKekID(ctx context.Context, kekID string, limit int) ([]*cryptoDomain.WrappedKey, error)

	// UpdateWrappedKey stores a new wrapped DEK and KekID for a version.
	UpdateWrappedKey(ctx context.Context, key *cryptoDomain.WrappedKey) error
}

// RewrapUseCase moves stored DEKs from a previous root key to the active one.
type RewrapUseCase interface {
	// Rewrap processes one batch and returns how many keys were rewrapped.
	// Callers loop until it returns 0.
	Rewrap(ctx context.Context, oldKEK, newKEK *cryptoDomain.RootKey, batchSize int) (int, error)
}
