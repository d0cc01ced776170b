package usecase

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	cryptoService "github.com/allisson/vault/internal/crypto/service"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
)

type rewrapUseCase struct {
	txManager      database.TxManager
	wrappedKeyRepo WrappedKeyRepository
	envelope       cryptoService.EnvelopeEncrypter
}

// Rewrap rewraps one batch of DEKs inside a single transaction. Payload
// ciphertexts are never read.
func (r *rewrapUseCase) Rewrap(
	ctx context.Context,
	oldKEK, newKEK *cryptoDomain.RootKey,
	batchSize int,
) (int, error) {
	if batchSize <= 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "batch size must be positive")
	}

	count := 0
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		keys, err := r.wrappedKeyRepo.GetBatchNotKekID(ctx, newKEK.ID, batchSize)
		if err != nil {
			return err
		}

		for _, key := range keys {
			if oldKEK == nil || key.KekID != oldKEK.ID {
				return fmt.Errorf("%w: %s", cryptoDomain.ErrUnknownRootKey, key.KekID)
			}

			rewrapped, err := r.envelope.RewrapKey(key.WrappedKey, oldKEK, newKEK)
			if err != nil {
				return fmt.Errorf("failed to rewrap key of version %s: %w", key.VersionID, err)
			}

			key.KekID = newKEK.ID
			key.WrappedKey = rewrapped
			if err := r.wrappedKeyRepo.UpdateWrappedKey(ctx, key); err != nil {
				return err
			}
		}

		count = len(keys)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// NewRewrapUseCase creates a new RewrapUseCase.
func NewRewrapUseCase(
	txManager database.TxManager,
	wrappedKeyRepo WrappedKeyRepository,
	envelope cryptoService.EnvelopeEncrypter,
) RewrapUseCase {
	return &rewrapUseCase{
		txManager:      txManager,
		wrappedKeyRepo: wrappedKeyRepo,
		envelope:       envelope,
	}
}
