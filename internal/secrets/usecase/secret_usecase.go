// Package usecase implements the secret versioning service. Every operation is
// gated by the policy engine and values are sealed by the envelope encryption
// engine before they reach a repository.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	authzUseCase "github.com/allisson/vault/internal/authz/usecase"
	cryptoService "github.com/allisson/vault/internal/crypto/service"
	"github.com/allisson/vault/internal/database"
	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
)

type secretUseCase struct {
	txManager    database.TxManager
	secretRepo   SecretRepository
	versionRepo  SecretVersionRepository
	envelope     cryptoService.EnvelopeEncrypter
	engine       authzUseCase.PolicyEngine
	revealAction string
}

// NewSecretUseCase creates a new SecretUseCase. revealAction is the secret
// action Reveal requires; an empty value falls back to read.
func NewSecretUseCase(
	txManager database.TxManager,
	secretRepo SecretRepository,
	versionRepo SecretVersionRepository,
	envelope cryptoService.EnvelopeEncrypter,
	engine authzUseCase.PolicyEngine,
	revealAction string,
) SecretUseCase {
	if revealAction == "" {
		revealAction = authzDomain.ActionRead
	}
	return &secretUseCase{
		txManager:    txManager,
		secretRepo:   secretRepo,
		versionRepo:  versionRepo,
		envelope:     envelope,
		engine:       engine,
		revealAction: revealAction,
	}
}

func (s *secretUseCase) require(ctx context.Context, principalID uuid.UUID, action string) error {
	return s.engine.Require(ctx, principalID, authzDomain.ResourceSecret, action)
}

// Create stores a new secret with its first version. The value is sealed under a
// fresh DEK and the secret row and version row are written in one transaction.
//
// Requires secret:write. A taken (path, name) pair yields ErrSecretAlreadyExists.
func (s *secretUseCase) Create(
	ctx context.Context,
	principalID uuid.UUID,
	input secretsDomain.CreateSecretInput,
) (*secretsDomain.Secret, error) {
	if err := s.require(ctx, principalID, authzDomain.ActionWrite); err != nil {
		return nil, err
	}

	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	secret := &secretsDomain.Secret{
		ID:             uuid.Must(uuid.NewV7()),
		Path:           input.Path,
		Name:           input.Name,
		CurrentVersion: 1,
		CreatedBy:      principalID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	version, err := s.sealVersion(secret.ID, 1, input.Value, principalID, now)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.secretRepo.Create(ctx, secret); err != nil {
			return err
		}
		return s.versionRepo.Create(ctx, version)
	})
	if err != nil {
		return nil, err
	}

	return secret, nil
}

func (s *secretUseCase) Get(ctx context.Context, principalID, secretID uuid.UUID) (*secretsDomain.Secret, error) {
	if err := s.require(ctx, principalID, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return s.secretRepo.Get(ctx, secretID)
}

// Reveal decrypts the active version. It is gated by the configured reveal action
// so read access alone can be kept from returning plaintext.
func (s *secretUseCase) Reveal(
	ctx context.Context,
	principalID, secretID uuid.UUID,
) (*secretsDomain.RevealedSecret, error) {
	if err := s.require(ctx, principalID, s.revealAction); err != nil {
		return nil, err
	}

	secret, err := s.secretRepo.Get(ctx, secretID)
	if err != nil {
		return nil, err
	}

	version, err := s.versionRepo.GetActive(ctx, secretID)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.envelope.DecryptSecret(version.EncryptedValue, version.WrappedKey)
	if err != nil {
		return nil, err
	}

	return &secretsDomain.RevealedSecret{
		Secret:  secret,
		Version: version.Version,
		Value:   plaintext,
	}, nil
}

// Rotate seals the new value before taking the row lock so the lock is held
// only for the three writes.
func (s *secretUseCase) Rotate(
	ctx context.Context,
	principalID, secretID uuid.UUID,
	value []byte,
) (*secretsDomain.Secret, error) {
	if err := s.require(ctx, principalID, authzDomain.ActionRotate); err != nil {
		return nil, err
	}
	if len(value) == 0 {
		return nil, secretsDomain.ErrEmptyValue
	}

	ciphertext, wrappedKey, err := s.envelope.EncryptSecret(value)
	if err != nil {
		return nil, err
	}

	var secret *secretsDomain.Secret
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.secretRepo.GetForUpdate(ctx, secretID)
		if err != nil {
			return err
		}

		deactivated, err := s.versionRepo.Deactivate(ctx, secretID)
		if err != nil {
			return err
		}
		if deactivated != 1 {
			return secretsDomain.ErrSecretVersionNotFound
		}

		now := time.Now().UTC()
		next := locked.CurrentVersion + 1
		version := &secretsDomain.SecretVersion{
			ID:             uuid.Must(uuid.NewV7()),
			SecretID:       secretID,
			Version:        next,
			EncryptedValue: ciphertext,
			WrappedKey:     wrappedKey,
			KekID:          s.envelope.RootKeyID(),
			IsActive:       true,
			CreatedBy:      principalID,
			CreatedAt:      now,
		}
		if err := s.versionRepo.Create(ctx, version); err != nil {
			return err
		}
		if err := s.secretRepo.UpdateCurrentVersion(ctx, secretID, next, now); err != nil {
			return err
		}

		locked.CurrentVersion = next
		locked.UpdatedAt = now
		secret = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return secret, nil
}

func (s *secretUseCase) List(
	ctx context.Context,
	principalID uuid.UUID,
	offset, limit int,
) ([]*secretsDomain.Secret, error) {
	if err := s.require(ctx, principalID, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return s.secretRepo.List(ctx, offset, limit)
}

func (s *secretUseCase) ListVersions(
	ctx context.Context,
	principalID, secretID uuid.UUID,
) ([]*secretsDomain.SecretVersion, error) {
	if err := s.require(ctx, principalID, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	if _, err := s.secretRepo.Get(ctx, secretID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListBySecretID(ctx, secretID)
}

func (s *secretUseCase) Delete(ctx context.Context, principalID, secretID uuid.UUID) error {
	if err := s.require(ctx, principalID, authzDomain.ActionDelete); err != nil {
		return err
	}

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.secretRepo.GetForUpdate(ctx, secretID); err != nil {
			return err
		}
		if err := s.versionRepo.DeleteBySecretID(ctx, secretID); err != nil {
			return err
		}
		return s.secretRepo.Delete(ctx, secretID)
	})
}

func (s *secretUseCase) sealVersion(
	secretID uuid.UUID,
	number int,
	value []byte,
	createdBy uuid.UUID,
	now time.Time,
) (*secretsDomain.SecretVersion, error) {
	ciphertext, wrappedKey, err := s.envelope.EncryptSecret(value)
	if err != nil {
		return nil, err
	}

	return &secretsDomain.SecretVersion{
		ID:             uuid.Must(uuid.NewV7()),
		SecretID:       secretID,
		Version:        number,
		EncryptedValue: ciphertext,
		WrappedKey:     wrappedKey,
		KekID:          s.envelope.RootKeyID(),
		IsActive:       true,
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}, nil
}
