package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	cryptoService "github.com/allisson/vault/internal/crypto/service"
	cryptoUseCase "github.com/allisson/vault/internal/crypto/usecase"
	secretsRepository "github.com/allisson/vault/internal/secrets/repository"
)

const rootKeyLoadTimeout = 30 * time.Second

type cryptoComponents struct {
	kmsService      lazy[cryptoService.KMSService]
	rootKey         lazy[*cryptoDomain.RootKey]
	previousRootKey lazy[*cryptoDomain.RootKey]
	envelope        lazy[*cryptoService.EnvelopeService]
	wrappedKeyRepo  lazy[cryptoUseCase.WrappedKeyRepository]
	rewrapUseCase   lazy[cryptoUseCase.RewrapUseCase]
}

// KMSService returns the gocloud.dev backed KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	kms, _ := c.kmsService.get(func() (cryptoService.KMSService, error) {
		return cryptoService.NewKMSService(), nil
	})
	return kms
}

// RootKey returns the active root KEK, unwrapped through KMS when KMS_KEY_URI is set.
func (c *Container) RootKey() (*cryptoDomain.RootKey, error) {
	return c.rootKey.get(func() (*cryptoDomain.RootKey, error) {
		return c.loadRootKey(c.config.RootKEKID, c.config.RootKEK)
	})
}

// PreviousRootKey returns the root KEK being rotated out, or nil when none is configured.
func (c *Container) PreviousRootKey() (*cryptoDomain.RootKey, error) {
	return c.previousRootKey.get(func() (*cryptoDomain.RootKey, error) {
		if c.config.PreviousRootKEK == "" {
			return nil, nil
		}
		return c.loadRootKey(c.config.PreviousRootKEKID, c.config.PreviousRootKEK)
	})
}

func (c *Container) loadRootKey(id, encoded string) (*cryptoDomain.RootKey, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rootKeyLoadTimeout)
	defer cancel()

	key, err := cryptoService.LoadRootKey(ctx, c.KMSService(), id, encoded, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to load root key %s: %w", id, err)
	}
	return key, nil
}

// Envelope returns the envelope encryption engine bound to the active root key.
func (c *Container) Envelope() (*cryptoService.EnvelopeService, error) {
	return c.envelope.get(func() (*cryptoService.EnvelopeService, error) {
		rootKey, err := c.RootKey()
		if err != nil {
			return nil, err
		}
		alg, err := cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption algorithm %q: %w", c.config.EncryptionAlgorithm, err)
		}
		return cryptoService.NewEnvelopeService(cryptoService.NewAEADManager(), rootKey, alg), nil
	})
}

// WrappedKeyRepository exposes the wrapped DEKs stored on secret versions.
func (c *Container) WrappedKeyRepository() (cryptoUseCase.WrappedKeyRepository, error) {
	return c.wrappedKeyRepo.get(func() (cryptoUseCase.WrappedKeyRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) cryptoUseCase.WrappedKeyRepository {
				return secretsRepository.NewPostgreSQLSecretVersionRepository(db)
			},
			func(db *sql.DB) cryptoUseCase.WrappedKeyRepository {
				return secretsRepository.NewMySQLSecretVersionRepository(db)
			},
		)
	})
}

// RewrapUseCase returns the DEK rewrap workflow.
func (c *Container) RewrapUseCase() (cryptoUseCase.RewrapUseCase, error) {
	return c.rewrapUseCase.get(func() (cryptoUseCase.RewrapUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		repo, err := c.WrappedKeyRepository()
		if err != nil {
			return nil, err
		}
		envelope, err := c.Envelope()
		if err != nil {
			return nil, err
		}
		return cryptoUseCase.NewRewrapUseCase(txManager, repo, envelope), nil
	})
}
