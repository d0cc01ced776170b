package app

import (
	"database/sql"

	secretsHTTP "github.com/allisson/vault/internal/secrets/http"
	secretsRepository "github.com/allisson/vault/internal/secrets/repository"
	secretsUseCase "github.com/allisson/vault/internal/secrets/usecase"
)

type secretComponents struct {
	secretRepo    lazy[secretsUseCase.SecretRepository]
	versionRepo   lazy[secretsUseCase.SecretVersionRepository]
	secretUseCase lazy[secretsUseCase.SecretUseCase]
	secretHandler lazy[*secretsHTTP.SecretHandler]
}

// SecretRepository returns the secret store for the configured driver.
func (c *Container) SecretRepository() (secretsUseCase.SecretRepository, error) {
	return c.secretRepo.get(func() (secretsUseCase.SecretRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) secretsUseCase.SecretRepository {
				return secretsRepository.NewPostgreSQLSecretRepository(db)
			},
			func(db *sql.DB) secretsUseCase.SecretRepository {
				return secretsRepository.NewMySQLSecretRepository(db)
			},
		)
	})
}

// SecretVersionRepository returns the secret version store for the configured driver.
func (c *Container) SecretVersionRepository() (secretsUseCase.SecretVersionRepository, error) {
	return c.versionRepo.get(func() (secretsUseCase.SecretVersionRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) secretsUseCase.SecretVersionRepository {
				return secretsRepository.NewPostgreSQLSecretVersionRepository(db)
			},
			func(db *sql.DB) secretsUseCase.SecretVersionRepository {
				return secretsRepository.NewMySQLSecretVersionRepository(db)
			},
		)
	})
}

// SecretUseCase returns the secret versioning service, instrumented with metrics.
func (c *Container) SecretUseCase() (secretsUseCase.SecretUseCase, error) {
	return c.secretUseCase.get(func() (secretsUseCase.SecretUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		secretRepo, err := c.SecretRepository()
		if err != nil {
			return nil, err
		}
		versionRepo, err := c.SecretVersionRepository()
		if err != nil {
			return nil, err
		}
		envelope, err := c.Envelope()
		if err != nil {
			return nil, err
		}
		engine, err := c.PolicyEngine()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := secretsUseCase.NewSecretUseCase(
			txManager,
			secretRepo,
			versionRepo,
			envelope,
			engine,
			c.config.SecretRevealAction,
		)
		return secretsUseCase.NewSecretUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// SecretHandler returns the /v1/secrets handler.
func (c *Container) SecretHandler() (*secretsHTTP.SecretHandler, error) {
	return c.secretHandler.get(func() (*secretsHTTP.SecretHandler, error) {
		useCase, err := c.SecretUseCase()
		if err != nil {
			return nil, err
		}
		sink, err := c.AuditSink()
		if err != nil {
			return nil, err
		}
		return secretsHTTP.NewSecretHandler(useCase, sink, c.Logger()), nil
	})
}
