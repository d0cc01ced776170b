package app

import (
	"database/sql"
	"fmt"

	authHTTP "github.com/allisson/vault/internal/auth/http"
	authRepository "github.com/allisson/vault/internal/auth/repository"
	authService "github.com/allisson/vault/internal/auth/service"
	authUseCase "github.com/allisson/vault/internal/auth/usecase"
)

type authComponents struct {
	passwordHasher   lazy[authService.PasswordHasher]
	tokenHasher      lazy[authService.TokenHasher]
	tokenSigner      lazy[authService.TokenSigner]
	refreshTokenRepo lazy[authUseCase.RefreshTokenRepository]
	tokenUseCase     lazy[authUseCase.TokenUseCase]
	tokenHandler     lazy[*authHTTP.TokenHandler]
}

// PasswordHasher returns the argon2id credential hasher.
func (c *Container) PasswordHasher() (authService.PasswordHasher, error) {
	return c.passwordHasher.get(authService.NewPasswordHasher)
}

// TokenHasher returns the refresh token digest.
func (c *Container) TokenHasher() (authService.TokenHasher, error) {
	return c.tokenHasher.get(func() (authService.TokenHasher, error) {
		return authService.NewTokenHasher([]byte(c.config.JWTSigningKey))
	})
}

// TokenSigner returns the JWT signer.
func (c *Container) TokenSigner() (authService.TokenSigner, error) {
	return c.tokenSigner.get(func() (authService.TokenSigner, error) {
		signer, err := authService.NewTokenSigner(
			[]byte(c.config.JWTSigningKey),
			c.config.JWTSigningAlgorithm,
			c.config.JWTIssuer,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create token signer: %w", err)
		}
		return signer, nil
	})
}

// RefreshTokenRepository returns the refresh token store for the configured driver.
func (c *Container) RefreshTokenRepository() (authUseCase.RefreshTokenRepository, error) {
	return c.refreshTokenRepo.get(func() (authUseCase.RefreshTokenRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) authUseCase.RefreshTokenRepository {
				return authRepository.NewPostgreSQLRefreshTokenRepository(db)
			},
			func(db *sql.DB) authUseCase.RefreshTokenRepository {
				return authRepository.NewMySQLRefreshTokenRepository(db)
			},
		)
	})
}

// TokenUseCase returns the token lifecycle manager, instrumented with metrics.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	return c.tokenUseCase.get(func() (authUseCase.TokenUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		tokenRepo, err := c.RefreshTokenRepository()
		if err != nil {
			return nil, err
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			return nil, err
		}
		passwordHasher, err := c.PasswordHasher()
		if err != nil {
			return nil, err
		}
		tokenHasher, err := c.TokenHasher()
		if err != nil {
			return nil, err
		}
		signer, err := c.TokenSigner()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := authUseCase.NewTokenUseCase(
			authUseCase.TokenConfig{
				AccessTokenTTL:  c.config.AccessTokenTTL,
				RefreshTokenTTL: c.config.RefreshTokenTTL,
			},
			txManager,
			tokenRepo,
			userRepo,
			passwordHasher,
			tokenHasher,
			signer,
			c.Logger(),
		)
		return authUseCase.NewTokenUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// TokenHandler returns the /v1/auth handler.
func (c *Container) TokenHandler() (*authHTTP.TokenHandler, error) {
	return c.tokenHandler.get(func() (*authHTTP.TokenHandler, error) {
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			return nil, err
		}
		sink, err := c.AuditSink()
		if err != nil {
			return nil, err
		}
		return authHTTP.NewTokenHandler(tokenUseCase, sink, c.Logger()), nil
	})
}
