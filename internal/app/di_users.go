package app

import (
	"database/sql"

	userHTTP "github.com/allisson/vault/internal/user/http"
	userRepository "github.com/allisson/vault/internal/user/repository"
	userUseCase "github.com/allisson/vault/internal/user/usecase"
)

type userComponents struct {
	userRepo         lazy[userUseCase.UserRepository]
	userUseCase      lazy[userUseCase.UserUseCase]
	bootstrapUseCase lazy[userUseCase.BootstrapUseCase]
	userHandler      lazy[*userHTTP.UserHandler]
}

// UserRepository returns the user store for the configured driver.
func (c *Container) UserRepository() (userUseCase.UserRepository, error) {
	return c.userRepo.get(func() (userUseCase.UserRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) userUseCase.UserRepository { return userRepository.NewPostgreSQLUserRepository(db) },
			func(db *sql.DB) userUseCase.UserRepository { return userRepository.NewMySQLUserRepository(db) },
		)
	})
}

// UserUseCase returns user administration. Password changes and deactivation
// revoke refresh tokens through the token use case.
func (c *Container) UserUseCase() (userUseCase.UserUseCase, error) {
	return c.userUseCase.get(func() (userUseCase.UserUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			return nil, err
		}
		hasher, err := c.PasswordHasher()
		if err != nil {
			return nil, err
		}
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			return nil, err
		}
		engine, err := c.PolicyEngine()
		if err != nil {
			return nil, err
		}
		return userUseCase.NewUserUseCase(txManager, userRepo, hasher, tokenUseCase, engine), nil
	})
}

// BootstrapUseCase returns the first-administrator workflow used by create-admin.
func (c *Container) BootstrapUseCase() (userUseCase.BootstrapUseCase, error) {
	return c.bootstrapUseCase.get(func() (userUseCase.BootstrapUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			return nil, err
		}
		roleRepo, err := c.RoleRepository()
		if err != nil {
			return nil, err
		}
		policyRepo, err := c.PolicyRepository()
		if err != nil {
			return nil, err
		}
		hasher, err := c.PasswordHasher()
		if err != nil {
			return nil, err
		}
		return userUseCase.NewBootstrapUseCase(txManager, userRepo, roleRepo, policyRepo, hasher), nil
	})
}

// UserHandler returns the /v1/users handler.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	return c.userHandler.get(func() (*userHTTP.UserHandler, error) {
		useCase, err := c.UserUseCase()
		if err != nil {
			return nil, err
		}
		sink, err := c.AuditSink()
		if err != nil {
			return nil, err
		}
		return userHTTP.NewUserHandler(useCase, sink, c.Logger()), nil
	})
}
