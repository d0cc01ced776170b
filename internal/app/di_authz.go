package app

import (
	"database/sql"

	authzHTTP "github.com/allisson/vault/internal/authz/http"
	authzRepository "github.com/allisson/vault/internal/authz/repository"
	authzUseCase "github.com/allisson/vault/internal/authz/usecase"
)

type authzComponents struct {
	roleRepo      lazy[authzUseCase.RoleRepository]
	policyRepo    lazy[authzUseCase.PolicyRepository]
	policyEngine  lazy[authzUseCase.PolicyEngine]
	roleUseCase   lazy[authzUseCase.RoleUseCase]
	policyUseCase lazy[authzUseCase.PolicyUseCase]
	roleHandler   lazy[*authzHTTP.RoleHandler]
	policyHandler lazy[*authzHTTP.PolicyHandler]
}

// RoleRepository returns the role store for the configured driver.
func (c *Container) RoleRepository() (authzUseCase.RoleRepository, error) {
	return c.roleRepo.get(func() (authzUseCase.RoleRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) authzUseCase.RoleRepository { return authzRepository.NewPostgreSQLRoleRepository(db) },
			func(db *sql.DB) authzUseCase.RoleRepository { return authzRepository.NewMySQLRoleRepository(db) },
		)
	})
}

// PolicyRepository returns the policy store for the configured driver.
func (c *Container) PolicyRepository() (authzUseCase.PolicyRepository, error) {
	return c.policyRepo.get(func() (authzUseCase.PolicyRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) authzUseCase.PolicyRepository { return authzRepository.NewPostgreSQLPolicyRepository(db) },
			func(db *sql.DB) authzUseCase.PolicyRepository { return authzRepository.NewMySQLPolicyRepository(db) },
		)
	})
}

// PolicyEngine returns the deny-overrides-allow evaluator every use case consults.
func (c *Container) PolicyEngine() (authzUseCase.PolicyEngine, error) {
	return c.policyEngine.get(func() (authzUseCase.PolicyEngine, error) {
		policyRepo, err := c.PolicyRepository()
		if err != nil {
			return nil, err
		}
		return authzUseCase.NewPolicyEngine(policyRepo), nil
	})
}

// RoleUseCase returns role administration.
func (c *Container) RoleUseCase() (authzUseCase.RoleUseCase, error) {
	return c.roleUseCase.get(func() (authzUseCase.RoleUseCase, error) {
		txManager, err := c.TxManager()
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
		engine, err := c.PolicyEngine()
		if err != nil {
			return nil, err
		}
		return authzUseCase.NewRoleUseCase(txManager, roleRepo, policyRepo, engine), nil
	})
}

// PolicyUseCase returns policy administration.
func (c *Container) PolicyUseCase() (authzUseCase.PolicyUseCase, error) {
	return c.policyUseCase.get(func() (authzUseCase.PolicyUseCase, error) {
		policyRepo, err := c.PolicyRepository()
		if err != nil {
			return nil, err
		}
		engine, err := c.PolicyEngine()
		if err != nil {
			return nil, err
		}
		return authzUseCase.NewPolicyUseCase(policyRepo, engine), nil
	})
}

// RoleHandler returns the /v1/roles handler.
func (c *Container) RoleHandler() (*authzHTTP.RoleHandler, error) {
	return c.roleHandler.get(func() (*authzHTTP.RoleHandler, error) {
		useCase, err := c.RoleUseCase()
		if err != nil {
			return nil, err
		}
		sink, err := c.AuditSink()
		if err != nil {
			return nil, err
		}
		return authzHTTP.NewRoleHandler(useCase, sink, c.Logger()), nil
	})
}

// PolicyHandler returns the /v1/policies handler.
func (c *Container) PolicyHandler() (*authzHTTP.PolicyHandler, error) {
	return c.policyHandler.get(func() (*authzHTTP.PolicyHandler, error) {
		useCase, err := c.PolicyUseCase()
		if err != nil {
			return nil, err
		}
		sink, err := c.AuditSink()
		if err != nil {
			return nil, err
		}
		return authzHTTP.NewPolicyHandler(useCase, sink, c.Logger()), nil
	})
}
