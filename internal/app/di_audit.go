package app

import (
	"database/sql"
	"fmt"

	auditHTTP "github.com/allisson/vault/internal/audit/http"
	auditRepository "github.com/allisson/vault/internal/audit/repository"
	auditUseCase "github.com/allisson/vault/internal/audit/usecase"
	"github.com/allisson/vault/internal/metrics"
)

type auditComponents struct {
	auditLogRepo    lazy[auditUseCase.AuditLogRepository]
	auditSink       lazy[*auditUseCase.AsyncSink]
	auditLogUseCase lazy[auditUseCase.AuditLogUseCase]
	auditLogHandler lazy[*auditHTTP.AuditLogHandler]
}

// AuditLogRepository returns the audit store for the configured driver.
func (c *Container) AuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	return c.auditLogRepo.get(func() (auditUseCase.AuditLogRepository, error) {
		return repositoryFor(c,
			func(db *sql.DB) auditUseCase.AuditLogRepository {
				return auditRepository.NewPostgreSQLAuditLogRepository(db)
			},
			func(db *sql.DB) auditUseCase.AuditLogRepository {
				return auditRepository.NewMySQLAuditLogRepository(db)
			},
		)
	})
}

// AuditSink returns the asynchronous audit writer. Its worker starts here and
// is drained by Shutdown.
func (c *Container) AuditSink() (*auditUseCase.AsyncSink, error) {
	return c.auditSink.get(func() (*auditUseCase.AsyncSink, error) {
		repo, err := c.AuditLogRepository()
		if err != nil {
			return nil, err
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}

		sink := auditUseCase.NewAsyncSink(repo, c.config.AuditBufferSize, c.Logger())
		c.markStarted(func() { c.started.auditSink = sink })

		if provider != nil {
			err := metrics.RegisterAuditDrops(provider.MeterProvider(), c.config.MetricsNamespace, sink)
			if err != nil {
				return nil, fmt.Errorf("failed to register audit drop counter: %w", err)
			}
		}
		return sink, nil
	})
}

// AuditLogUseCase returns the audit query use case.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	return c.auditLogUseCase.get(func() (auditUseCase.AuditLogUseCase, error) {
		repo, err := c.AuditLogRepository()
		if err != nil {
			return nil, err
		}
		engine, err := c.PolicyEngine()
		if err != nil {
			return nil, err
		}
		return auditUseCase.NewAuditLogUseCase(repo, engine), nil
	})
}

// AuditLogHandler returns the /v1/audit-logs handler.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	return c.auditLogHandler.get(func() (*auditHTTP.AuditLogHandler, error) {
		useCase, err := c.AuditLogUseCase()
		if err != nil {
			return nil, err
		}
		return auditHTTP.NewAuditLogHandler(useCase, c.Logger()), nil
	})
}
