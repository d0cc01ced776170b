package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/vault/internal/http"
)

// HTTPServer returns the API server with every route registered. ctx bounds
// the rate limiter cleanup goroutines.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	return c.httpServer.get(func() (*http.Server, error) {
		db, err := c.DB()
		if err != nil {
			return nil, err
		}
		handlers, err := c.handlers()
		if err != nil {
			return nil, err
		}
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			return nil, err
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}

		var meterProvider metric.MeterProvider
		if provider != nil {
			meterProvider = provider.MeterProvider()
		}

		server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
		server.SetupRouter(ctx, c.config, handlers, tokenUseCase, meterProvider)
		c.markStarted(func() { c.started.httpServer = true })
		return server, nil
	})
}

// MetricsServer returns the Prometheus scrape server.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return c.metricsServer.get(func() (*http.MetricsServer, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return nil, fmt.Errorf("metrics are disabled")
		}
		server := http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		c.markStarted(func() { c.started.metricsServer = true })
		return server, nil
	})
}

func (c *Container) handlers() (http.Handlers, error) {
	var (
		h   http.Handlers
		err error
	)
	if h.Token, err = c.TokenHandler(); err != nil {
		return h, err
	}
	if h.User, err = c.UserHandler(); err != nil {
		return h, err
	}
	if h.Role, err = c.RoleHandler(); err != nil {
		return h, err
	}
	if h.Policy, err = c.PolicyHandler(); err != nil {
		return h, err
	}
	if h.Secret, err = c.SecretHandler(); err != nil {
		return h, err
	}
	if h.AuditLog, err = c.AuditLogHandler(); err != nil {
		return h, err
	}
	return h, nil
}
