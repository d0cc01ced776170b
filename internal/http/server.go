// Package http assembles the gin router, its middleware chain and the API and
// metrics listeners.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	auditHTTP "github.com/allisson/vault/internal/audit/http"
	authHTTP "github.com/allisson/vault/internal/auth/http"
	authUseCase "github.com/allisson/vault/internal/auth/usecase"
	authzHTTP "github.com/allisson/vault/internal/authz/http"
	"github.com/allisson/vault/internal/config"
	"github.com/allisson/vault/internal/metrics"
	secretsHTTP "github.com/allisson/vault/internal/secrets/http"
	userHTTP "github.com/allisson/vault/internal/user/http"
)

const readinessTimeout = 2 * time.Second

// Handlers groups the API handlers mounted under /v1.
type Handlers struct {
	Token    *authHTTP.TokenHandler
	User     *userHTTP.UserHandler
	Role     *authzHTTP.RoleHandler
	Policy   *authzHTTP.PolicyHandler
	Secret   *secretsHTTP.SecretHandler
	AuditLog *auditHTTP.AuditLogHandler
}

// Server is the public API listener.
type Server struct {
	db     *sql.DB
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a server bound to host:port. db backs the readiness check.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// SetupRouter builds the router. ctx bounds the rate limiter sweepers;
// meterProvider is nil when metrics are disabled.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	tokenUseCase authUseCase.TokenUseCase,
	meterProvider metric.MeterProvider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	public := v1.Group("/auth")
	if cfg.RateLimitTokenEnabled {
		public.Use(authHTTP.TokenRateLimitMiddleware(
			ctx, cfg.RateLimitTokenRequestsPerSec, cfg.RateLimitTokenBurst, s.logger,
		))
	}
	public.POST("/login", handlers.Token.LoginHandler)
	public.POST("/refresh", handlers.Token.RefreshHandler)

	authed := v1.Group("")
	authed.Use(authHTTP.AuthenticationMiddleware(tokenUseCase, s.logger))
	if cfg.RateLimitEnabled {
		authed.Use(authHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	authed.POST("/auth/revoke", handlers.Token.RevokeHandler)

	users := authed.Group("/users")
	users.POST("", handlers.User.CreateHandler)
	users.GET("", handlers.User.ListHandler)
	users.GET("/me", handlers.User.MeHandler)
	users.GET("/:id", handlers.User.GetHandler)
	users.PUT("/:id", handlers.User.UpdateHandler)
	users.DELETE("/:id", handlers.User.DeleteHandler)
	users.POST("/:id/deactivate", handlers.User.DeactivateHandler)
	users.GET("/:id/roles", handlers.Role.ListUserRolesHandler)
	users.POST("/:id/roles", handlers.Role.AssignHandler)
	users.DELETE("/:id/roles/:role_id", handlers.Role.UnassignHandler)

	roles := authed.Group("/roles")
	roles.POST("", handlers.Role.CreateHandler)
	roles.GET("", handlers.Role.ListHandler)
	roles.GET("/:id", handlers.Role.GetHandler)
	roles.DELETE("/:id", handlers.Role.DeleteHandler)
	roles.GET("/:id/policies", handlers.Role.ListPoliciesHandler)
	roles.POST("/:id/policies", handlers.Role.AttachPolicyHandler)
	roles.DELETE("/:id/policies/:policy_id", handlers.Role.DetachPolicyHandler)

	policies := authed.Group("/policies")
	policies.POST("", handlers.Policy.CreateHandler)
	policies.GET("", handlers.Policy.ListHandler)
	policies.GET("/:id", handlers.Policy.GetHandler)
	policies.DELETE("/:id", handlers.Policy.DeleteHandler)

	secrets := authed.Group("/secrets")
	secrets.POST("", handlers.Secret.CreateHandler)
	secrets.GET("", handlers.Secret.ListHandler)
	secrets.GET("/:id", handlers.Secret.GetHandler)
	secrets.PUT("/:id", handlers.Secret.RotateHandler)
	secrets.DELETE("/:id", handlers.Secret.DeleteHandler)
	secrets.GET("/:id/reveal", handlers.Secret.RevealHandler)
	secrets.GET("/:id/versions", handlers.Secret.ListVersionsHandler)

	authed.GET("/audit-logs", handlers.AuditLog.ListHandler)

	s.server.Handler = router
}

// GetHandler returns the router, or nil before SetupRouter.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only while the database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	database := "ok"
	if s.db == nil {
		database = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			database = "error"
		}
	}

	status, code := "ready", http.StatusOK
	if database != "ok" {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"components": gin.H{"database": database},
	})
}
