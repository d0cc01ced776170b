// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// TokenRateLimitMiddleware enforces per-IP rate limiting on the unauthenticated
// login and refresh endpoints to slow down credential stuffing.
//
// Unlike RateLimitMiddleware it runs before authentication, so limiters are keyed
// by client IP. The IP comes from c.ClientIP, which honors the engine's trusted
// proxy settings. A limited request gets 429 with a Retry-After header.
func TokenRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore[string](ctx, rps, burst)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !allow(c, store.getLimiter(clientIP), "Too many token requests from this IP. Please retry after the specified delay.") {
			logger.Debug("token rate limit exceeded", slog.String("client_ip", clientIP))
			return
		}
		c.Next()
	}
}
