// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"

	"github.com/google/uuid"
)

// principalKey is a context key type for storing the authenticated principal.
type principalKey struct{}

// WithPrincipal stores the authenticated user id in the context.
func WithPrincipal(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, principalKey{}, userID)
}

// GetPrincipal returns the authenticated user id stored by the authentication middleware.
func GetPrincipal(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(principalKey{}).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
