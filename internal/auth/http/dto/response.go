// Package dto provides request and response bodies for the auth endpoints.
package dto

import (
	"time"

	authDomain "github.com/allisson/vault/internal/auth/domain"
)

// TokenPairResponse is returned by login and refresh.
type TokenPairResponse struct {
	AccessToken           string    `json:"access_token"`
	TokenType             string    `json:"token_type"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// RevokeResponse reports how many refresh tokens were revoked.
type RevokeResponse struct {
	Revoked int64 `json:"revoked"`
}

// MapTokenPairToResponse converts a domain token pair.
func MapTokenPairToResponse(pair *authDomain.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresAt:             pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}
}
