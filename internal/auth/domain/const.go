// Package domain defines the authentication models: credentials, token pairs
// and the persisted refresh token.
package domain

// TokenType is the typ claim carried by every issued JWT.
type TokenType string

const (
	// AccessToken authorizes API calls. It is stateless and expires on its own.
	AccessToken TokenType = "access"

	// RefreshToken is exchanged once for a new pair. Its hash is persisted.
	RefreshToken TokenType = "refresh"
)
