// Package service provides the credential primitives used by authentication:
// argon2id password hashing, keyed refresh-token hashing and JWT signing.
package service

import (
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/vault/internal/auth/domain"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	// Hash returns a PHC formatted argon2id hash of plain.
	Hash(plain string) (string, error)

	// Verify reports whether plain matches hash in constant time. An empty hash
	// is checked against a dummy hash and always fails, so unknown users cost
	// the same as wrong passwords.
	Verify(plain, hash string) bool
}

// TokenHasher derives the storage key of a refresh token.
type TokenHasher interface {
	// Hash returns the hex encoded HMAC-SHA256 of token. It is deterministic so
	// the hash can be looked up.
	Hash(token string) string
}

// TokenSigner issues and verifies JWTs.
type TokenSigner interface {
	// Sign issues a token of the given type for userID with a fresh ULID jti.
	Sign(userID uuid.UUID, tokenType authDomain.TokenType, ttl time.Duration) (string, *authDomain.Claims, error)

	// Parse verifies signature, algorithm, issuer, expiry and type. Every
	// failure is authDomain.ErrInvalidToken.
	Parse(token string, tokenType authDomain.TokenType) (*authDomain.Claims, error)
}
