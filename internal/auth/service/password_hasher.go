package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/vault/internal/errors"
)

// dummyPassword feeds the timing-equalization hash checked for unknown users.
const dummyPassword = "vault-dummy-password"

// passwordHasher implements PasswordHasher using Argon2id.
type passwordHasher struct {
	hasher    *pwdhash.PasswordHasher
	dummyHash string
}

// Hash hashes a plain text password using Argon2id.
func (p *passwordHasher) Hash(plain string) (string, error) {
	hash, err := p.hasher.Hash([]byte(plain))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

// Verify performs a constant-time comparison between a plain password and its hash.
func (p *passwordHasher) Verify(plain, hash string) bool {
	if hash == "" {
		_, _ = p.hasher.Verify([]byte(plain), p.dummyHash)
		return false
	}
	ok, err := p.hasher.Verify([]byte(plain), hash)
	if err != nil {
		return false
	}
	return ok
}

// NewPasswordHasher creates a PasswordHasher using the Moderate argon2id policy.
func NewPasswordHasher() (PasswordHasher, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	dummyHash, err := hasher.Hash([]byte(dummyPassword))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create dummy hash")
	}

	return &passwordHasher{hasher: hasher, dummyHash: dummyHash}, nil
}
