package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"

	apperrors "github.com/allisson/vault/internal/errors"
)

// refreshTokenHashInfo separates the derived key from any other use of the signing key.
var refreshTokenHashInfo = []byte("vault-refresh-token-hash-v1")

type tokenHasher struct {
	key []byte
}

// NewTokenHasher derives a 32-byte HMAC key from signingKey with HKDF-SHA256.
// A database leak alone is not enough to replay stored hashes.
func NewTokenHasher(signingKey []byte) (TokenHasher, error) {
	if len(signingKey) == 0 {
		return nil, apperrors.New("signing key is required")
	}

	reader := hkdf.New(sha256.New, signingKey, nil, refreshTokenHashInfo)
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, apperrors.Wrap(err, "failed to derive token hash key")
	}
	return &tokenHasher{key: key}, nil
}

func (t *tokenHasher) Hash(token string) string {
	mac := hmac.New(sha256.New, t.key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
