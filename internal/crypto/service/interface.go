// Package service implements the envelope encryption engine: AEAD ciphers
// (AES-256-GCM, ChaCha20-Poly1305), DEK generation and wrapping under the root KEK,
// and loading of root keys through a KMS.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// EnvelopeEncrypter protects secret payloads with per-secret DEKs wrapped by the
// root KEK. Implementations are safe for concurrent use.
type EnvelopeEncrypter interface {
	// RootKeyID returns the ID of the root key used for wrapping new DEKs.
	RootKeyID() string

	// GenerateWrappedKey returns a fresh random DEK and its encryption under the root KEK.
	// The caller must zero the raw DEK once done with it.
	GenerateWrappedKey() (dek, wrappedDEK []byte, err error)

	// Encrypt seals plaintext under dek with a fresh nonce.
	Encrypt(plaintext, dek []byte) ([]byte, error)

	// Decrypt opens a ciphertext produced by Encrypt.
	Decrypt(ciphertext, dek []byte) ([]byte, error)

	// EncryptSecret generates a DEK, seals plaintext with it and returns both blobs for storage.
	EncryptSecret(plaintext []byte) (ciphertext, wrappedDEK []byte, err error)

	// DecryptSecret unwraps the DEK with the root KEK and opens the ciphertext.
	DecryptSecret(ciphertext, wrappedDEK []byte) ([]byte, error)

	// RewrapKey moves a wrapped DEK from oldKEK to newKEK without touching any payload.
	RewrapKey(wrappedDEK []byte, oldKEK, newKEK *cryptoDomain.RootKey) ([]byte, error)
}

// KMSKeeper is the subset of *secrets.Keeper used to unwrap root keys.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens keepers for a KMS key URI.
type KMSService interface {
	// OpenKeeper opens a keeper for gcpkms://, awskms://, azurekeyvault://,
	// hashivault:// or base64key:// URIs.
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}
