package service

import (
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
)

// EnvelopeService is the envelope encryption engine.
//
// Key hierarchy:
//
//	Root KEK (configured, never persisted)
//	  └─ DEK (one per secret version, persisted only in wrapped form)
//	       └─ secret payload
//
// A leaked DEK exposes one secret version. Rotating the root KEK only requires
// rewrapping every DEK (RewrapKey); payload ciphertexts are left untouched.
//
// New blobs are sealed with the configured algorithm. Opening a blob uses the
// algorithm recorded in its header, see cryptoDomain.SealedBlob.
type EnvelopeService struct {
	aeadManager AEADManager
	rootKey     *cryptoDomain.RootKey
	algorithm   cryptoDomain.Algorithm
}

// NewEnvelopeService creates an engine that wraps DEKs under rootKey and seals new
// blobs with alg.
func NewEnvelopeService(
	aeadManager AEADManager,
	rootKey *cryptoDomain.RootKey,
	alg cryptoDomain.Algorithm,
) *EnvelopeService {
	return &EnvelopeService{
		aeadManager: aeadManager,
		rootKey:     rootKey,
		algorithm:   alg,
	}
}

// RootKeyID returns the ID of the root key new DEKs are wrapped with.
func (e *EnvelopeService) RootKeyID() string {
	return e.rootKey.ID
}

// GenerateWrappedKey returns a fresh 256-bit DEK and the DEK sealed under the root KEK.
func (e *EnvelopeService) GenerateWrappedKey() (dek, wrappedDEK []byte, err error) {
	dek = make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(dek); err != nil {
		return nil, nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	wrappedDEK, err = e.seal(e.rootKey.Key, dek)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, nil, fmt.Errorf("failed to wrap data key: %w", err)
	}

	return dek, wrappedDEK, nil
}

// Encrypt seals plaintext under dek.
func (e *EnvelopeService) Encrypt(plaintext, dek []byte) ([]byte, error) {
	return e.seal(dek, plaintext)
}

// Decrypt opens ciphertext with dek. Tampered, truncated or foreign-key ciphertext
// fails with cryptoDomain.ErrDecryptionFailed.
func (e *EnvelopeService) Decrypt(ciphertext, dek []byte) ([]byte, error) {
	return e.open(dek, ciphertext)
}

// EncryptSecret generates a wrapped DEK, seals plaintext with the raw DEK and zeroes it.
func (e *EnvelopeService) EncryptSecret(plaintext []byte) (ciphertext, wrappedDEK []byte, err error) {
	dek, wrappedDEK, err := e.GenerateWrappedKey()
	if err != nil {
		return nil, nil, err
	}
	defer cryptoDomain.Zero(dek)

	ciphertext, err = e.Encrypt(plaintext, dek)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt secret: %w", err)
	}

	return ciphertext, wrappedDEK, nil
}

// DecryptSecret unwraps the DEK with the root KEK and opens ciphertext with it.
func (e *EnvelopeService) DecryptSecret(ciphertext, wrappedDEK []byte) ([]byte, error) {
	dek, err := e.unwrap(e.rootKey, wrappedDEK)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	return e.open(dek, ciphertext)
}

// RewrapKey unwraps wrappedDEK with oldKEK and wraps the same DEK with newKEK.
// It never sees secret payloads and is safe to run offline over every stored key.
func (e *EnvelopeService) RewrapKey(wrappedDEK []byte, oldKEK, newKEK *cryptoDomain.RootKey) ([]byte, error) {
	dek, err := e.unwrap(oldKEK, wrappedDEK)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	rewrapped, err := e.seal(newKEK.Key, dek)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap data key: %w", err)
	}
	return rewrapped, nil
}

func (e *EnvelopeService) unwrap(kek *cryptoDomain.RootKey, wrappedDEK []byte) ([]byte, error) {
	if kek == nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	dek, err := e.open(kek.Key, wrappedDEK)
	if err != nil {
		return nil, err
	}
	if len(dek) != cryptoDomain.KeySize {
		cryptoDomain.Zero(dek)
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return dek, nil
}

func (e *EnvelopeService) seal(key, plaintext []byte) ([]byte, error) {
	cipher, err := e.aeadManager.CreateCipher(key, e.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
	if err != nil {
		return nil, err
	}

	blob := &cryptoDomain.SealedBlob{
		Algorithm:  e.algorithm,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	return blob.Marshal()
}

func (e *EnvelopeService) open(key, data []byte) ([]byte, error) {
	blob, err := cryptoDomain.ParseSealedBlob(data)
	if err != nil {
		return nil, err
	}

	cipher, err := e.aeadManager.CreateCipher(key, blob.Algorithm)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	plaintext, err := cipher.Decrypt(blob.Ciphertext, blob.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
