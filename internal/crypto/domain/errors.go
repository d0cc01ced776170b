package domain

import (
	"github.com/allisson/vault/internal/errors"
)

// Cryptographic error definitions.
//
// Every failure to open a blob, whether the cause is a wrong key, tampering or
// truncation, is reported as ErrDecryptionFailed. The specific cause is never
// disclosed and the error never carries key or plaintext bytes.
var (
	// ErrUnsupportedAlgorithm indicates the requested or stored algorithm is unknown.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates key material is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidRootKey indicates the configured root key could not be decoded.
	ErrInvalidRootKey = errors.Wrap(errors.ErrInvalidInput, "invalid root key")

	// ErrDecryptionFailed indicates a sealed blob could not be opened.
	ErrDecryptionFailed = errors.Wrap(errors.ErrDecryption, "decryption failed")

	// ErrMalformedBlob indicates a sealed blob is too short or has an unknown header.
	ErrMalformedBlob = errors.Wrap(errors.ErrDecryption, "malformed sealed blob")
)

// ErrUnknownRootKey indicates a wrapped DEK references a root key that was not supplied.
var ErrUnknownRootKey = errors.Wrap(errors.ErrInvalidInput, "wrapped key references an unknown root key")
