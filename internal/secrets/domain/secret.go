// Package domain defines secrets and their encrypted versions.
//
// A secret is addressed by a unique path. Its value lives in SecretVersion rows:
// every rotation appends a version and deactivates the previous one, so exactly
// one version is active and Secret.CurrentVersion always names it.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/vault/internal/errors"
	appValidation "github.com/allisson/vault/internal/validation"
)

// MaskedValue replaces secret values in every non-reveal response.
const MaskedValue = "***masked***"

// Secret holds the metadata of a stored secret. Only CurrentVersion and
// UpdatedAt change after creation.
type Secret struct {
	ID             uuid.UUID
	Path           string
	Name           string
	CurrentVersion int
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SecretVersion is one immutable encrypted value of a secret. EncryptedValue and
// WrappedKey are opaque sealed blobs; KekID names the root key that wrapped the DEK.
type SecretVersion struct {
	ID             uuid.UUID
	SecretID       uuid.UUID
	Version        int
	EncryptedValue []byte
	WrappedKey     []byte
	KekID          string
	IsActive       bool
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

// RevealedSecret carries a decrypted value. Callers zero Value once it has
// been written out.
type RevealedSecret struct {
	Secret  *Secret
	Version int
	Value   []byte
}

// Secret-specific error definitions.
var (
	// ErrSecretNotFound indicates the secret does not exist.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrSecretVersionNotFound indicates the secret has no active version.
	ErrSecretVersionNotFound = errors.Wrap(errors.ErrNotFound, "secret version not found")

	// ErrSecretAlreadyExists indicates the path is already taken.
	ErrSecretAlreadyExists = errors.Wrap(errors.ErrConflict, "secret already exists")

	// ErrEmptyValue indicates an empty secret value.
	ErrEmptyValue = errors.Wrap(errors.ErrInvalidInput, "secret value must not be empty")
)

// CreateSecretInput holds the fields of a new secret.
type CreateSecretInput struct {
	Path  string
	Name  string
	Value []byte
}

// Normalize trims the path and name.
func (i *CreateSecretInput) Normalize() {
	i.Path = strings.TrimSpace(i.Path)
	i.Name = strings.TrimSpace(i.Name)
}

// Validate checks the input. Every failure wraps ErrInvalidInput.
func (i CreateSecretInput) Validate() error {
	if len(i.Value) == 0 {
		return ErrEmptyValue
	}
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Path,
			validation.Required.Error("path is required"),
			validation.Length(2, 512),
			appValidation.SecretPath,
		),
		validation.Field(&i.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 255),
		),
	)
	return appValidation.WrapValidationError(err)
}
