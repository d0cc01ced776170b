// Package dto provides request and response types for the secret endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
)

// CreateSecretRequest is the body of POST /v1/secrets.
type CreateSecretRequest struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Validate checks that every field is present. Path syntax is checked by the domain.
func (r *CreateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Value, validation.Required),
	)
}

// ToInput converts the request into domain input.
func (r *CreateSecretRequest) ToInput() secretsDomain.CreateSecretInput {
	return secretsDomain.CreateSecretInput{
		Path:  r.Path,
		Name:  r.Name,
		Value: []byte(r.Value),
	}
}

// RotateSecretRequest is the body of PUT /v1/secrets/:id.
type RotateSecretRequest struct {
	Value string `json:"value"`
}

// Validate checks that a value is present.
func (r *RotateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value, validation.Required),
	)
}
