// Package dto provides request and response types for the secret endpoints.
package dto

import (
	"time"

	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
)

// SecretResponse is secret metadata. Value is always the masked placeholder.
type SecretResponse struct {
	ID             string    `json:"id"`
	Path           string    `json:"path"`
	Name           string    `json:"name"`
	CurrentVersion int       `json:"current_version"`
	Value          string    `json:"value"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RevealSecretResponse carries a decrypted value.
type RevealSecretResponse struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Name    string `json:"name"`
	Version int    `json:"version"`
	Value   string `json:"value"`
}

// SecretVersionResponse is version metadata.
type SecretVersionResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	IsActive  bool      `json:"is_active"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ListSecretsResponse wraps a page of secrets.
type ListSecretsResponse struct {
	Data []SecretResponse `json:"data"`
}

// ListSecretVersionsResponse wraps the versions of one secret.
type ListSecretVersionsResponse struct {
	Data []SecretVersionResponse `json:"data"`
}

// MapSecretToResponse converts a domain secret, masking its value.
func MapSecretToResponse(secret *secretsDomain.Secret) SecretResponse {
	return SecretResponse{
		ID:             secret.ID.String(),
		Path:           secret.Path,
		Name:           secret.Name,
		CurrentVersion: secret.CurrentVersion,
		Value:          secretsDomain.MaskedValue,
		CreatedBy:      secret.CreatedBy.String(),
		CreatedAt:      secret.CreatedAt,
		UpdatedAt:      secret.UpdatedAt,
	}
}

// MapRevealedSecretToResponse converts a revealed secret.
func MapRevealedSecretToResponse(revealed *secretsDomain.RevealedSecret) RevealSecretResponse {
	return RevealSecretResponse{
		ID:      revealed.Secret.ID.String(),
		Path:    revealed.Secret.Path,
		Name:    revealed.Secret.Name,
		Version: revealed.Version,
		Value:   string(revealed.Value),
	}
}

// MapSecretsToListResponse converts a page of secrets.
func MapSecretsToListResponse(secrets []*secretsDomain.Secret) ListSecretsResponse {
	data := make([]SecretResponse, 0, len(secrets))
	for _, secret := range secrets {
		data = append(data, MapSecretToResponse(secret))
	}
	return ListSecretsResponse{Data: data}
}

// MapVersionsToListResponse converts secret version metadata.
func MapVersionsToListResponse(versions []*secretsDomain.SecretVersion) ListSecretVersionsResponse {
	data := make([]SecretVersionResponse, 0, len(versions))
	for _, version := range versions {
		data = append(data, SecretVersionResponse{
			ID:        version.ID.String(),
			Version:   version.Version,
			IsActive:  version.IsActive,
			CreatedBy: version.CreatedBy.String(),
			CreatedAt: version.CreatedAt,
		})
	}
	return ListSecretVersionsResponse{Data: data}
}
