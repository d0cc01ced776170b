// Package dto provides request and response bodies for the role and policy endpoints.
package dto

import (
	"time"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
)

// RoleResponse is the JSON view of a role.
type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PolicyResponse is the JSON view of a policy.
type PolicyResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ResourceType string    `json:"resource_type"`
	Action       string    `json:"action"`
	Effect       string    `json:"effect"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListRolesResponse wraps a page of roles.
type ListRolesResponse struct {
	Data []RoleResponse `json:"data"`
}

// ListPoliciesResponse wraps a page of policies.
type ListPoliciesResponse struct {
	Data []PolicyResponse `json:"data"`
}

// MapRoleToResponse converts a domain role.
func MapRoleToResponse(role *authzDomain.Role) RoleResponse {
	return RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Description: role.Description,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

// MapPolicyToResponse converts a domain policy.
func MapPolicyToResponse(policy *authzDomain.Policy) PolicyResponse {
	return PolicyResponse{
		ID:           policy.ID.String(),
		Name:         policy.Name,
		Description:  policy.Description,
		ResourceType: policy.ResourceType,
		Action:       policy.Action,
		Effect:       string(policy.Effect),
		CreatedAt:    policy.CreatedAt,
	}
}

// MapRolesToListResponse converts a page of roles, never returning a nil slice.
func MapRolesToListResponse(roles []*authzDomain.Role) ListRolesResponse {
	data := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		data = append(data, MapRoleToResponse(role))
	}
	return ListRolesResponse{Data: data}
}

// MapPoliciesToListResponse converts a page of policies, never returning a nil slice.
func MapPoliciesToListResponse(policies []*authzDomain.Policy) ListPoliciesResponse {
	data := make([]PolicyResponse, 0, len(policies))
	for _, policy := range policies {
		data = append(data, MapPolicyToResponse(policy))
	}
	return ListPoliciesResponse{Data: data}
}
