// Package dto provides request and response bodies for the role and policy endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	customValidation "github.com/allisson/vault/internal/validation"
)

// CreateRoleRequest is the body of POST /v1/roles.
type CreateRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the request shape.
func (r *CreateRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 100)),
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

// ToInput converts the request to a domain input.
func (r *CreateRoleRequest) ToInput() authzDomain.CreateRoleInput {
	return authzDomain.CreateRoleInput{Name: r.Name, Description: r.Description}
}

// CreatePolicyRequest is the body of POST /v1/policies.
type CreatePolicyRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ResourceType string `json:"resource_type"`
	Action       string `json:"action"`
	Effect       string `json:"effect"`
}

// Validate checks the request shape.
func (r *CreatePolicyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 100)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.ResourceType, validation.Required, customValidation.NoWhitespace),
		validation.Field(&r.Action, validation.Required, customValidation.NoWhitespace),
		validation.Field(&r.Effect,
			validation.Required,
			validation.In(string(authzDomain.EffectAllow), string(authzDomain.EffectDeny)),
		),
	)
}

// ToInput converts the request to a domain input.
func (r *CreatePolicyRequest) ToInput() authzDomain.CreatePolicyInput {
	return authzDomain.CreatePolicyInput{
		Name:         r.Name,
		Description:  r.Description,
		ResourceType: r.ResourceType,
		Action:       r.Action,
		Effect:       authzDomain.Effect(r.Effect),
	}
}

// AttachPolicyRequest is the body of POST /v1/roles/:id/policies.
type AttachPolicyRequest struct {
	PolicyID string `json:"policy_id"`
}

// Validate checks the request shape.
func (r *AttachPolicyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PolicyID, validation.Required, customValidation.UUID),
	)
}

// AssignRoleRequest is the body of POST /v1/users/:id/roles.
type AssignRoleRequest struct {
	RoleID string `json:"role_id"`
}

// Validate checks the request shape.
func (r *AssignRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RoleID, validation.Required, customValidation.UUID),
	)
}
