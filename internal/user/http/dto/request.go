// Package dto provides request and response bodies for the user endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/vault/internal/user/domain"
	customValidation "github.com/allisson/vault/internal/validation"
)

// CreateUserRequest is the body of POST /v1/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the request shape. Password strength is enforced by the domain.
func (r *CreateUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Email, validation.Required, customValidation.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ToInput converts the request to a domain input.
func (r *CreateUserRequest) ToInput() domain.CreateUserInput {
	return domain.CreateUserInput{Username: r.Username, Email: r.Email, Password: r.Password}
}

// UpdateUserRequest is the body of PUT /v1/users/:id. At least one field is required.
type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Validate checks the request shape.
func (r *UpdateUserRequest) Validate() error {
	if r.Email == nil && r.Password == nil {
		return validation.Errors{"email": validation.NewError("validation_required", "email or password is required")}
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, customValidation.Email),
		validation.Field(&r.Password, validation.NilOrNotEmpty),
	)
}

// ToInput converts the request to a domain input.
func (r *UpdateUserRequest) ToInput() domain.UpdateUserInput {
	return domain.UpdateUserInput{Email: r.Email, Password: r.Password}
}
