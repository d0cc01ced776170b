// Package dto provides request and response bodies for the auth endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/vault/internal/auth/domain"
	customValidation "github.com/allisson/vault/internal/validation"
)

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the request shape.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Password, validation.Required),
	)
}

// ToInput converts the request to a domain input.
func (r *LoginRequest) ToInput() authDomain.LoginInput {
	return authDomain.LoginInput{Username: r.Username, Password: r.Password}
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate checks the request shape.
func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required, customValidation.NotBlank),
	)
}
