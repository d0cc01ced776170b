// Package domain defines the user (principal) entity and its inputs.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/vault/internal/errors"
	appValidation "github.com/allisson/vault/internal/validation"
)

// User is an authenticated principal. Deactivated users keep their history
// but can no longer log in or refresh tokens.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates the username or email is taken.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")
)

// CreateUserInput holds the fields of a new user.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// Normalize lowercases the email and trims the username.
func (i *CreateUserInput) Normalize() {
	i.Username = strings.TrimSpace(i.Username)
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
}

// Validate checks the input, including password strength.
func (i CreateUserInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Username,
			validation.Required.Error("username is required"),
			appValidation.Username,
		),
		validation.Field(&i.Email,
			validation.Required.Error("email is required"),
			appValidation.Email,
			validation.Length(5, 255),
		),
		validation.Field(&i.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128),
			appValidation.DefaultPasswordStrength,
		),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateUserInput holds optional changes. Nil fields are left untouched.
type UpdateUserInput struct {
	Email    *string
	Password *string
}

// Validate checks whichever fields are set.
func (i UpdateUserInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.NilOrNotEmpty, appValidation.Email, validation.Length(5, 255)),
		validation.Field(&i.Password,
			validation.NilOrNotEmpty,
			validation.Length(8, 128),
			appValidation.DefaultPasswordStrength,
		),
	)
	return appValidation.WrapValidationError(err)
}
