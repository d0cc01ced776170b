package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/vault/internal/validation"
)

// StoredRefreshToken is the persisted record of an issued refresh token. Only
// the keyed hash of the token is kept, and Revoked is the only field that changes.
type StoredRefreshToken struct {
	ID        uuid.UUID
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Usable reports whether the record may still be exchanged at now.
func (t *StoredRefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// Claims are the verified claims of an access or refresh token.
type Claims struct {
	TokenID   string
	UserID    uuid.UUID
	Type      TokenType
	ExpiresAt time.Time
}

// LoginInput carries user credentials.
type LoginInput struct {
	Username string
	Password string
}

// Validate checks that both credentials are present.
func (i LoginInput) Validate() error {
	i.Username = strings.TrimSpace(i.Username)
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Username, validation.Required.Error("username is required")),
		validation.Field(&i.Password, validation.Required.Error("password is required")),
	)
	return appValidation.WrapValidationError(err)
}
