package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	authDomain "github.com/allisson/vault/internal/auth/domain"
	apperrors "github.com/allisson/vault/internal/errors"
)

// tokenClaims is the JWT payload. Type is carried in the typ claim so an access
// token can never be presented as a refresh token and vice versa.
type tokenClaims struct {
	Type authDomain.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type tokenSigner struct {
	key    []byte
	method jwt.SigningMethod
	issuer string
	now    func() time.Time
}

// NewTokenSigner creates an HMAC TokenSigner. algorithm is HS256, HS384 or HS512.
func NewTokenSigner(key []byte, algorithm, issuer string) (TokenSigner, error) {
	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported signing algorithm %q", algorithm)
	}
	if len(key) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "signing key is required")
	}
	return &tokenSigner{key: key, method: method, issuer: issuer, now: time.Now}, nil
}

func (s *tokenSigner) Sign(
	userID uuid.UUID,
	tokenType authDomain.TokenType,
	ttl time.Duration,
) (string, *authDomain.Claims, error) {
	if ttl <= 0 {
		return "", nil, apperrors.New("ttl must be greater than zero")
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", nil, apperrors.Wrap(err, "failed to sign token")
	}

	return signed, &authDomain.Claims{
		TokenID:   claims.ID,
		UserID:    userID,
		Type:      tokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *tokenSigner) Parse(token string, tokenType authDomain.TokenType) (*authDomain.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, authDomain.ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(
		token,
		&tokenClaims{},
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, authDomain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Type != tokenType || claims.ID == "" {
		return nil, authDomain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, authDomain.ErrInvalidToken
	}

	return &authDomain.Claims{
		TokenID:   claims.ID,
		UserID:    userID,
		Type:      claims.Type,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
