// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	auditUseCase "github.com/allisson/vault/internal/audit/usecase"
	authDomain "github.com/allisson/vault/internal/auth/domain"
	"github.com/allisson/vault/internal/auth/http/dto"
	authUseCase "github.com/allisson/vault/internal/auth/usecase"
	apperrors "github.com/allisson/vault/internal/errors"
	authzDomain "github.com/allisson/vault/internal/authz/domain"
	"github.com/allisson/vault/internal/httputil"
	customValidation "github.com/allisson/vault/internal/validation"
)

// TokenHandler serves /v1/auth. Failed logins, refresh token reuse and explicit
// revocation are recorded in the audit log.
type TokenHandler struct {
	tokenUseCase authUseCase.TokenUseCase
	auditSink    auditUseCase.Sink
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(
	tokenUseCase authUseCase.TokenUseCase,
	auditSink auditUseCase.Sink,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{tokenUseCase: tokenUseCase, auditSink: auditSink, logger: logger}
}

// audit records an event about userID. Failed logins have no principal, so
// they are recorded under uuid.Nil with the attempted username in details.
func (h *TokenHandler) audit(c *gin.Context, principalID uuid.UUID, userID *uuid.UUID, action string, details map[string]any) {
	h.auditSink.Record(c.Request.Context(), &auditDomain.AuditLog{
		RequestID:     requestid.Get(c),
		PrincipalID:   principalID,
		Action:        action,
		ResourceType:  authzDomain.ResourceUser,
		ResourceID:    userID,
		OriginAddress: c.ClientIP(),
		Details:       details,
	})
}

// LoginHandler exchanges credentials for a token pair.
// POST /v1/auth/login - no authentication. Returns 201 Created.
func (h *TokenHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := req.ToInput()
	pair, err := h.tokenUseCase.Login(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, authDomain.ErrInvalidCredentials) {
			h.audit(c, uuid.Nil, nil, auditDomain.ActionLoginFailed, map[string]any{"username": input.Username})
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapTokenPairToResponse(pair))
}

// RefreshHandler exchanges a refresh token for a new pair.
// POST /v1/auth/refresh - no authentication. Returns 201 Created.
func (h *TokenHandler) RefreshHandler(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	pair, err := h.tokenUseCase.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		var reused *authDomain.ReusedTokenError
		if errors.As(err, &reused) {
			h.audit(c, reused.UserID, &reused.UserID, auditDomain.ActionRefreshTokenReused, nil)
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapTokenPairToResponse(pair))
}

// RevokeHandler revokes every refresh token of the caller.
// POST /v1/auth/revoke - requires authentication.
func (h *TokenHandler) RevokeHandler(c *gin.Context) {
	principalID, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	revoked, err := h.tokenUseCase.RevokeAll(c.Request.Context(), principalID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, &principalID, auditDomain.ActionTokensRevoked, map[string]any{"revoked": revoked})
	c.JSON(http.StatusOK, dto.RevokeResponse{Revoked: revoked})
}
