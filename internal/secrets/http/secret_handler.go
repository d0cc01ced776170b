// Package http exposes secret management over gin. Values are masked in every
// response except reveal, and every mutation or reveal is audited.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	auditUseCase "github.com/allisson/vault/internal/audit/usecase"
	authHTTP "github.com/allisson/vault/internal/auth/http"
	authzDomain "github.com/allisson/vault/internal/authz/domain"
	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	apperrors "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/httputil"
	"github.com/allisson/vault/internal/secrets/http/dto"
	secretsUseCase "github.com/allisson/vault/internal/secrets/usecase"
	customValidation "github.com/allisson/vault/internal/validation"
)

// SecretHandler serves /v1/secrets.
type SecretHandler struct {
	secretUseCase secretsUseCase.SecretUseCase
	auditSink     auditUseCase.Sink
	logger        *slog.Logger
}

// NewSecretHandler creates a new secret handler.
func NewSecretHandler(
	secretUseCase secretsUseCase.SecretUseCase,
	auditSink auditUseCase.Sink,
	logger *slog.Logger,
) *SecretHandler {
	return &SecretHandler{
		secretUseCase: secretUseCase,
		auditSink:     auditSink,
		logger:        logger,
	}
}

func (h *SecretHandler) principal(c *gin.Context) (uuid.UUID, bool) {
	principalID, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return principalID, true
}

func (h *SecretHandler) secretID(c *gin.Context) (uuid.UUID, bool) {
	secretID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return secretID, true
}

func (h *SecretHandler) audit(
	c *gin.Context,
	principalID, secretID uuid.UUID,
	action string,
	details map[string]any,
) {
	h.auditSink.Record(c.Request.Context(), &auditDomain.AuditLog{
		RequestID:     requestid.Get(c),
		PrincipalID:   principalID,
		Action:        action,
		ResourceType:  authzDomain.ResourceSecret,
		ResourceID:    &secretID,
		OriginAddress: c.ClientIP(),
		Details:       details,
	})
}

// CreateHandler stores a new secret.
// POST /v1/secrets - requires secret:write. Returns 201 Created with the value masked.
func (h *SecretHandler) CreateHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.CreateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := req.ToInput()
	defer cryptoDomain.Zero(input.Value)

	secret, err := h.secretUseCase.Create(c.Request.Context(), principalID, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, secret.ID, auditDomain.ActionSecretCreate, map[string]any{
		"path":    secret.Path,
		"version": secret.CurrentVersion,
	})
	c.JSON(http.StatusCreated, dto.MapSecretToResponse(secret))
}

// GetHandler returns secret metadata.
// GET /v1/secrets/:id - requires secret:read.
func (h *SecretHandler) GetHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}
	secretID, ok := h.secretID(c)
	if !ok {
		return
	}

	secret, err := h.secretUseCase.Get(c.Request.Context(), principalID, secretID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToResponse(secret))
}

// RevealHandler decrypts the active version.
// GET /v1/secrets/:id/reveal - requires the configured reveal action. The
// plaintext buffer is zeroed once the response is written.
func (h *SecretHandler) RevealHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}
	secretID, ok := h.secretID(c)
	if !ok {
		return
	}

	revealed, err := h.secretUseCase.Reveal(c.Request.Context(), principalID, secretID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(revealed.Value)

	h.audit(c, principalID, secretID, auditDomain.ActionSecretReveal, map[string]any{
		"path":    revealed.Secret.Path,
		"version": revealed.Version,
	})
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.MapRevealedSecretToResponse(revealed))
}

// RotateHandler stores a new version and makes it active.
// PUT /v1/secrets/:id - requires secret:rotate.
func (h *SecretHandler) RotateHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}
	secretID, ok := h.secretID(c)
	if !ok {
		return
	}

	var req dto.RotateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value := []byte(req.Value)
	defer cryptoDomain.Zero(value)

	secret, err := h.secretUseCase.Rotate(c.Request.Context(), principalID, secretID, value)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, secretID, auditDomain.ActionSecretRotate, map[string]any{
		"path":    secret.Path,
		"version": secret.CurrentVersion,
	})
	c.JSON(http.StatusOK, dto.MapSecretToResponse(secret))
}

// ListHandler lists secrets ordered by path.
// GET /v1/secrets?offset=0&limit=50 - requires secret:read.
func (h *SecretHandler) ListHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	secrets, err := h.secretUseCase.List(c.Request.Context(), principalID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretsToListResponse(secrets))
}

// ListVersionsHandler lists version metadata.
// GET /v1/secrets/:id/versions - requires secret:read.
func (h *SecretHandler) ListVersionsHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}
	secretID, ok := h.secretID(c)
	if !ok {
		return
	}

	versions, err := h.secretUseCase.ListVersions(c.Request.Context(), principalID, secretID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVersionsToListResponse(versions))
}

// DeleteHandler removes a secret and its versions.
// DELETE /v1/secrets/:id - requires secret:delete. Returns 204 No Content.
func (h *SecretHandler) DeleteHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}
	secretID, ok := h.secretID(c)
	if !ok {
		return
	}

	if err := h.secretUseCase.Delete(c.Request.Context(), principalID, secretID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, secretID, auditDomain.ActionSecretDelete, nil)
	c.Data(http.StatusNoContent, "application/json", nil)
}
