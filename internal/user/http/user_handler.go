// Package http exposes user administration over gin.
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
	apperrors "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/httputil"
	"github.com/allisson/vault/internal/user/http/dto"
	userUseCase "github.com/allisson/vault/internal/user/usecase"
	customValidation "github.com/allisson/vault/internal/validation"
)

// UserHandler serves /v1/users. Every successful mutation is audited.
type UserHandler struct {
	userUseCase userUseCase.UserUseCase
	auditSink   auditUseCase.Sink
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(
	userUseCase userUseCase.UserUseCase,
	auditSink auditUseCase.Sink,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{userUseCase: userUseCase, auditSink: auditSink, logger: logger}
}

func (h *UserHandler) principal(c *gin.Context) (uuid.UUID, bool) {
	principalID, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return principalID, true
}

func (h *UserHandler) audit(
	c *gin.Context,
	principalID, userID uuid.UUID,
	action string,
	details map[string]any,
) {
	h.auditSink.Record(c.Request.Context(), &auditDomain.AuditLog{
		RequestID:     requestid.Get(c),
		PrincipalID:   principalID,
		Action:        action,
		ResourceType:  authzDomain.ResourceUser,
		ResourceID:    &userID,
		OriginAddress: c.ClientIP(),
		Details:       details,
	})
}

// CreateHandler creates a user.
// POST /v1/users - requires user:write. Returns 201 Created.
func (h *UserHandler) CreateHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userUseCase.Create(c.Request.Context(), principalID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, user.ID, auditDomain.ActionUserCreate, map[string]any{"username": user.Username})

	c.JSON(http.StatusCreated, dto.MapUserToResponse(user))
}

// MeHandler returns the authenticated user.
// GET /v1/users/me
func (h *UserHandler) MeHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	user, err := h.userUseCase.Me(c.Request.Context(), principalID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

// GetHandler returns a user.
// GET /v1/users/:id - requires user:read.
func (h *UserHandler) GetHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	userID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.Get(c.Request.Context(), principalID, userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

// ListHandler returns a page of users ordered by username.
// GET /v1/users?offset=0&limit=50 - requires user:read.
func (h *UserHandler) ListHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	users, err := h.userUseCase.List(c.Request.Context(), principalID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUsersToListResponse(users))
}

// UpdateHandler changes a user's email or password.
// PUT /v1/users/:id - requires user:write, also for the caller's own account.
func (h *UserHandler) UpdateHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	userID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userUseCase.Update(c.Request.Context(), principalID, userID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, user.ID, auditDomain.ActionUserUpdate, map[string]any{
		"email_changed":    req.Email != nil,
		"password_changed": req.Password != nil,
	})

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

// DeactivateHandler deactivates a user and revokes their refresh tokens.
// POST /v1/users/:id/deactivate - requires user:write. Returns 204 No Content.
func (h *UserHandler) DeactivateHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	userID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.userUseCase.Deactivate(c.Request.Context(), principalID, userID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, userID, auditDomain.ActionUserDeactivate, nil)

	c.Data(http.StatusNoContent, "application/json", nil)
}

// DeleteHandler removes a user.
// DELETE /v1/users/:id - requires user:delete. Returns 204 No Content.
func (h *UserHandler) DeleteHandler(c *gin.Context) {
	principalID, ok := h.principal(c)
	if !ok {
		return
	}

	userID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.userUseCase.Delete(c.Request.Context(), principalID, userID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit(c, principalID, userID, auditDomain.ActionUserDelete, nil)

	c.Data(http.StatusNoContent, "application/json", nil)
}
