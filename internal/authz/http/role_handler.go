// Package http exposes role and policy administration over gin.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	auditUseCase "github.com/allisson/vault/internal/audit/usecase"
	authHTTP "github.com/allisson/vault/internal/auth/http"
	authzDomain "github.com/allisson/vault/internal/authz/domain"
	"github.com/allisson/vault/internal/authz/http/dto"
	authzUseCase "github.com/allisson/vault/internal/authz/usecase"
	apperrors "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/httputil"
	customValidation "github.com/allisson/vault/internal/validation"
)

// RoleHandler serves /v1/roles and the role membership endpoints under /v1/users.
// Every successful mutation is audited.
type RoleHandler struct {
	roleUseCase authzUseCase.RoleUseCase
	auditSink   auditUseCase.Sink
	logger      *slog.Logger
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(
	roleUseCase authzUseCase.RoleUseCase,
	auditSink auditUseCase.Sink,
	logger *slog.Logger,
) *RoleHandler {
	return &RoleHandler{roleUseCase: roleUseCase, auditSink: auditSink, logger: logger}
}

// principal returns the authenticated user id or writes 401.
func principal(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	principalID, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		return uuid.Nil, false
	}
	return principalID, true
}

// CreateHandler creates a role.
// POST /v1/roles - requires role:write. Returns 201 Created.
func (h *RoleHandler) CreateHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	role, err := h.roleUseCase.Create(c.Request.Context(), principalID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionRoleCreate, authzDomain.ResourceRole, role.ID,
		map[string]any{"name": role.Name})
	c.JSON(http.StatusCreated, dto.MapRoleToResponse(role))
}

// GetHandler returns a role.
// GET /v1/roles/:id - requires role:read.
func (h *RoleHandler) GetHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	roleID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	role, err := h.roleUseCase.Get(c.Request.Context(), principalID, roleID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRoleToResponse(role))
}

// ListHandler returns a page of roles.
// GET /v1/roles?offset=0&limit=50 - requires role:read.
func (h *RoleHandler) ListHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	roles, err := h.roleUseCase.List(c.Request.Context(), principalID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRolesToListResponse(roles))
}

// DeleteHandler deletes a role.
// DELETE /v1/roles/:id - requires role:delete. Returns 204 No Content.
func (h *RoleHandler) DeleteHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	roleID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.roleUseCase.Delete(c.Request.Context(), principalID, roleID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionRoleDelete, authzDomain.ResourceRole, roleID, nil)

	c.Data(http.StatusNoContent, "application/json", nil)
}

// AttachPolicyHandler attaches a policy to a role.
// POST /v1/roles/:id/policies - requires role:write. Returns 204 No Content.
func (h *RoleHandler) AttachPolicyHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	roleID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.AttachPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	policyID := uuid.MustParse(req.PolicyID)
	if err := h.roleUseCase.AttachPolicy(c.Request.Context(), principalID, roleID, policyID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionRoleAttachPolicy, authzDomain.ResourceRole, roleID,
		map[string]any{"policy_id": policyID.String()})

	c.Data(http.StatusNoContent, "application/json", nil)
}

// DetachPolicyHandler detaches a policy from a role.
// DELETE /v1/roles/:id/policies/:policy_id - requires role:write.
func (h *RoleHandler) DetachPolicyHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	roleID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	policyID, err := httputil.ParseUUIDParam(c, "policy_id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.roleUseCase.DetachPolicy(c.Request.Context(), principalID, roleID, policyID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionRoleDetachPolicy, authzDomain.ResourceRole, roleID,
		map[string]any{"policy_id": policyID.String()})

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ListPoliciesHandler lists the policies attached to a role.
// GET /v1/roles/:id/policies - requires role:read.
func (h *RoleHandler) ListPoliciesHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	roleID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	policies, err := h.roleUseCase.ListPolicies(c.Request.Context(), principalID, roleID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPoliciesToListResponse(policies))
}

// AssignHandler adds a user to a role.
// POST /v1/users/:id/roles - requires role:write.
func (h *RoleHandler) AssignHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	userID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	roleID := uuid.MustParse(req.RoleID)
	if err := h.roleUseCase.AssignToUser(c.Request.Context(), principalID, userID, roleID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionRoleAssign, authzDomain.ResourceRole, roleID,
		map[string]any{"user_id": userID.String()})

	c.Data(http.StatusNoContent, "application/json", nil)
}

// UnassignHandler removes a user from a role.
// DELETE /v1/users/:id/roles/:role_id - requires role:write.
func (h *RoleHandler) UnassignHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	userID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	roleID, err := httputil.ParseUUIDParam(c, "role_id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.roleUseCase.UnassignFromUser(c.Request.Context(), principalID, userID, roleID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionRoleUnassign, authzDomain.ResourceRole, roleID,
		map[string]any{"user_id": userID.String()})

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ListUserRolesHandler lists a user's roles. Users may always list their own.
// GET /v1/users/:id/roles
func (h *RoleHandler) ListUserRolesHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	userID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	roles, err := h.roleUseCase.ListUserRoles(c.Request.Context(), principalID, userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRolesToListResponse(roles))
}
