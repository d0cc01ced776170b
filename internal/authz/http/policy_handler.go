package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	auditUseCase "github.com/allisson/vault/internal/audit/usecase"
	authzDomain "github.com/allisson/vault/internal/authz/domain"
	"github.com/allisson/vault/internal/authz/http/dto"
	authzUseCase "github.com/allisson/vault/internal/authz/usecase"
	"github.com/allisson/vault/internal/httputil"
	customValidation "github.com/allisson/vault/internal/validation"
)

// PolicyHandler serves /v1/policies. Creation and deletion are audited.
type PolicyHandler struct {
	policyUseCase authzUseCase.PolicyUseCase
	auditSink     auditUseCase.Sink
	logger        *slog.Logger
}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler(
	policyUseCase authzUseCase.PolicyUseCase,
	auditSink auditUseCase.Sink,
	logger *slog.Logger,
) *PolicyHandler {
	return &PolicyHandler{policyUseCase: policyUseCase, auditSink: auditSink, logger: logger}
}

// CreateHandler creates a policy.
// POST /v1/policies - requires policy:write. Returns 201 Created.
func (h *PolicyHandler) CreateHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	var req dto.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	policy, err := h.policyUseCase.Create(c.Request.Context(), principalID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionPolicyCreate, authzDomain.ResourcePolicy, policy.ID,
		map[string]any{
			"name":          policy.Name,
			"effect":        string(policy.Effect),
			"resource_type": policy.ResourceType,
			"action":        policy.Action,
		})

	c.JSON(http.StatusCreated, dto.MapPolicyToResponse(policy))
}

// GetHandler returns a policy.
// GET /v1/policies/:id - requires policy:read.
func (h *PolicyHandler) GetHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	policyID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	policy, err := h.policyUseCase.Get(c.Request.Context(), principalID, policyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPolicyToResponse(policy))
}

// ListHandler returns a page of policies.
// GET /v1/policies?offset=0&limit=50 - requires policy:read.
func (h *PolicyHandler) ListHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	policies, err := h.policyUseCase.List(c.Request.Context(), principalID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPoliciesToListResponse(policies))
}

// DeleteHandler deletes a policy.
// DELETE /v1/policies/:id - requires policy:delete. Returns 204 No Content.
func (h *PolicyHandler) DeleteHandler(c *gin.Context) {
	principalID, ok := principal(c, h.logger)
	if !ok {
		return
	}

	policyID, err := httputil.ParseUUIDParam(c, "id")
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.policyUseCase.Delete(c.Request.Context(), principalID, policyID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	recordAudit(c, h.auditSink, principalID, auditDomain.ActionPolicyDelete, authzDomain.ResourcePolicy, policyID, nil)

	c.Data(http.StatusNoContent, "application/json", nil)
}
