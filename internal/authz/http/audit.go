package http

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	auditUseCase "github.com/allisson/vault/internal/audit/usecase"
)

// recordAudit hands a role or policy change to the audit sink. It is only
// called after the use case succeeded.
func recordAudit(
	c *gin.Context,
	sink auditUseCase.Sink,
	principalID uuid.UUID,
	action, resourceType string,
	resourceID uuid.UUID,
	details map[string]any,
) {
	sink.Record(c.Request.Context(), &auditDomain.AuditLog{
		RequestID:     requestid.Get(c),
		PrincipalID:   principalID,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    &resourceID,
		OriginAddress: c.ClientIP(),
		Details:       details,
	})
}
