package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	authzDomain "github.com/allisson/vault/internal/authz/domain"
	authzUseCase "github.com/allisson/vault/internal/authz/usecase"
	apperrors "github.com/allisson/vault/internal/errors"
)

type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	engine       authzUseCase.PolicyEngine
}

// NewAuditLogUseCase creates a new AuditLogUseCase.
func NewAuditLogUseCase(auditLogRepo AuditLogRepository, engine authzUseCase.PolicyEngine) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		engine:       engine,
	}
}

// List returns audit logs newest first. Requires audit:read.
func (a *auditLogUseCase) List(
	ctx context.Context,
	principalID uuid.UUID,
	offset, limit int,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	err := a.engine.Require(ctx, principalID, authzDomain.ResourceAudit, authzDomain.ActionRead)
	if err != nil {
		return nil, err
	}

	if filter.CreatedAtFrom != nil && filter.CreatedAtTo != nil && filter.CreatedAtFrom.After(*filter.CreatedAtTo) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "created_at_from must be before or equal to created_at_to")
	}

	return a.auditLogRepo.List(ctx, offset, limit, filter)
}
