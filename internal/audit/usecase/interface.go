// Package usecase records audit logs asynchronously and serves them back to
// principals holding audit:read.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
)

// AuditLogRepository persists audit logs.
type AuditLogRepository interface {
	Create(ctx context.Context, auditLog *auditDomain.AuditLog) error
	List(ctx context.Context, offset, limit int, filter auditDomain.ListFilter) ([]*auditDomain.AuditLog, error)
}

// Sink accepts audit entries without blocking the caller. Delivery is best
// effort: entries may be dropped under back pressure.
type Sink interface {
	Record(ctx context.Context, entry *auditDomain.AuditLog)
}

// AuditLogUseCase lists recorded audit logs.
type AuditLogUseCase interface {
	List(
		ctx context.Context,
		principalID uuid.UUID,
		offset, limit int,
		filter auditDomain.ListFilter,
	) ([]*auditDomain.AuditLog, error)
}
