package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL using
// BINARY(16) ids.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Create inserts an audit log. Nil details are stored as NULL.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := auditLog.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}
	principalID, err := auditLog.PrincipalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal principal id")
	}
	var resourceID any
	if auditLog.ResourceID != nil {
		b, err := auditLog.ResourceID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal resource id")
		}
		resourceID = b
	}
	details, err := marshalDetails(auditLog.Details)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs
			  (id, request_id, principal_id, action, resource_type, resource_id, origin_address, details, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		nullString(auditLog.RequestID),
		principalID,
		auditLog.Action,
		auditLog.ResourceType,
		resourceID,
		nullString(auditLog.OriginAddress),
		details,
		auditLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Storage(err, "failed to create audit log")
	}
	return nil
}

// List retrieves audit logs newest first with pagination and an optional
// inclusive created_at range.
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any
	if filter.CreatedAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.CreatedAtFrom)
	}
	if filter.CreatedAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.CreatedAtTo)
	}

	query := `SELECT id, request_id, principal_id, action, resource_type, resource_id, origin_address, details, created_at
			  FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	auditLogs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		var auditLog auditDomain.AuditLog
		var idBytes, principalBytes, resourceBytes, details []byte
		var requestID, originAddress sql.NullString

		err := rows.Scan(
			&idBytes,
			&requestID,
			&principalBytes,
			&auditLog.Action,
			&auditLog.ResourceType,
			&resourceBytes,
			&originAddress,
			&details,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "failed to scan audit log")
		}

		if err := auditLog.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
		}
		if err := auditLog.PrincipalID.UnmarshalBinary(principalBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal principal id")
		}
		if resourceBytes != nil {
			var resourceID uuid.UUID
			if err := resourceID.UnmarshalBinary(resourceBytes); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal resource id")
			}
			auditLog.ResourceID = &resourceID
		}
		auditLog.RequestID = requestID.String
		auditLog.OriginAddress = originAddress.String
		if auditLog.Details, err = unmarshalDetails(details); err != nil {
			return nil, err
		}

		auditLogs = append(auditLogs, &auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}
