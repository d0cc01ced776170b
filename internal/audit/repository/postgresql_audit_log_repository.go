// Package repository provides PostgreSQL and MySQL persistence for audit logs.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
)

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts an audit log. Nil details are stored as NULL.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	details, err := marshalDetails(auditLog.Details)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs
			  (id, request_id, principal_id, action, resource_type, resource_id, origin_address, details, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
		nullString(auditLog.RequestID),
		auditLog.PrincipalID,
		auditLog.Action,
		auditLog.ResourceType,
		auditLog.ResourceID,
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
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any
	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, request_id, principal_id, action, resource_type, resource_id, origin_address, details, created_at
			  FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

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
		var requestID, originAddress sql.NullString
		var resourceID uuid.NullUUID
		var details []byte

		err := rows.Scan(
			&auditLog.ID,
			&requestID,
			&auditLog.PrincipalID,
			&auditLog.Action,
			&auditLog.ResourceType,
			&resourceID,
			&originAddress,
			&details,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "failed to scan audit log")
		}

		auditLog.RequestID = requestID.String
		auditLog.OriginAddress = originAddress.String
		if resourceID.Valid {
			auditLog.ResourceID = &resourceID.UUID
		}
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

// marshalDetails returns an untyped nil for nil details so the driver writes NULL.
func marshalDetails(details map[string]any) (any, error) {
	if details == nil {
		return nil, nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log details")
	}
	return data, nil
}

func unmarshalDetails(data []byte) (map[string]any, error) {
	if data == nil {
		return nil, nil
	}
	var details map[string]any
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit log details")
	}
	return details, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
