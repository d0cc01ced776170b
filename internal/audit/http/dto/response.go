// Package dto provides response types for the audit log endpoints.
package dto

import (
	"time"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
)

// AuditLogResponse is one audit entry in API responses.
type AuditLogResponse struct {
	ID            string         `json:"id"`
	RequestID     string         `json:"request_id,omitempty"`
	PrincipalID   string         `json:"principal_id"`
	Action        string         `json:"action"`
	ResourceType  string         `json:"resource_type"`
	ResourceID    *string        `json:"resource_id,omitempty"`
	OriginAddress string         `json:"origin_address,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ListAuditLogsResponse wraps a page of audit logs.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogToResponse converts a domain audit log.
func MapAuditLogToResponse(auditLog *auditDomain.AuditLog) AuditLogResponse {
	response := AuditLogResponse{
		ID:            auditLog.ID.String(),
		RequestID:     auditLog.RequestID,
		PrincipalID:   auditLog.PrincipalID.String(),
		Action:        auditLog.Action,
		ResourceType:  auditLog.ResourceType,
		OriginAddress: auditLog.OriginAddress,
		Details:       auditLog.Details,
		CreatedAt:     auditLog.CreatedAt,
	}
	if auditLog.ResourceID != nil {
		resourceID := auditLog.ResourceID.String()
		response.ResourceID = &resourceID
	}
	return response
}

// MapAuditLogsToListResponse converts a page of domain audit logs.
func MapAuditLogsToListResponse(auditLogs []*auditDomain.AuditLog) ListAuditLogsResponse {
	data := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		data = append(data, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{Data: data}
}
