// Package domain defines audit log entries.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audited actions.
const (
	ActionSecretCreate = "secret.create"
	ActionSecretReveal = "secret.reveal"
	ActionSecretRotate = "secret.rotate"
	ActionSecretDelete = "secret.delete"

	ActionUserCreate     = "user.create"
	ActionUserUpdate     = "user.update"
	ActionUserDeactivate = "user.deactivate"
	ActionUserDelete     = "user.delete"

	ActionRoleCreate       = "role.create"
	ActionRoleDelete       = "role.delete"
	ActionRoleAttachPolicy = "role.attach_policy"
	ActionRoleDetachPolicy = "role.detach_policy"
	ActionRoleAssign       = "role.assign"
	ActionRoleUnassign     = "role.unassign"

	ActionPolicyCreate = "policy.create"
	ActionPolicyDelete = "policy.delete"

	ActionLoginFailed        = "auth.login_failed"
	ActionRefreshTokenReused = "auth.refresh_token_reused"
	ActionTokensRevoked      = "auth.tokens_revoked"
)

// AuditLog records one security relevant action of a principal. ResourceID,
// RequestID, OriginAddress and Details are optional.
type AuditLog struct {
	ID            uuid.UUID
	RequestID     string
	PrincipalID   uuid.UUID
	Action        string
	ResourceType  string
	ResourceID    *uuid.UUID
	OriginAddress string
	Details       map[string]any
	CreatedAt     time.Time
}

// ListFilter restricts audit log listing to an inclusive created_at range.
// Nil bounds are open.
type ListFilter struct {
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}
