// Package usecase implements the policy engine and role/policy administration.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
)

// RoleRepository persists roles and user memberships.
type RoleRepository interface {
	Create(ctx context.Context, role *authzDomain.Role) error
	Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error)
	GetByName(ctx context.Context, name string) (*authzDomain.Role, error)
	List(ctx context.Context, offset, limit int) ([]*authzDomain.Role, error)
	Delete(ctx context.Context, roleID uuid.UUID) error

	// AssignToUser links a user to a role. Assigning twice is a no-op.
	AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error
	UnassignFromUser(ctx context.Context, userID, roleID uuid.UUID) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Role, error)
}

// PolicyRepository persists policies and role attachments.
type PolicyRepository interface {
	Create(ctx context.Context, policy *authzDomain.Policy) error
	Get(ctx context.Context, policyID uuid.UUID) (*authzDomain.Policy, error)
	List(ctx context.Context, offset, limit int) ([]*authzDomain.Policy, error)
	Delete(ctx context.Context, policyID uuid.UUID) error

	// AttachToRole links a policy to a role. Attaching twice is a no-op.
	AttachToRole(ctx context.Context, roleID, policyID uuid.UUID) error
	DetachFromRole(ctx context.Context, roleID, policyID uuid.UUID) error
	ListByRoleID(ctx context.Context, roleID uuid.UUID) ([]*authzDomain.Policy, error)

	// ListByUserID returns the union of policies reachable through the user's roles.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Policy, error)
}

// PolicyEngine decides whether a principal may perform an action on a resource
// type. It only reads role and policy associations and is safe for concurrent use.
type PolicyEngine interface {
	// Evaluate returns true only when an allow policy matches and no deny policy does.
	Evaluate(ctx context.Context, principalID uuid.UUID, resourceType, action string) (bool, error)

	// Require returns *authzDomain.PermissionDeniedError when Evaluate is false.
	Require(ctx context.Context, principalID uuid.UUID, resourceType, action string) error
}

// RoleUseCase administers roles, their policies and their members.
type RoleUseCase interface {
	Create(ctx context.Context, principalID uuid.UUID, input authzDomain.CreateRoleInput) (*authzDomain.Role, error)
	Get(ctx context.Context, principalID, roleID uuid.UUID) (*authzDomain.Role, error)
	List(ctx context.Context, principalID uuid.UUID, offset, limit int) ([]*authzDomain.Role, error)
	Delete(ctx context.Context, principalID, roleID uuid.UUID) error

	AttachPolicy(ctx context.Context, principalID, roleID, policyID uuid.UUID) error
	DetachPolicy(ctx context.Context, principalID, roleID, policyID uuid.UUID) error
	ListPolicies(ctx context.Context, principalID, roleID uuid.UUID) ([]*authzDomain.Policy, error)

	AssignToUser(ctx context.Context, principalID, userID, roleID uuid.UUID) error
	UnassignFromUser(ctx context.Context, principalID, userID, roleID uuid.UUID) error
	ListUserRoles(ctx context.Context, principalID, userID uuid.UUID) ([]*authzDomain.Role, error)
}

// PolicyUseCase administers policies.
type PolicyUseCase interface {
	Create(ctx context.Context, principalID uuid.UUID, input authzDomain.CreatePolicyInput) (*authzDomain.Policy, error)
	Get(ctx context.Context, principalID, policyID uuid.UUID) (*authzDomain.Policy, error)
	List(ctx context.Context, principalID uuid.UUID, offset, limit int) ([]*authzDomain.Policy, error)
	Delete(ctx context.Context, principalID, policyID uuid.UUID) error
}
