package domain

import (
	"fmt"

	"github.com/allisson/vault/internal/errors"
)

// Authorization domain errors.
var (
	// ErrRoleNotFound indicates the role does not exist.
	ErrRoleNotFound = errors.Wrap(errors.ErrNotFound, "role not found")

	// ErrRoleAlreadyExists indicates a role with the same name exists.
	ErrRoleAlreadyExists = errors.Wrap(errors.ErrConflict, "role already exists")

	// ErrPolicyNotFound indicates the policy does not exist.
	ErrPolicyNotFound = errors.Wrap(errors.ErrNotFound, "policy not found")

	// ErrPolicyAlreadyExists indicates a policy with the same name exists.
	ErrPolicyAlreadyExists = errors.Wrap(errors.ErrConflict, "policy already exists")

	// ErrAssignmentTargetNotFound indicates a role, policy or user referenced by an
	// association does not exist.
	ErrAssignmentTargetNotFound = errors.Wrap(errors.ErrNotFound, "association target not found")
)

// PermissionDeniedError is returned by Require when policy evaluation fails.
// It unwraps to errors.ErrForbidden.
type PermissionDeniedError struct {
	ResourceType string
	Action       string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s on %s", e.Action, e.ResourceType)
}

func (e *PermissionDeniedError) Unwrap() error {
	return errors.ErrForbidden
}
