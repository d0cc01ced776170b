package usecase

import (
	"context"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
)

type policyEngine struct {
	policyRepo PolicyRepository
}

// Evaluate loads the principal's reachable policies in a single read and applies
// deny-overrides-allow. A storage failure is returned as an error, never as an allow.
func (e *policyEngine) Evaluate(
	ctx context.Context,
	principalID uuid.UUID,
	resourceType, action string,
) (bool, error) {
	policies, err := e.policyRepo.ListByUserID(ctx, principalID)
	if err != nil {
		return false, err
	}
	return authzDomain.Evaluate(policies, resourceType, action), nil
}

// Require gates an operation on Evaluate.
func (e *policyEngine) Require(
	ctx context.Context,
	principalID uuid.UUID,
	resourceType, action string,
) error {
	allowed, err := e.Evaluate(ctx, principalID, resourceType, action)
	if err != nil {
		return err
	}
	if !allowed {
		return &authzDomain.PermissionDeniedError{ResourceType: resourceType, Action: action}
	}
	return nil
}

// NewPolicyEngine creates a PolicyEngine backed by policyRepo.
func NewPolicyEngine(policyRepo PolicyRepository) PolicyEngine {
	return &policyEngine{policyRepo: policyRepo}
}
