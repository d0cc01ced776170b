package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
)

type policyUseCase struct {
	policyRepo PolicyRepository
	engine     PolicyEngine
}

func (p *policyUseCase) Create(
	ctx context.Context,
	principalID uuid.UUID,
	input authzDomain.CreatePolicyInput,
) (*authzDomain.Policy, error) {
	if err := p.engine.Require(ctx, principalID, authzDomain.ResourcePolicy, authzDomain.ActionWrite); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	policy := &authzDomain.Policy{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         input.Name,
		Description:  strings.TrimSpace(input.Description),
		ResourceType: input.ResourceType,
		Action:       input.Action,
		Effect:       input.Effect,
		CreatedAt:    time.Now().UTC(),
	}

	if err := p.policyRepo.Create(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func (p *policyUseCase) Get(ctx context.Context, principalID, policyID uuid.UUID) (*authzDomain.Policy, error) {
	if err := p.engine.Require(ctx, principalID, authzDomain.ResourcePolicy, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return p.policyRepo.Get(ctx, policyID)
}

func (p *policyUseCase) List(
	ctx context.Context,
	principalID uuid.UUID,
	offset, limit int,
) ([]*authzDomain.Policy, error) {
	if err := p.engine.Require(ctx, principalID, authzDomain.ResourcePolicy, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return p.policyRepo.List(ctx, offset, limit)
}

func (p *policyUseCase) Delete(ctx context.Context, principalID, policyID uuid.UUID) error {
	if err := p.engine.Require(ctx, principalID, authzDomain.ResourcePolicy, authzDomain.ActionDelete); err != nil {
		return err
	}
	return p.policyRepo.Delete(ctx, policyID)
}

// NewPolicyUseCase creates a new PolicyUseCase.
func NewPolicyUseCase(policyRepo PolicyRepository, engine PolicyEngine) PolicyUseCase {
	return &policyUseCase{
		policyRepo: policyRepo,
		engine:     engine,
	}
}
