package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	"github.com/allisson/vault/internal/database"
)

type roleUseCase struct {
	txManager  database.TxManager
	roleRepo   RoleRepository
	policyRepo PolicyRepository
	engine     PolicyEngine
}

func (r *roleUseCase) Create(
	ctx context.Context,
	principalID uuid.UUID,
	input authzDomain.CreateRoleInput,
) (*authzDomain.Role, error) {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionWrite); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	role := &authzDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *roleUseCase) Get(ctx context.Context, principalID, roleID uuid.UUID) (*authzDomain.Role, error) {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return r.roleRepo.Get(ctx, roleID)
}

func (r *roleUseCase) List(
	ctx context.Context,
	principalID uuid.UUID,
	offset, limit int,
) ([]*authzDomain.Role, error) {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	return r.roleRepo.List(ctx, offset, limit)
}

// Delete removes the role. Memberships and attachments go with it through
// ON DELETE CASCADE.
func (r *roleUseCase) Delete(ctx context.Context, principalID, roleID uuid.UUID) error {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionDelete); err != nil {
		return err
	}
	return r.roleRepo.Delete(ctx, roleID)
}

func (r *roleUseCase) AttachPolicy(ctx context.Context, principalID, roleID, policyID uuid.UUID) error {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionWrite); err != nil {
		return err
	}

	return r.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := r.roleRepo.Get(ctx, roleID); err != nil {
			return err
		}
		if _, err := r.policyRepo.Get(ctx, policyID); err != nil {
			return err
		}
		return r.policyRepo.AttachToRole(ctx, roleID, policyID)
	})
}

func (r *roleUseCase) DetachPolicy(ctx context.Context, principalID, roleID, policyID uuid.UUID) error {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionWrite); err != nil {
		return err
	}
	return r.policyRepo.DetachFromRole(ctx, roleID, policyID)
}

func (r *roleUseCase) ListPolicies(
	ctx context.Context,
	principalID, roleID uuid.UUID,
) ([]*authzDomain.Policy, error) {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionRead); err != nil {
		return nil, err
	}
	if _, err := r.roleRepo.Get(ctx, roleID); err != nil {
		return nil, err
	}
	return r.policyRepo.ListByRoleID(ctx, roleID)
}

// AssignToUser links a user to a role. A missing user surfaces from the
// repository as ErrAssignmentTargetNotFound.
func (r *roleUseCase) AssignToUser(ctx context.Context, principalID, userID, roleID uuid.UUID) error {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionWrite); err != nil {
		return err
	}

	return r.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := r.roleRepo.Get(ctx, roleID); err != nil {
			return err
		}
		return r.roleRepo.AssignToUser(ctx, userID, roleID)
	})
}

func (r *roleUseCase) UnassignFromUser(ctx context.Context, principalID, userID, roleID uuid.UUID) error {
	if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionWrite); err != nil {
		return err
	}
	return r.roleRepo.UnassignFromUser(ctx, userID, roleID)
}

func (r *roleUseCase) ListUserRoles(
	ctx context.Context,
	principalID, userID uuid.UUID,
) ([]*authzDomain.Role, error) {
	if principalID != userID {
		if err := r.engine.Require(ctx, principalID, authzDomain.ResourceRole, authzDomain.ActionRead); err != nil {
			return nil, err
		}
	}
	return r.roleRepo.ListByUserID(ctx, userID)
}

// NewRoleUseCase creates a new RoleUseCase.
func NewRoleUseCase(
	txManager database.TxManager,
	roleRepo RoleRepository,
	policyRepo PolicyRepository,
	engine PolicyEngine,
) RoleUseCase {
	return &roleUseCase{
		txManager:  txManager,
		roleRepo:   roleRepo,
		policyRepo: policyRepo,
		engine:     engine,
	}
}
