package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	authzUseCase "github.com/allisson/vault/internal/authz/usecase"
	"github.com/allisson/vault/internal/database"
	"github.com/allisson/vault/internal/user/domain"
)

// AdminRoleName is the role created by the administrator bootstrap.
const AdminRoleName = "admin"

type bootstrapUseCase struct {
	txManager  database.TxManager
	userRepo   UserRepository
	roleRepo   authzUseCase.RoleRepository
	policyRepo authzUseCase.PolicyRepository
	hasher     PasswordHasher
}

// NewBootstrapUseCase creates a new BootstrapUseCase.
func NewBootstrapUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	roleRepo authzUseCase.RoleRepository,
	policyRepo authzUseCase.PolicyRepository,
	hasher PasswordHasher,
) BootstrapUseCase {
	return &bootstrapUseCase{
		txManager:  txManager,
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		policyRepo: policyRepo,
		hasher:     hasher,
	}
}

func (b *bootstrapUseCase) CreateAdmin(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	user, err := newUser(input, b.hasher)
	if err != nil {
		return nil, err
	}

	err = b.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := b.userRepo.Create(ctx, user); err != nil {
			return err
		}

		role, err := b.adminRole(ctx)
		if err != nil {
			return err
		}
		return b.roleRepo.AssignToUser(ctx, user.ID, role.ID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// adminRole returns the admin role, creating it with its policies on first use.
func (b *bootstrapUseCase) adminRole(ctx context.Context) (*authzDomain.Role, error) {
	role, err := b.roleRepo.GetByName(ctx, AdminRoleName)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, authzDomain.ErrRoleNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	role = &authzDomain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        AdminRoleName,
		Description: "full access to every built-in permission",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}

	for _, permission := range authzDomain.BuiltinPermissions {
		policy := &authzDomain.Policy{
			ID:           uuid.Must(uuid.NewV7()),
			Name:         fmt.Sprintf("admin-%s-%s", permission.ResourceType, permission.Action),
			ResourceType: permission.ResourceType,
			Action:       permission.Action,
			Effect:       authzDomain.EffectAllow,
			CreatedAt:    now,
		}
		if err := b.policyRepo.Create(ctx, policy); err != nil {
			return nil, err
		}
		if err := b.policyRepo.AttachToRole(ctx, role.ID, policy.ID); err != nil {
			return nil, err
		}
	}
	return role, nil
}
