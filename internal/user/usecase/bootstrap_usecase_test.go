package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	"github.com/allisson/vault/internal/testutil"
	"github.com/allisson/vault/internal/user/domain"
)

func TestBootstrapUseCase_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	input := domain.CreateUserInput{Username: "root", Email: "root@example.com", Password: "Adm1n!Password"}

	t.Run("CreatesRoleAndPolicies", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		roleRepo := &mockRoleRepository{}
		policyRepo := &mockPolicyRepository{}
		hasher := &mockPasswordHasher{}
		txManager := &testutil.TxManager{}

		hasher.On("Hash", input.Password).Return("hashed", nil).Once()
		userRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		roleRepo.On("GetByName", ctx, AdminRoleName).Return(nil, authzDomain.ErrRoleNotFound).Once()
		roleRepo.On("Create", ctx, mock.MatchedBy(func(r *authzDomain.Role) bool { return r.Name == AdminRoleName })).
			Return(nil).Once()
		policyRepo.On("Create", ctx, mock.MatchedBy(func(p *authzDomain.Policy) bool {
			return p.Effect == authzDomain.EffectAllow
		})).Return(nil).Times(len(authzDomain.BuiltinPermissions))
		policyRepo.On("AttachToRole", ctx, mock.Anything, mock.Anything).
			Return(nil).Times(len(authzDomain.BuiltinPermissions))
		roleRepo.On("AssignToUser", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		useCase := NewBootstrapUseCase(txManager, userRepo, roleRepo, policyRepo, hasher)
		user, err := useCase.CreateAdmin(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "root", user.Username)
		assert.Equal(t, 1, txManager.Calls)

		userRepo.AssertExpectations(t)
		roleRepo.AssertExpectations(t)
		policyRepo.AssertExpectations(t)
	})

	t.Run("ReusesExistingRole", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		roleRepo := &mockRoleRepository{}
		policyRepo := &mockPolicyRepository{}
		hasher := &mockPasswordHasher{}
		role := &authzDomain.Role{ID: uuid.New(), Name: AdminRoleName}

		hasher.On("Hash", input.Password).Return("hashed", nil).Once()
		userRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		roleRepo.On("GetByName", ctx, AdminRoleName).Return(role, nil).Once()
		roleRepo.On("AssignToUser", ctx, mock.Anything, role.ID).Return(nil).Once()

		useCase := NewBootstrapUseCase(&testutil.TxManager{}, userRepo, roleRepo, policyRepo, hasher)
		_, err := useCase.CreateAdmin(ctx, input)
		require.NoError(t, err)

		policyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		roleRepo.AssertExpectations(t)
	})
}
