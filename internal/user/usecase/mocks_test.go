package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	"github.com/allisson/vault/internal/user/domain"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

type mockTokenRevoker struct {
	mock.Mock
}

func (m *mockTokenRevoker) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPolicyEngine struct {
	mock.Mock
}

func (m *mockPolicyEngine) Evaluate(ctx context.Context, principalID uuid.UUID, resourceType, action string) (bool, error) {
	args := m.Called(ctx, principalID, resourceType, action)
	return args.Bool(0), args.Error(1)
}

func (m *mockPolicyEngine) Require(ctx context.Context, principalID uuid.UUID, resourceType, action string) error {
	return m.Called(ctx, principalID, resourceType, action).Error(0)
}

type mockRoleRepository struct {
	mock.Mock
}

func (m *mockRoleRepository) Create(ctx context.Context, role *authzDomain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleRepository) Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.Role), args.Error(1)
}

func (m *mockRoleRepository) GetByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.Role), args.Error(1)
}

func (m *mockRoleRepository) List(ctx context.Context, offset, limit int) ([]*authzDomain.Role, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]*authzDomain.Role), args.Error(1)
}

func (m *mockRoleRepository) Delete(ctx context.Context, roleID uuid.UUID) error {
	return m.Called(ctx, roleID).Error(0)
}

func (m *mockRoleRepository) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

func (m *mockRoleRepository) UnassignFromUser(ctx context.Context, userID, roleID uuid.UUID) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

func (m *mockRoleRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*authzDomain.Role), args.Error(1)
}

type mockPolicyRepository struct {
	mock.Mock
}

func (m *mockPolicyRepository) Create(ctx context.Context, policy *authzDomain.Policy) error {
	return m.Called(ctx, policy).Error(0)
}

func (m *mockPolicyRepository) Get(ctx context.Context, policyID uuid.UUID) (*authzDomain.Policy, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authzDomain.Policy), args.Error(1)
}

func (m *mockPolicyRepository) List(ctx context.Context, offset, limit int) ([]*authzDomain.Policy, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]*authzDomain.Policy), args.Error(1)
}

func (m *mockPolicyRepository) Delete(ctx context.Context, policyID uuid.UUID) error {
	return m.Called(ctx, policyID).Error(0)
}

func (m *mockPolicyRepository) AttachToRole(ctx context.Context, roleID, policyID uuid.UUID) error {
	return m.Called(ctx, roleID, policyID).Error(0)
}

func (m *mockPolicyRepository) DetachFromRole(ctx context.Context, roleID, policyID uuid.UUID) error {
	return m.Called(ctx, roleID, policyID).Error(0)
}

func (m *mockPolicyRepository) ListByRoleID(ctx context.Context, roleID uuid.UUID) ([]*authzDomain.Policy, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]*authzDomain.Policy), args.Error(1)
}

func (m *mockPolicyRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Policy, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*authzDomain.Policy), args.Error(1)
}
