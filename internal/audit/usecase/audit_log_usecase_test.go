package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
	authzDomain "github.com/allisson/vault/internal/authz/domain"
	apperrors "github.com/allisson/vault/internal/errors"
)

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

func TestAuditLogUseCase_List(t *testing.T) {
	ctx := context.Background()
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		repo := &recordingRepository{entries: []*auditDomain.AuditLog{newEntry()}}
		engine := &mockPolicyEngine{}
		engine.On("Require", ctx, principalID, authzDomain.ResourceAudit, authzDomain.ActionRead).Return(nil)

		logs, err := NewAuditLogUseCase(repo, engine).List(ctx, principalID, 0, 50, auditDomain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, logs, 1)
		engine.AssertExpectations(t)
	})

	t.Run("Forbidden", func(t *testing.T) {
		engine := &mockPolicyEngine{}
		engine.On("Require", ctx, principalID, authzDomain.ResourceAudit, authzDomain.ActionRead).
			Return(&authzDomain.PermissionDeniedError{ResourceType: authzDomain.ResourceAudit, Action: authzDomain.ActionRead})

		_, err := NewAuditLogUseCase(&recordingRepository{}, engine).List(ctx, principalID, 0, 50, auditDomain.ListFilter{})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		engine := &mockPolicyEngine{}
		engine.On("Require", ctx, principalID, authzDomain.ResourceAudit, authzDomain.ActionRead).Return(nil)
		from := time.Now().UTC()
		to := from.Add(-time.Hour)

		_, err := NewAuditLogUseCase(&recordingRepository{}, engine).List(ctx, principalID, 0, 50, auditDomain.ListFilter{
			CreatedAtFrom: &from,
			CreatedAtTo:   &to,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}
