package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	apperrors "github.com/allisson/vault/internal/errors"
)

func TestPolicyEngine_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultDeny_NoRoles", func(t *testing.T) {
		store := newMemoryStore()
		engine := NewPolicyEngine(&memoryPolicyRepository{s: store})

		allowed, err := engine.Evaluate(ctx, uuid.New(), "secret", "read")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("ReadOnlyRole", func(t *testing.T) {
		store := newMemoryStore()
		principal := uuid.New()
		store.grant(principal, "reader", allow("secret", "read"))
		engine := NewPolicyEngine(&memoryPolicyRepository{s: store})

		allowed, err := engine.Evaluate(ctx, principal, "secret", "write")
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, err = engine.Evaluate(ctx, principal, "secret", "read")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("DenyOverridesAllowAcrossRoles", func(t *testing.T) {
		store := newMemoryStore()
		principal := uuid.New()
		store.grant(principal, "writers", allow("secret", "write"))
		store.grant(principal, "frozen", deny("secret", "write"))
		engine := NewPolicyEngine(&memoryPolicyRepository{s: store})

		allowed, err := engine.Evaluate(ctx, principal, "secret", "write")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("OtherPrincipalsPoliciesDoNotLeak", func(t *testing.T) {
		store := newMemoryStore()
		admin := uuid.New()
		store.grant(admin, "admin", allow("secret", "delete"))
		engine := NewPolicyEngine(&memoryPolicyRepository{s: store})

		allowed, err := engine.Evaluate(ctx, uuid.New(), "secret", "delete")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("StorageErrorFailsClosed", func(t *testing.T) {
		store := newMemoryStore()
		store.listErr = apperrors.Storage(errors.New("connection reset"), "failed to list policies")
		engine := NewPolicyEngine(&memoryPolicyRepository{s: store})

		allowed, err := engine.Evaluate(ctx, uuid.New(), "secret", "read")
		assert.ErrorIs(t, err, apperrors.ErrStorage)
		assert.False(t, allowed)
	})
}

func TestPolicyEngine_Require(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	principal := uuid.New()
	store.grant(principal, "reader", allow("secret", "read"))
	engine := NewPolicyEngine(&memoryPolicyRepository{s: store})

	require.NoError(t, engine.Require(ctx, principal, "secret", "read"))

	err := engine.Require(ctx, principal, "secret", "rotate")
	var denied *authzDomain.PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "secret", denied.ResourceType)
	assert.Equal(t, "rotate", denied.Action)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestPolicyEngine_ConcurrentEvaluate(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	principal := uuid.New()
	store.grant(principal, "reader", allow("secret", "read"), deny("secret", "delete"))
	engine := NewPolicyEngine(&memoryPolicyRepository{s: store})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := engine.Evaluate(ctx, principal, "secret", "read")
			assert.NoError(t, err)
			assert.True(t, allowed)
			assert.Error(t, engine.Require(ctx, principal, "secret", "delete"))
		}()
	}
	wg.Wait()
}
