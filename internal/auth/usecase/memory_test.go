package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/vault/internal/auth/domain"
	authService "github.com/allisson/vault/internal/auth/service"
	"github.com/allisson/vault/internal/testutil"
	userDomain "github.com/allisson/vault/internal/user/domain"
)

// memoryTokenRepository mirrors the conditional revoke of the SQL repositories.
type memoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*authDomain.StoredRefreshToken
}

func newMemoryTokenRepository() *memoryTokenRepository {
	return &memoryTokenRepository{tokens: make(map[string]*authDomain.StoredRefreshToken)}
}

func (m *memoryTokenRepository) Create(_ context.Context, token *authDomain.StoredRefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *token
	m.tokens[token.TokenHash] = &stored
	return nil
}

func (m *memoryTokenRepository) GetByHash(_ context.Context, tokenHash string) (*authDomain.StoredRefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[tokenHash]
	if !ok {
		return nil, authDomain.ErrRefreshTokenNotFound
	}
	copied := *token
	return &copied, nil
}

func (m *memoryTokenRepository) Revoke(_ context.Context, tokenID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.tokens {
		if token.ID == tokenID && !token.Revoked {
			token.Revoked = true
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memoryTokenRepository) RevokeAllByUserID(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, token := range m.tokens {
		if token.UserID == userID && !token.Revoked && token.ExpiresAt.After(now) {
			token.Revoked = true
			count++
		}
	}
	return count, nil
}

func (m *memoryTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for hash, token := range m.tokens {
		if token.ExpiresAt.Before(before) {
			delete(m.tokens, hash)
			count++
		}
	}
	return count, nil
}

func (m *memoryTokenRepository) CountExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, token := range m.tokens {
		if token.ExpiresAt.Before(before) {
			count++
		}
	}
	return count, nil
}

func (m *memoryTokenRepository) live(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, token := range m.tokens {
		if token.UserID == userID && !token.Revoked {
			count++
		}
	}
	return count
}

type memoryUsers struct {
	byID map[uuid.UUID]*userDomain.User
}

func (m *memoryUsers) Get(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*userDomain.User, error) {
	for _, user := range m.byID {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, userDomain.ErrUserNotFound
}

// plainHasher stores passwords as "hashed:<plain>" so tests avoid argon2 cost.
type plainHasher struct {
	mu    sync.Mutex
	calls int
}

func (p *plainHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (p *plainHasher) Verify(plain, hash string) bool {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return hash != "" && hash == "hashed:"+plain
}

type tokenFixture struct {
	repo      *memoryTokenRepository
	users     *memoryUsers
	hasher    *plainHasher
	txManager *testutil.TxManager
	useCase   *tokenUseCase
	alice     *userDomain.User
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()

	key := []byte(strings.Repeat("k", 32))
	signer, err := authService.NewTokenSigner(key, "HS256", "vault")
	require.NoError(t, err)
	tokenHasher, err := authService.NewTokenHasher(key)
	require.NoError(t, err)

	alice := &userDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "alice",
		PasswordHash: "hashed:Str0ng!Passw0rd",
		IsActive:     true,
	}
	f := &tokenFixture{
		repo:      newMemoryTokenRepository(),
		users:     &memoryUsers{byID: map[uuid.UUID]*userDomain.User{alice.ID: alice}},
		hasher:    &plainHasher{},
		txManager: &testutil.TxManager{},
		alice:     alice,
	}
	f.useCase = NewTokenUseCase(
		TokenConfig{AccessTokenTTL: 15 * time.Minute, RefreshTokenTTL: 7 * 24 * time.Hour},
		f.txManager,
		f.repo,
		f.users,
		f.hasher,
		tokenHasher,
		signer,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	).(*tokenUseCase)
	return f
}
