package usecase

import (
	"context"
	"crypto/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	cryptoService "github.com/allisson/vault/internal/crypto/service"
	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
	"github.com/allisson/vault/internal/testutil"
)

// memoryStore backs memorySecretRepository and memoryVersionRepository.
type memoryStore struct {
	mu       sync.Mutex
	secrets  map[uuid.UUID]*secretsDomain.Secret
	versions map[uuid.UUID][]*secretsDomain.SecretVersion
	lockedBy []uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		secrets:  map[uuid.UUID]*secretsDomain.Secret{},
		versions: map[uuid.UUID][]*secretsDomain.SecretVersion{},
	}
}

// active counts the active versions of a secret.
func (s *memoryStore) active(secretID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, v := range s.versions[secretID] {
		if v.IsActive {
			count++
		}
	}
	return count
}

type memorySecretRepository struct{ s *memoryStore }

type memoryVersionRepository struct{ s *memoryStore }

func (r *memorySecretRepository) Create(_ context.Context, secret *secretsDomain.Secret) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.secrets {
		if existing.Path == secret.Path {
			return secretsDomain.ErrSecretAlreadyExists
		}
	}
	stored := *secret
	r.s.secrets[secret.ID] = &stored
	return nil
}

func (r *memorySecretRepository) Get(_ context.Context, secretID uuid.UUID) (*secretsDomain.Secret, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	secret, ok := r.s.secrets[secretID]
	if !ok {
		return nil, secretsDomain.ErrSecretNotFound
	}
	copied := *secret
	return &copied, nil
}

func (r *memorySecretRepository) GetForUpdate(ctx context.Context, secretID uuid.UUID) (*secretsDomain.Secret, error) {
	r.s.mu.Lock()
	r.s.lockedBy = append(r.s.lockedBy, secretID)
	r.s.mu.Unlock()
	return r.Get(ctx, secretID)
}

func (r *memorySecretRepository) List(_ context.Context, offset, limit int) ([]*secretsDomain.Secret, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	secrets := make([]*secretsDomain.Secret, 0, len(r.s.secrets))
	for _, secret := range r.s.secrets {
		secrets = append(secrets, secret)
	}
	sort.Slice(secrets, func(i, j int) bool { return secrets[i].Path < secrets[j].Path })
	if offset >= len(secrets) {
		return []*secretsDomain.Secret{}, nil
	}
	end := min(offset+limit, len(secrets))
	return secrets[offset:end], nil
}

func (r *memorySecretRepository) UpdateCurrentVersion(
	_ context.Context,
	secretID uuid.UUID,
	version int,
	updatedAt time.Time,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	secret, ok := r.s.secrets[secretID]
	if !ok {
		return secretsDomain.ErrSecretNotFound
	}
	secret.CurrentVersion = version
	secret.UpdatedAt = updatedAt
	return nil
}

func (r *memorySecretRepository) Delete(_ context.Context, secretID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.secrets[secretID]; !ok {
		return secretsDomain.ErrSecretNotFound
	}
	delete(r.s.secrets, secretID)
	return nil
}

func (r *memoryVersionRepository) Create(_ context.Context, version *secretsDomain.SecretVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *version
	r.s.versions[version.SecretID] = append(r.s.versions[version.SecretID], &stored)
	return nil
}

func (r *memoryVersionRepository) GetActive(
	_ context.Context,
	secretID uuid.UUID,
) (*secretsDomain.SecretVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.versions[secretID] {
		if v.IsActive {
			copied := *v
			return &copied, nil
		}
	}
	return nil, secretsDomain.ErrSecretVersionNotFound
}

func (r *memoryVersionRepository) ListBySecretID(
	_ context.Context,
	secretID uuid.UUID,
) ([]*secretsDomain.SecretVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	versions := make([]*secretsDomain.SecretVersion, 0, len(r.s.versions[secretID]))
	for _, v := range r.s.versions[secretID] {
		metadata := *v
		metadata.EncryptedValue = nil
		metadata.WrappedKey = nil
		versions = append(versions, &metadata)
	}
	return versions, nil
}

func (r *memoryVersionRepository) Deactivate(_ context.Context, secretID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var affected int64
	for _, v := range r.s.versions[secretID] {
		if v.IsActive {
			v.IsActive = false
			affected++
		}
	}
	return affected, nil
}

func (r *memoryVersionRepository) DeleteBySecretID(_ context.Context, secretID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.versions, secretID)
	return nil
}

// staticEngine allows exactly the listed secret actions.
type staticEngine struct {
	allowed map[string]bool
}

func allowAll() *staticEngine {
	return &staticEngine{allowed: map[string]bool{
		authzDomain.ActionRead:   true,
		authzDomain.ActionWrite:  true,
		authzDomain.ActionRotate: true,
		authzDomain.ActionReveal: true,
		authzDomain.ActionDelete: true,
	}}
}

func (e *staticEngine) Evaluate(_ context.Context, _ uuid.UUID, resourceType, action string) (bool, error) {
	return resourceType == authzDomain.ResourceSecret && e.allowed[action], nil
}

func (e *staticEngine) Require(ctx context.Context, principalID uuid.UUID, resourceType, action string) error {
	ok, err := e.Evaluate(ctx, principalID, resourceType, action)
	if err != nil {
		return err
	}
	if !ok {
		return &authzDomain.PermissionDeniedError{ResourceType: resourceType, Action: action}
	}
	return nil
}

type secretFixture struct {
	useCase   SecretUseCase
	store     *memoryStore
	engine    *staticEngine
	txManager *testutil.TxManager
	envelope  *cryptoService.EnvelopeService
	principal uuid.UUID
}

func newSecretFixture(t *testing.T, revealAction string) *secretFixture {
	t.Helper()

	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	rootKey, err := cryptoDomain.NewRootKey("root-1", key)
	require.NoError(t, err)

	envelope := cryptoService.NewEnvelopeService(cryptoService.NewAEADManager(), rootKey, cryptoDomain.AESGCM)
	store := newMemoryStore()
	engine := allowAll()
	txManager := &testutil.TxManager{}

	return &secretFixture{
		useCase: NewSecretUseCase(
			txManager,
			&memorySecretRepository{s: store},
			&memoryVersionRepository{s: store},
			envelope,
			engine,
			revealAction,
		),
		store:     store,
		engine:    engine,
		txManager: txManager,
		envelope:  envelope,
		principal: uuid.Must(uuid.NewV7()),
	}
}
