package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/vault/internal/metrics"
	secretsDomain "github.com/allisson/vault/internal/secrets/domain"
)

// secretUseCaseWithMetrics decorates SecretUseCase with metrics instrumentation.
type secretUseCaseWithMetrics struct {
	next    SecretUseCase
	metrics metrics.BusinessMetrics
}

// NewSecretUseCaseWithMetrics wraps a SecretUseCase with metrics recording.
func NewSecretUseCaseWithMetrics(useCase SecretUseCase, m metrics.BusinessMetrics) SecretUseCase {
	return &secretUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *secretUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "secrets", operation, status)
	s.metrics.RecordDuration(ctx, "secrets", operation, time.Since(start), status)
}

// Create records metrics for secret creation.
func (s *secretUseCaseWithMetrics) Create(
	ctx context.Context,
	principalID uuid.UUID,
	input secretsDomain.CreateSecretInput,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Create(ctx, principalID, input)
	s.record(ctx, "secret_create", start, err)
	return secret, err
}

// Get records metrics for metadata reads.
func (s *secretUseCaseWithMetrics) Get(
	ctx context.Context,
	principalID, secretID uuid.UUID,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Get(ctx, principalID, secretID)
	s.record(ctx, "secret_get", start, err)
	return secret, err
}

// Reveal records metrics for value reveals.
func (s *secretUseCaseWithMetrics) Reveal(
	ctx context.Context,
	principalID, secretID uuid.UUID,
) (*secretsDomain.RevealedSecret, error) {
	start := time.Now()
	revealed, err := s.next.Reveal(ctx, principalID, secretID)
	s.record(ctx, "secret_reveal", start, err)
	return revealed, err
}

// Rotate records metrics for rotations.
func (s *secretUseCaseWithMetrics) Rotate(
	ctx context.Context,
	principalID, secretID uuid.UUID,
	value []byte,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Rotate(ctx, principalID, secretID, value)
	s.record(ctx, "secret_rotate", start, err)
	return secret, err
}

// List records metrics for listing.
func (s *secretUseCaseWithMetrics) List(
	ctx context.Context,
	principalID uuid.UUID,
	offset, limit int,
) ([]*secretsDomain.Secret, error) {
	start := time.Now()
	secrets, err := s.next.List(ctx, principalID, offset, limit)
	s.record(ctx, "secret_list", start, err)
	return secrets, err
}

// ListVersions records metrics for version history reads.
func (s *secretUseCaseWithMetrics) ListVersions(
	ctx context.Context,
	principalID, secretID uuid.UUID,
) ([]*secretsDomain.SecretVersion, error) {
	start := time.Now()
	versions, err := s.next.ListVersions(ctx, principalID, secretID)
	s.record(ctx, "secret_list_versions", start, err)
	return versions, err
}

// Delete records metrics for deletion.
func (s *secretUseCaseWithMetrics) Delete(ctx context.Context, principalID, secretID uuid.UUID) error {
	start := time.Now()
	err := s.next.Delete(ctx, principalID, secretID)
	s.record(ctx, "secret_delete", start, err)
	return err
}
