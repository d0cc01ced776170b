package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/vault/internal/auth/domain"
	"github.com/allisson/vault/internal/metrics"
)

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (t *tokenUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", operation, status)
	t.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Login records metrics for login operations.
func (t *tokenUseCaseWithMetrics) Login(
	ctx context.Context,
	input authDomain.LoginInput,
) (*authDomain.TokenPair, error) {
	start := time.Now()
	pair, err := t.next.Login(ctx, input)
	t.record(ctx, "token_login", start, err)
	return pair, err
}

// Issue records metrics for token issuance operations.
func (t *tokenUseCaseWithMetrics) Issue(ctx context.Context, userID uuid.UUID) (*authDomain.TokenPair, error) {
	start := time.Now()
	pair, err := t.next.Issue(ctx, userID)
	t.record(ctx, "token_issue", start, err)
	return pair, err
}

// Refresh records metrics for refresh operations.
func (t *tokenUseCaseWithMetrics) Refresh(ctx context.Context, refreshToken string) (*authDomain.TokenPair, error) {
	start := time.Now()
	pair, err := t.next.Refresh(ctx, refreshToken)
	t.record(ctx, "token_refresh", start, err)
	return pair, err
}

// ValidateAccess is on the hot path of every request and is not instrumented.
func (t *tokenUseCaseWithMetrics) ValidateAccess(accessToken string) (uuid.UUID, error) {
	return t.next.ValidateAccess(accessToken)
}

// RevokeAll records metrics for revocation operations.
func (t *tokenUseCaseWithMetrics) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	start := time.Now()
	count, err := t.next.RevokeAll(ctx, userID)
	t.record(ctx, "token_revoke_all", start, err)
	return count, err
}

// CleanExpired records metrics for cleanup operations.
func (t *tokenUseCaseWithMetrics) CleanExpired(ctx context.Context, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := t.next.CleanExpired(ctx, dryRun)
	t.record(ctx, "token_clean_expired", start, err)
	return count, err
}
