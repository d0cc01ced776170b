package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/vault/internal/audit/domain"
)

const defaultWriteTimeout = 5 * time.Second

// AsyncSink queues audit entries on a bounded channel and persists them from a
// single worker goroutine. A full queue drops the entry with a warning. Close
// drains what is queued and stops the worker.
type AsyncSink struct {
	repo         AuditLogRepository
	logger       *slog.Logger
	queue        chan *auditDomain.AuditLog
	done         chan struct{}
	writeTimeout time.Duration
	dropped      atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewAsyncSink starts the worker. bufferSize below 1 is raised to 1.
func NewAsyncSink(repo AuditLogRepository, bufferSize int, logger *slog.Logger) *AsyncSink {
	s := &AsyncSink{
		repo:         repo,
		logger:       logger,
		queue:        make(chan *auditDomain.AuditLog, max(bufferSize, 1)),
		done:         make(chan struct{}),
		writeTimeout: defaultWriteTimeout,
	}
	go s.run()
	return s
}

// Record enqueues entry, filling ID and CreatedAt when unset. It never blocks.
func (s *AsyncSink) Record(ctx context.Context, entry *auditDomain.AuditLog) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.Must(uuid.NewV7())
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop(ctx, entry, "audit sink closed, dropping entry")
		return
	}

	select {
	case s.queue <- entry:
	default:
		s.drop(ctx, entry, "audit queue full, dropping entry")
	}
}

// Dropped returns how many entries were discarded.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting entries and waits until the queue is drained or ctx is done.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for entry := range s.queue {
		s.persist(entry)
	}
}

// persist uses its own context: the request that produced the entry has
// usually finished by now.
func (s *AsyncSink) persist(entry *auditDomain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to persist audit log",
			slog.String("action", entry.Action),
			slog.String("principal_id", entry.PrincipalID.String()),
			slog.Any("error", err),
		)
	}
}

func (s *AsyncSink) drop(ctx context.Context, entry *auditDomain.AuditLog, msg string) {
	s.dropped.Add(1)
	s.logger.WarnContext(ctx, msg,
		slog.String("action", entry.Action),
		slog.String("principal_id", entry.PrincipalID.String()),
	)
}
