package relationaldb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/events"
	"go.uber.org/zap"
)

// Manager fronts an EventRepository as an events.Sink, retrying appends
// that fail with a retryable error.
type Manager struct {
	repo   EventRepository
	config *Config
	logger *zap.Logger

	mu        sync.RWMutex
	lastError error
}

var _ events.Sink = (*Manager)(nil)

// NewManager creates a new index manager. logger may be nil.
func NewManager(repo EventRepository, config *Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{repo: repo, config: config, logger: logger}
}

// Publish implements events.Sink.
func (m *Manager) Publish(ctx context.Context, evts []events.Event) error {
	return m.ExecuteWithRetry(ctx, func() error {
		return m.repo.Append(ctx, evts)
	})
}

func (m *Manager) Query(ctx context.Context, f events.Filter) ([]events.Event, error) {
	return m.repo.Query(ctx, f)
}

func (m *Manager) LastSeq(ctx context.Context) (uint64, error) {
	return m.repo.LastSeq(ctx)
}

// LastError returns the last error encountered
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// HealthCheck pings the database
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		m.recordError(err)
		m.logger.Error("Health check failed", zap.Error(err))
		return fmt.Errorf("health_check: %w", err)
	}
	return nil
}

// Close closes the repository. A nil manager has nothing to close.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	return m.repo.Close()
}

// ExecuteWithRetry executes a function with retry logic
func (m *Manager) ExecuteWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * m.config.RetryDelay
			m.logger.Debug("Retrying operation",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := operation()
		if err == nil {
			if attempt > 0 {
				m.logger.Info("Operation succeeded after retry", zap.Int("attempt", attempt))
			}
			return nil
		}

		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}

	m.recordError(lastErr)
	m.logger.Error("Operation failed", zap.String("driver", m.config.Driver), zap.Error(lastErr))
	return fmt.Errorf("execute_with_retry: %w", lastErr)
}

func (m *Manager) recordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err
}
