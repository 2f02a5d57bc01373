package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/childcare-site/pkg/logging"
)

// MemoryLimiter keeps records in process. Suitable for a single instance and
// for tests; multi-instance deployments use RedisLimiter.
type MemoryLimiter struct {
	mu        sync.Mutex
	records   map[string]*Record
	cfg       Config
	now       func() time.Time
	logger    *logging.Logger
	lastSweep time.Time
}

// MemoryOption customizes a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) { m.now = now }
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(cfg Config, logger *logging.Logger, opts ...MemoryOption) *MemoryLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	m := &MemoryLimiter{
		records: make(map[string]*Record),
		cfg:     cfg.normalized(),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allow implements Limiter.
func (m *MemoryLimiter) Allow(_ context.Context, identifier string) (Decision, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		m.logger.Warn("rate limit identifier missing, allowing request", "error", ErrEmptyIdentifier)
		return Decision{Allowed: true, Remaining: m.cfg.MaxAttempts, FailOpen: true}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)

	rec, ok := m.records[identifier]
	if !ok {
		rec = &Record{}
		m.records[identifier] = rec
	}
	decision := step(rec, m.cfg, now)
	if !decision.Allowed {
		m.logger.Warn("rate limit exceeded", "identifier", identifier, "count", decision.Count, "reset_at", decision.ResetAt)
	}
	return decision, nil
}

// Len returns the number of tracked identifiers.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// sweepLocked drops expired records at most once per window.
func (m *MemoryLimiter) sweepLocked(now time.Time) {
	if !m.lastSweep.IsZero() && now.Sub(m.lastSweep) < m.cfg.Window {
		return
	}
	m.lastSweep = now
	for id, rec := range m.records {
		if rec.expired(m.cfg, now) {
			delete(m.records, id)
		}
	}
}
