package submissions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists validated submissions.
type Store interface {
	// Persist saves sub and returns its id and status. Calling it again with
	// the same idempotency key and payload returns the original row instead
	// of creating a duplicate; a different payload under a used key fails
	// with ErrIdempotencyConflict.
	Persist(ctx context.Context, sub *Submission, idempotencyKey string) (*Stored, error)
}

// Reader is the lookup side used by admin tooling and tests.
type Reader interface {
	GetByID(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, filter ListFilter) ([]*Submission, error)
}

// ListFilter narrows List results.
type ListFilter struct {
	Kind   Kind
	Status Status
	Limit  int
	Offset int
}

// Capacity holds per-program seat limits. Programs without an entry, or
// with a non-positive limit, never waitlist.
type Capacity map[string]int

// StatusFor decides the status of a new submission given how many pending
// requests already exist for its program.
func (c Capacity) StatusFor(sub *Submission, pendingForProgram int) Status {
	if sub.Kind != KindEnrollment {
		return StatusPending
	}
	limit, ok := c[sub.Program()]
	if !ok || limit <= 0 {
		return StatusPending
	}
	if pendingForProgram >= limit {
		return StatusWaitlisted
	}
	return StatusPending
}

// payloadFingerprint hashes the sanitized payload so a replayed key can be
// matched against the request that first used it.
func payloadFingerprint(sub *Submission) (string, error) {
	payload, err := marshalPayload(sub)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(string(sub.Kind)+":"), payload...))
	return hex.EncodeToString(sum[:]), nil
}

// InMemoryStore is a Store for development and tests.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
	byKey       map[string]string
	capacity    Capacity
	now         func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore(capacity Capacity) *InMemoryStore {
	return &InMemoryStore{
		submissions: make(map[string]*Submission),
		byKey:       make(map[string]string),
		capacity:    capacity,
		now:         time.Now,
	}
}

// Persist implements Store.
func (s *InMemoryStore) Persist(ctx context.Context, sub *Submission, idempotencyKey string) (*Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fingerprint, err := payloadFingerprint(sub)
	if err != nil {
		return nil, Permanent(err)
	}
	if idempotencyKey != "" {
		if id, ok := s.byKey[idempotencyKey]; ok {
			existing := s.submissions[id]
			if prev, err := payloadFingerprint(existing); err != nil || prev != fingerprint {
				return nil, Permanent(ErrIdempotencyConflict)
			}
			return &Stored{ID: existing.ID, Status: existing.Status, CreatedAt: existing.CreatedAt, Duplicate: true}, nil
		}
	}

	pending := 0
	if sub.Kind == KindEnrollment {
		for _, other := range s.submissions {
			if other.Kind == KindEnrollment && other.Program() == sub.Program() && other.Status == StatusPending {
				pending++
			}
		}
	}

	stored := *sub
	stored.ID = uuid.New().String()
	stored.Status = s.capacity.StatusFor(sub, pending)
	stored.CreatedAt = s.now().UTC()
	s.submissions[stored.ID] = &stored
	if idempotencyKey != "" {
		s.byKey[idempotencyKey] = stored.ID
	}

	return &Stored{ID: stored.ID, Status: stored.Status, CreatedAt: stored.CreatedAt}, nil
}

// GetByID implements Reader.
func (s *InMemoryStore) GetByID(_ context.Context, id string) (*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

// List implements Reader, newest first.
func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if filter.Kind != "" && sub.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*Submission{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Len returns the number of stored submissions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions)
}
