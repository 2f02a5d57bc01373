package referrals

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for referral storage
type Repository interface {
	Create(ctx context.Context, req *CreateReferralRequest) (*Referral, error)
	GetByCode(ctx context.Context, code string) (*Referral, error)
	List(ctx context.Context, limit, offset int) ([]*Referral, error)
}

// InMemoryRepository keeps referrals in memory for development and tests.
type InMemoryRepository struct {
	mu        sync.RWMutex
	referrals map[string]*Referral
	now       func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		referrals: make(map[string]*Referral),
		now:       time.Now,
	}
}

// Create stores a new referral keyed by code.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateReferralRequest) (*Referral, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.referrals[req.Code]; exists {
		return nil, ErrDuplicateCode
	}
	ref := &Referral{
		ID:             uuid.New().String(),
		Code:           req.Code,
		ReferrerName:   req.ReferrerName,
		ReferrerEmail:  req.ReferrerEmail,
		ReferredFamily: req.ReferredFamily,
		ReferredEmail:  req.ReferredEmail,
		Status:         StatusNew,
		Notes:          req.Notes,
		CreatedAt:      r.now().UTC(),
	}
	r.referrals[ref.Code] = ref
	cp := *ref
	return &cp, nil
}

// GetByCode retrieves a referral by its code.
func (r *InMemoryRepository) GetByCode(ctx context.Context, code string) (*Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.referrals[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ref
	return &cp, nil
}

// List returns referrals newest first.
func (r *InMemoryRepository) List(ctx context.Context, limit, offset int) ([]*Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Referral, 0, len(r.referrals))
	for _, ref := range r.referrals {
		cp := *ref
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*Referral{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
