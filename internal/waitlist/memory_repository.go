package waitlist

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	entrants map[string]Entrant // keyed by email
}

// NewMemoryRepository builds an in-memory entrant store for dev and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{entrants: make(map[string]Entrant)}
}

func (r *memoryRepository) Create(_ context.Context, e Entrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entrants[e.Email]; exists {
		return ErrDuplicateEmail
	}
	r.entrants[e.Email] = e
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Entrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entrants[email]
	if !ok {
		return Entrant{}, ErrNotFound
	}
	return e, nil
}

func (r *memoryRepository) FindByStatusID(_ context.Context, statusID string) (Entrant, error) {
	return r.find(func(e Entrant) bool { return e.StatusID == statusID })
}

func (r *memoryRepository) FindByReferralCode(_ context.Context, code string) (Entrant, error) {
	return r.find(func(e Entrant) bool { return e.ReferralCode == code })
}

func (r *memoryRepository) find(match func(Entrant) bool) (Entrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entrants {
		if match(e) {
			return e, nil
		}
	}
	return Entrant{}, ErrNotFound
}
