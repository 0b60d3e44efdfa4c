package storage

import (
	"context"
	"sync"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
)

var _ domain.GuestCartStore = (*InMemoryGuestCartStore)(nil)

// InMemoryGuestCartStore keeps guest carts in a process-local map. Used in
// tests and when the engine runs without Redis.
type InMemoryGuestCartStore struct {
	store map[string][]domain.CartEntry

	mu sync.RWMutex
}

func NewInMemoryGuestCartStore() *InMemoryGuestCartStore {
	return &InMemoryGuestCartStore{
		store: make(map[string][]domain.CartEntry),
	}
}

func (s *InMemoryGuestCartStore) Load(ctx context.Context, sessionID string) ([]domain.CartEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.store[sessionID]
	out := make([]domain.CartEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *InMemoryGuestCartStore) Save(ctx context.Context, sessionID string, entries []domain.CartEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.CartEntry, len(entries))
	copy(stored, entries)
	s.store[sessionID] = stored
	return nil
}

func (s *InMemoryGuestCartStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, sessionID)
	return nil
}
