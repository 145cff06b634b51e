package item

import (
	"context"
	"sync"
)

// Store persists the whole item collection at once. Implementations read and
// write the complete ordered sequence; there is no partial access.
type Store interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// MemoryStore implements Store with an in-memory slice, suitable for tests
// and throwaway runs.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Item
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied items.
func NewMemoryStore(items []Item) *MemoryStore {
	return &MemoryStore{items: clone(items)}
}

// Load returns a copy of the stored collection.
func (s *MemoryStore) Load(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items), nil
}

// Save replaces the stored collection.
func (s *MemoryStore) Save(_ context.Context, items []Item) error {
	s.mu.Lock()
	s.items = clone(items)
	s.mu.Unlock()
	return nil
}
