package store

import (
	"context"
	"sync"

	"github.com/layer-3/mintpass/ports"
)

// MemoryStore is an in-memory implementation of the Store interface
type MemoryStore struct {
	values map[string]string
	mu     sync.Mutex
}

// Compile-time interface compliance check
var _ ports.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get returns the value stored under key
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Update runs fn under the store lock, so concurrent updates are serialized
func (s *MemoryStore) Update(ctx context.Context, keys []string, fn ports.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := s.values[key]; ok {
			current[key] = value
		}
	}

	updates, err := fn(current)
	if err != nil {
		return err
	}
	for key, value := range updates {
		s.values[key] = value
	}
	return nil
}
