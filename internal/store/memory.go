package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte

	// GetErr and PutErr, when set, make the corresponding call fail.
	GetErr error
	PutErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	return nil
}
