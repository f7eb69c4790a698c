// Package memory provides an in-process SelectionStore.
package memory

import (
	"context"
	"sync"
)

// SelectionStore implements usecase.SelectionStore with a map.
type SelectionStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSelectionStore creates an empty SelectionStore.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *SelectionStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *SelectionStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *SelectionStore) Ping(context.Context) error {
	return nil
}
