// Package memory provides an in-memory key/value storage for tests and
// throwaway runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/fixfast/mockdesk/internal/repository"
)

// Storage is a map-backed repository.Storage. Values are copied on the way in
// and out so callers can't alias stored bytes.
type Storage struct {
	mu      sync.RWMutex
	entries map[string][]byte
	closed  bool
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{entries: make(map[string][]byte)}
}

// Get returns a copy of the value stored at key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, repository.ErrClosed
	}
	value, ok := s.entries[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return slices.Clone(value), nil
}

// Set stores a copy of value at key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return repository.ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	s.entries[key] = slices.Clone(value)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return repository.ErrClosed
	}
	delete(s.entries, key)
	return nil
}

// Snapshot returns a deep copy of every entry.
func (s *Storage) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.entries))
	for k, v := range s.entries {
		out[k] = slices.Clone(v)
	}
	return out
}

// Close marks the storage as closed.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
