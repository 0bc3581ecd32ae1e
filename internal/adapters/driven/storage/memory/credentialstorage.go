package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/authkit/internal/core/ports/driven"
)

// Ensure CredentialStorage implements the interface.
var _ driven.CredentialStorage = (*CredentialStorage)(nil)

// CredentialStorage is an in-memory implementation of driven.CredentialStorage.
// Values are lost when the process exits.
type CredentialStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewCredentialStorage creates a new in-memory credential storage.
func NewCredentialStorage() *CredentialStorage {
	return &CredentialStorage{
		values: make(map[string]string),
	}
}

// Store writes value under key.
func (s *CredentialStorage) Store(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Retrieve reads the value for key.
func (s *CredentialStorage) Retrieve(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// Remove deletes key.
func (s *CredentialStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Snapshot returns a copy of all stored values.
func (s *CredentialStorage) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}
