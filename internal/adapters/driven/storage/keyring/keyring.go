// Package keyring stores cached credential entries in the OS keyring
// (macOS Keychain, Secret Service over D-Bus, Windows Credential Manager).
package keyring

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/custodia-labs/authkit/internal/core/ports/driven"
)

// DefaultService is the keyring service name entries are filed under.
const DefaultService = "authkit"

// Ensure CredentialStorage implements the interface.
var _ driven.CredentialStorage = (*CredentialStorage)(nil)

// CredentialStorage is a driven.CredentialStorage backed by the OS keyring.
// Each key becomes one keyring item under the configured service.
type CredentialStorage struct {
	service string
}

// NewCredentialStorage creates a keyring-backed storage for service.
// An empty service uses DefaultService.
func NewCredentialStorage(service string) *CredentialStorage {
	if service == "" {
		service = DefaultService
	}
	return &CredentialStorage{service: service}
}

// Service returns the keyring service name.
func (s *CredentialStorage) Service() string {
	return s.service
}

// Store writes value under key.
func (s *CredentialStorage) Store(_ context.Context, key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

// Retrieve reads the value for key.
func (s *CredentialStorage) Retrieve(_ context.Context, key string) (string, bool, error) {
	value, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keyring get %s: %w", key, err)
	}
	return value, true, nil
}

// Remove deletes key.
func (s *CredentialStorage) Remove(_ context.Context, key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", key, err)
	}
	return nil
}

// Available reports whether the OS keyring can be written to.
func Available(service string) bool {
	const checkKey = "authkit-availability"
	if err := keyring.Set(service, checkKey, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(service, checkKey)
	return true
}
