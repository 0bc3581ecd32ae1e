package driving

import (
	"context"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// CredentialsManager caches the user's credential and renews it when stale.
// Errors are returned as *domain.CacheError.
type CredentialsManager interface {
	// Save validates and persists a credential, replacing any previous one.
	Save(ctx context.Context, cred domain.Credential) error

	// Get returns a valid credential, refreshing it first if it has expired.
	// Concurrent callers share a single refresh exchange.
	Get(ctx context.Context) (*domain.Credential, error)

	// HasValid returns true if Get would succeed without user interaction
	// (the credential is unexpired, or it carries a refresh token).
	HasValid(ctx context.Context) bool

	// Clear removes the cached credential.
	Clear(ctx context.Context) error
}
