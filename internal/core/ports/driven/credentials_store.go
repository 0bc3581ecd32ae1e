package driven

import "context"

// CredentialStorage is an opaque string key/value store for cached credentials.
// Implementations are last-writer-wins and need not be transactional.
type CredentialStorage interface {
	// Store writes value under key, replacing any existing value.
	Store(ctx context.Context, key, value string) error

	// Retrieve reads the value for key.
	// The boolean is false when the key is absent; that is not an error.
	Retrieve(ctx context.Context, key string) (string, bool, error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
