package driven

import "context"

// TokenProvider provides access tokens for authenticated API calls.
// Implementations handle token refresh transparently.
type TokenProvider interface {
	// GetToken returns a valid access token.
	// If the cached credential is expired, it is refreshed first.
	GetToken(ctx context.Context) (string, error)
}
