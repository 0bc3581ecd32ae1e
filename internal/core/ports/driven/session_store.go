package driven

import (
	"context"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// SessionStore persists authorization sessions so that a recreated host
// can resume waiting for a redirect instead of launching the browser again.
type SessionStore interface {
	// Save creates or replaces a session.
	Save(ctx context.Context, session domain.AuthorizationSession) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.AuthorizationSession, error)

	// List returns all stored sessions.
	List(ctx context.Context) ([]domain.AuthorizationSession, error)

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
}
