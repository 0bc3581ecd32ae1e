package driving

import (
	"context"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// AuthorizationService drives the browser-based authorization code flow.
//
// The flow has two phases. Begin and Launch start it; HandleRedirect or
// Cancel complete it. Between the phases the host may be torn down and
// recreated, in which case Resume restores the session.
type AuthorizationService interface {
	// Begin creates a session and returns the authorization URL.
	Begin(ctx context.Context, req domain.AuthorizeRequest) (string, *domain.AuthorizationSession, error)

	// Launch opens the authorization URL in the external user agent.
	// It is a no-op for a session that was already launched.
	Launch(ctx context.Context, sessionID string) error

	// Resume returns a previously created session.
	Resume(ctx context.Context, sessionID string) (*domain.AuthorizationSession, error)

	// HandleRedirect resolves the session from the redirect URI.
	// Duplicate deliveries receive the first outcome.
	HandleRedirect(ctx context.Context, sessionID, redirectURI string) (*domain.AuthorizationOutcome, error)

	// Cancel resolves a launched session as cancelled by the user.
	Cancel(ctx context.Context, sessionID string) (*domain.AuthorizationOutcome, error)

	// DiscardPending removes stored sessions that nothing will continue.
	DiscardPending(ctx context.Context) (int, error)
}
