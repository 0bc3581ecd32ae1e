package driven

import "context"

// UserAgent presents the authorization URL to the user, typically by
// opening the system browser. It returns once the agent has been started,
// not when the user finishes.
type UserAgent interface {
	Open(ctx context.Context, authorizeURL string) error
}
