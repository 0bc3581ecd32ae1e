package driven

import (
	"context"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// TokenExchanger calls the provider's token endpoint.
// Failures are returned as *domain.ExchangeError. Implementations never retry.
type TokenExchanger interface {
	// ExchangeCode trades an authorization code (and PKCE verifier) for a credential.
	ExchangeCode(ctx context.Context, grant domain.CodeGrant) (*domain.Credential, error)

	// ExchangeRefreshToken trades a refresh token for a new credential.
	// The returned RefreshToken is empty when the provider did not rotate it.
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (*domain.Credential, error)
}

// UserInfoClient fetches the authenticated user's profile.
type UserInfoClient interface {
	UserInfo(ctx context.Context, accessToken string) (*domain.UserProfile, error)
}
