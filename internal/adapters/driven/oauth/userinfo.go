package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

// knownProfileClaims are decoded into UserProfile fields rather than Extra.
var knownProfileClaims = map[string]bool{
	"sub": true, "name": true, "nickname": true, "given_name": true, "family_name": true,
	"email": true, "email_verified": true, "picture": true, "updated_at": true,
}

// UserInfo fetches the profile of the user that owns accessToken.
func (c *TokenClient) UserInfo(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.account.UserInfoURL(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	c.setClientHeaders(req)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newHTTPError(status, body)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, &domain.ExchangeError{Kind: domain.ErrMalformedResponse, Status: status, Err: err}
	}
	if profile.Subject == "" {
		return nil, &domain.ExchangeError{Kind: domain.ErrMalformedResponse, Status: status, Body: truncate(body)}
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err == nil {
		for key, value := range claims {
			if knownProfileClaims[key] {
				continue
			}
			if profile.Extra == nil {
				profile.Extra = make(map[string]any)
			}
			profile.Extra[key] = value
		}
	}

	return &profile, nil
}
