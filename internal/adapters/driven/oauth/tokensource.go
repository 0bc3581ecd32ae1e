package oauth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
)

// credentialSource is implemented by providers that can report expiry,
// such as services.CredentialsManager.
type credentialSource interface {
	Get(ctx context.Context) (*domain.Credential, error)
}

// providerTokenSource adapts a TokenProvider to oauth2.TokenSource so that
// downstream API clients get bearer tokens that refresh transparently.
type providerTokenSource struct {
	ctx      context.Context
	provider driven.TokenProvider
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &providerTokenSource{ctx: ctx, provider: provider}
}

// Token implements oauth2.TokenSource.
func (s *providerTokenSource) Token() (*oauth2.Token, error) {
	if source, ok := s.provider.(credentialSource); ok {
		cred, err := source.Get(s.ctx)
		if err != nil {
			return nil, err
		}
		if cred.AccessToken == "" {
			return nil, &domain.CacheError{Kind: domain.ErrCredentialsNotFound}
		}
		token := &oauth2.Token{
			AccessToken: cred.AccessToken,
			TokenType:   tokenType(cred.TokenType),
		}
		if cred.ExpiresIn != nil {
			token.Expiry = time.Now().Add(cred.Lifetime())
		}
		return token, nil
	}

	accessToken, err := s.provider.GetToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
}

// NewHTTPClient returns an HTTP client that authorizes every request with
// a token from provider.
func NewHTTPClient(ctx context.Context, provider driven.TokenProvider) *http.Client {
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, NewTokenSource(ctx, provider)))
}

func tokenType(t string) string {
	if t == "" {
		return "Bearer"
	}
	return t
}
