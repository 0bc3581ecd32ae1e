// Package oauth provides the token endpoint client and related helpers for
// the identity provider.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
)

// Ensure TokenClient implements the interfaces.
var (
	_ driven.TokenExchanger = (*TokenClient)(nil)
	_ driven.UserInfoClient = (*TokenClient)(nil)
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodySize bounds how much of a response is read.
	maxBodySize = 1 << 20
	// maxErrorBody bounds the raw body kept on an ExchangeError.
	maxErrorBody = 512
)

// tokenResponse is the token endpoint success body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    *int64 `json:"expires_in"`
	Scope        string `json:"scope"`
}

// errorResponse covers both the OAuth2 error body and the older
// code/description form some tenants return.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Code             string `json:"code"`
	Description      string `json:"description"`
}

// TokenClient calls the tenant's token and userinfo endpoints.
// It never retries; timeouts come from the context and the HTTP client.
type TokenClient struct {
	account    domain.Account
	httpClient *http.Client
	userAgent  string
	telemetry  domain.Telemetry
}

// ClientOption configures a TokenClient.
type ClientOption func(*TokenClient)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *TokenClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *TokenClient) {
		c.userAgent = userAgent
	}
}

// WithTelemetry sets the client telemetry header.
func WithTelemetry(telemetry domain.Telemetry) ClientOption {
	return func(c *TokenClient) {
		c.telemetry = telemetry
	}
}

// NewTokenClient creates a client for the account's tenant.
func NewTokenClient(account domain.Account, opts ...ClientOption) *TokenClient {
	c := &TokenClient{
		account:    account,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "authkit",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExchangeCode exchanges an authorization code for a credential.
func (c *TokenClient) ExchangeCode(ctx context.Context, grant domain.CodeGrant) (*domain.Credential, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.account.ClientID())
	data.Set("code", grant.Code)
	data.Set("redirect_uri", grant.RedirectURI)
	if grant.CodeVerifier != "" {
		data.Set("code_verifier", grant.CodeVerifier)
	}
	if c.account.IsConfidential() {
		data.Set("client_secret", c.account.ClientSecret())
	}
	return c.postToken(ctx, data)
}

// ExchangeRefreshToken exchanges a refresh token for a new credential.
func (c *TokenClient) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.account.ClientID())
	data.Set("refresh_token", refreshToken)
	if c.account.IsConfidential() {
		data.Set("client_secret", c.account.ClientSecret())
	}
	return c.postToken(ctx, data)
}

func (c *TokenClient) postToken(ctx context.Context, data url.Values) (*domain.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.account.TokenURL(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	c.setClientHeaders(req)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, newHTTPError(status, body)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, &domain.ExchangeError{Kind: domain.ErrMalformedResponse, Status: status, Err: err}
	}
	if tokenResp.AccessToken == "" && tokenResp.IDToken == "" {
		return nil, &domain.ExchangeError{
			Kind:   domain.ErrMalformedResponse,
			Status: status,
			Body:   truncate(body),
		}
	}

	return &domain.Credential{
		IDToken:      tokenResp.IDToken,
		AccessToken:  tokenResp.AccessToken,
		TokenType:    tokenResp.TokenType,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresIn:    tokenResp.ExpiresIn,
		Scope:        tokenResp.Scope,
	}, nil
}

// do sends the request and reads a bounded body.
// Transport failures are reported as ErrHTTPFailure with status 0.
func (c *TokenClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &domain.ExchangeError{Kind: domain.ErrHTTPFailure, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, &domain.ExchangeError{Kind: domain.ErrHTTPFailure, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, body, nil
}

func (c *TokenClient) setClientHeaders(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if value := c.telemetry.Value(); value != "" {
		req.Header.Set(domain.TelemetryHeader, value)
	}
}

// newHTTPError builds an ExchangeError from a non-2xx response, keeping
// the provider's error code when the body carries one.
func newHTTPError(status int, body []byte) *domain.ExchangeError {
	exchangeErr := &domain.ExchangeError{
		Kind:   domain.ErrHTTPFailure,
		Status: status,
		Body:   truncate(body),
	}

	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil {
		exchangeErr.Code = firstNonEmpty(errResp.Error, errResp.Code)
		exchangeErr.Description = firstNonEmpty(errResp.ErrorDescription, errResp.Description)
	}
	return exchangeErr
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
