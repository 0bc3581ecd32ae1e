package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultScope is requested when an AuthorizeRequest names no scope.
const DefaultScope = "openid"

// Provider endpoint paths, relative to the tenant domain.
const (
	authorizePath = "/authorize"
	tokenPath     = "/oauth/token"
	userInfoPath  = "/userinfo"
)

// Account identifies an OAuth client registered with a tenant.
// Construct it with NewAccount; the zero value is not usable.
type Account struct {
	clientID     string
	clientSecret string
	domainURL    *url.URL
}

// NewAccount validates the tenant domain and client credentials.
// The domain may be a bare host ("tenant.example.com") or an https URL.
// clientSecret is empty for public clients.
func NewAccount(domain, clientID, clientSecret string) (Account, error) {
	if clientID == "" {
		return Account{}, fmt.Errorf("%w: client ID is required", ErrInvalidInput)
	}
	u, err := parseDomain(domain)
	if err != nil {
		return Account{}, err
	}
	return Account{clientID: clientID, clientSecret: clientSecret, domainURL: u}, nil
}

func parseDomain(domain string) (*url.URL, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, fmt.Errorf("%w: domain is required", ErrInvalidInput)
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	u, err := url.Parse(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid domain %q: %v", ErrInvalidInput, domain, err)
	}
	if u.Host == "" || strings.HasPrefix(u.Host, ".") || strings.HasPrefix(u.Host, "-") {
		return nil, fmt.Errorf("%w: invalid domain host %q", ErrInvalidInput, u.Host)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("%w: unsupported domain scheme %q", ErrInvalidInput, u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// ClientID returns the OAuth client ID.
func (a Account) ClientID() string { return a.clientID }

// ClientSecret returns the client secret, empty for public clients.
func (a Account) ClientSecret() string { return a.clientSecret }

// IsConfidential returns true if the client authenticates with a secret.
func (a Account) IsConfidential() bool { return a.clientSecret != "" }

// DomainURL returns the normalised tenant URL without a trailing slash.
func (a Account) DomainURL() string {
	if a.domainURL == nil {
		return ""
	}
	return a.domainURL.String()
}

// AuthorizeURL returns the authorization endpoint.
func (a Account) AuthorizeURL() string { return a.DomainURL() + authorizePath }

// TokenURL returns the token endpoint.
func (a Account) TokenURL() string { return a.DomainURL() + tokenPath }

// UserInfoURL returns the userinfo endpoint.
func (a Account) UserInfoURL() string { return a.DomainURL() + userInfoPath }

// AuthorizeRequest holds the parameters of one authorization attempt.
// Construct it with NewAuthorizeRequest.
type AuthorizeRequest struct {
	RedirectURI string
	Scope       string
	Audience    string
	Connection  string
	// UsePKCE sends a code challenge. Defaults to true.
	UsePKCE bool
	// Extra holds additional authorization URL parameters.
	Extra map[string]string
}

// AuthorizeOption customises an AuthorizeRequest.
type AuthorizeOption func(*AuthorizeRequest)

// WithScope sets the requested scope.
func WithScope(scope string) AuthorizeOption {
	return func(r *AuthorizeRequest) { r.Scope = scope }
}

// WithAudience sets the API audience.
func WithAudience(audience string) AuthorizeOption {
	return func(r *AuthorizeRequest) { r.Audience = audience }
}

// WithConnection selects the identity provider connection.
func WithConnection(connection string) AuthorizeOption {
	return func(r *AuthorizeRequest) { r.Connection = connection }
}

// WithoutPKCE disables the code challenge, for confidential clients.
func WithoutPKCE() AuthorizeOption {
	return func(r *AuthorizeRequest) { r.UsePKCE = false }
}

// WithParameter adds an arbitrary authorization URL parameter.
func WithParameter(key, value string) AuthorizeOption {
	return func(r *AuthorizeRequest) {
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[key] = value
	}
}

// reservedParams are owned by the flow and may not be overridden.
var reservedParams = map[string]bool{
	"response_type":         true,
	"client_id":             true,
	"redirect_uri":          true,
	"state":                 true,
	"code_challenge":        true,
	"code_challenge_method": true,
}

// NewAuthorizeRequest validates the redirect URI and applies options.
func NewAuthorizeRequest(redirectURI string, opts ...AuthorizeOption) (AuthorizeRequest, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Scheme == "" {
		return AuthorizeRequest{}, fmt.Errorf("%w: redirect URI must be absolute: %q", ErrInvalidInput, redirectURI)
	}
	if u.Fragment != "" {
		return AuthorizeRequest{}, fmt.Errorf("%w: redirect URI must not contain a fragment", ErrInvalidInput)
	}

	req := AuthorizeRequest{
		RedirectURI: redirectURI,
		Scope:       DefaultScope,
		UsePKCE:     true,
	}
	for _, opt := range opts {
		opt(&req)
	}

	if strings.TrimSpace(req.Scope) == "" {
		req.Scope = DefaultScope
	}
	for key := range req.Extra {
		if key == "" || reservedParams[key] {
			return AuthorizeRequest{}, fmt.Errorf("%w: parameter %q cannot be overridden", ErrInvalidInput, key)
		}
	}
	return req, nil
}

// CodeGrant is the input of an authorization code exchange.
type CodeGrant struct {
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// PKCE holds a code verifier and its S256 challenge.
type PKCE struct {
	Verifier  string
	Challenge string
}
