package domain

import (
	"math"
	"time"
)

// maxLifetimeSeconds is the longest lifetime a time.Duration can hold.
const maxLifetimeSeconds = math.MaxInt64 / int64(time.Second)

// Credential is the result of a successful token exchange.
// Values are immutable once constructed; copy them rather than mutate.
type Credential struct {
	// IDToken is the OIDC ID token (JWT), if issued.
	IDToken string `json:"id_token,omitempty"`
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`
	// RefreshToken is used to obtain new credentials. Empty when not issued.
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresIn is the lifetime in seconds captured at issuance. Nil when absent.
	ExpiresIn *int64 `json:"expires_in,omitempty"`
	// Scope is the granted scope, when the provider reports it.
	Scope string `json:"scope,omitempty"`
}

// NewCredential builds a credential with an expiry in seconds.
func NewCredential(idToken, accessToken, tokenType, refreshToken string, expiresIn int64) Credential {
	return Credential{
		IDToken:      idToken,
		AccessToken:  accessToken,
		TokenType:    tokenType,
		RefreshToken: refreshToken,
		ExpiresIn:    &expiresIn,
	}
}

// HasToken returns true if the credential carries an access or ID token.
func (c Credential) HasToken() bool {
	return c.AccessToken != "" || c.IDToken != ""
}

// IsCacheable returns true if the credential can be stored by the cache manager.
func (c Credential) IsCacheable() bool {
	return c.HasToken() && c.ExpiresIn != nil
}

// HasRefreshToken returns true if a refresh token is available.
func (c Credential) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// Clone returns a copy that shares no memory with c.
func (c Credential) Clone() Credential {
	if c.ExpiresIn != nil {
		v := *c.ExpiresIn
		c.ExpiresIn = &v
	}
	return c
}

// Lifetime returns ExpiresIn as a duration, or zero when absent.
// Lifetimes too long for a time.Duration are clamped.
func (c Credential) Lifetime() time.Duration {
	if c.ExpiresIn == nil {
		return 0
	}
	if *c.ExpiresIn > maxLifetimeSeconds {
		return time.Duration(maxLifetimeSeconds) * time.Second
	}
	return time.Duration(*c.ExpiresIn) * time.Second
}

// CachedRecord is the persisted projection of a Credential.
type CachedRecord struct {
	IDToken      string
	AccessToken  string
	TokenType    string
	RefreshToken string
	// ExpiresAt is issuedAt + ExpiresIn. Zero when the stored value was absent or unreadable.
	ExpiresAt time.Time
}

// NewCachedRecord projects a cacheable credential issued at the given time.
func NewCachedRecord(c Credential, issuedAt time.Time) CachedRecord {
	return CachedRecord{
		IDToken:      c.IDToken,
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    issuedAt.Add(c.Lifetime()),
	}
}

// IsUsable returns true if the record has a token and an expiration.
func (r CachedRecord) IsUsable() bool {
	return (r.AccessToken != "" || r.IDToken != "") && !r.ExpiresAt.IsZero()
}

// IsExpired returns true if the record is expired at now, treating it as
// expired leeway before ExpiresAt.
func (r CachedRecord) IsExpired(now time.Time, leeway time.Duration) bool {
	return !now.Before(r.ExpiresAt.Add(-leeway))
}

// Credential reconstructs a credential whose ExpiresIn is the remaining
// lifetime at now, rounded up to whole seconds.
func (r CachedRecord) Credential(now time.Time) Credential {
	remaining := r.ExpiresAt.Sub(now)
	seconds := int64(remaining / time.Second)
	if remaining%time.Second > 0 {
		seconds++
	}
	return Credential{
		IDToken:      r.IDToken,
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    &seconds,
	}
}
