package domain

import "time"

// UserProfile is the subset of the userinfo response the client understands.
// Unknown claims are kept in Extra.
type UserProfile struct {
	Subject       string         `json:"sub"`
	Name          string         `json:"name,omitempty"`
	Nickname      string         `json:"nickname,omitempty"`
	GivenName     string         `json:"given_name,omitempty"`
	FamilyName    string         `json:"family_name,omitempty"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	PictureURL    string         `json:"picture,omitempty"`
	UpdatedAt     string         `json:"updated_at,omitempty"`
	Extra         map[string]any `json:"-"`
}

// IDTokenClaims are the registered claims of an unverified ID token.
type IDTokenClaims struct {
	Issuer    string
	Subject   string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Email     string
	Name      string
	Nonce     string
}

// AccountIdentifier returns the most human-readable identifier available.
func (p *UserProfile) AccountIdentifier() string {
	switch {
	case p.Email != "":
		return p.Email
	case p.Nickname != "":
		return p.Nickname
	case p.Name != "":
		return p.Name
	default:
		return p.Subject
	}
}
