package domain

import "time"

// SessionStatus is the lifecycle state of an authorization session.
type SessionStatus string

// Session states. Succeeded, Failed and Cancelled are terminal.
const (
	SessionCreated   SessionStatus = "created"
	SessionLaunched  SessionStatus = "launched"
	SessionSucceeded SessionStatus = "succeeded"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// IsTerminal returns true if no further transitions are allowed.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionSucceeded, SessionFailed, SessionCancelled:
		return true
	default:
		return false
	}
}

// IsValid returns true if the status is recognised.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionCreated, SessionLaunched, SessionSucceeded, SessionFailed, SessionCancelled:
		return true
	default:
		return false
	}
}

// AuthorizationSession is the in-flight state of one authorization attempt.
// It is persisted through a SessionStore so that a recreated host can tell
// whether the external user agent was already launched.
type AuthorizationSession struct {
	// ID correlates the session with the host's lifecycle state.
	ID string `json:"id"`
	// State is the anti-forgery token sent to the provider.
	State string `json:"state"`
	// CodeVerifier is the PKCE verifier. Empty when PKCE is not used.
	CodeVerifier string `json:"code_verifier,omitempty"`
	// CodeChallenge is the S256 challenge derived from CodeVerifier.
	CodeChallenge string `json:"code_challenge,omitempty"`

	RedirectURI string `json:"redirect_uri"`
	Scope       string `json:"scope,omitempty"`
	Audience    string `json:"audience,omitempty"`
	Connection  string `json:"connection,omitempty"`

	// AuthorizeURL is the URL opened in the external user agent.
	AuthorizeURL string `json:"authorize_url"`

	// Launched is true once the external user agent has been started.
	Launched bool          `json:"launched"`
	Status   SessionStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UsesPKCE returns true if the session sent a code challenge.
func (s *AuthorizationSession) UsesPKCE() bool {
	return s.CodeVerifier != ""
}

// AuthorizationOutcome is the terminal result of a session.
type AuthorizationOutcome struct {
	SessionID string
	Status    SessionStatus
	// Credential is set only when Status is SessionSucceeded.
	Credential *Credential
}
