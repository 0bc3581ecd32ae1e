package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEntropyUnavailable indicates the secure random source could not be read.
	// This is fatal and must not be retried.
	ErrEntropyUnavailable = errors.New("entropy source unavailable")

	// Authorization flow errors.

	// ErrStateMismatch indicates the redirect carried a state that does not
	// belong to the session. The redirect is untrusted.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrProviderDenied indicates the provider redirected back with an error.
	ErrProviderDenied = errors.New("authorization denied by provider")

	// ErrMissingAuthorizationCode indicates the redirect had neither a code nor an error.
	ErrMissingAuthorizationCode = errors.New("missing authorization code")

	// ErrUserCancelled indicates the user dismissed the external user agent.
	ErrUserCancelled = errors.New("authorization cancelled by user")

	// ErrExchangeFailed indicates the authorization code could not be exchanged.
	ErrExchangeFailed = errors.New("code exchange failed")

	// ErrSessionNotFound indicates no authorization session exists for an ID.
	ErrSessionNotFound = errors.New("authorization session not found")

	// ErrSessionNotLaunched indicates a redirect arrived before the user agent was launched.
	ErrSessionNotLaunched = errors.New("authorization session not launched")

	// ErrSessionResolved indicates the session already reached a terminal state.
	ErrSessionResolved = errors.New("authorization session already resolved")

	// ErrAuthorizationInProgress indicates another session is launched and unresolved.
	ErrAuthorizationInProgress = errors.New("another authorization is in progress")

	// Token exchange errors.

	// ErrHTTPFailure indicates a non-2xx response or a transport failure.
	ErrHTTPFailure = errors.New("token endpoint request failed")

	// ErrMalformedResponse indicates the token endpoint returned an unusable body.
	ErrMalformedResponse = errors.New("malformed token response")

	// Credential cache errors.

	// ErrCredentialsNotFound indicates no usable credential record is stored.
	ErrCredentialsNotFound = errors.New("no credentials were previously set")

	// ErrInvalidCredential indicates a credential is not cacheable.
	ErrInvalidCredential = errors.New("credential must have expires_in and an access or id token")

	// ErrExpiredNoRefreshToken indicates the cached credential expired and cannot be renewed.
	ErrExpiredNoRefreshToken = errors.New("credentials have expired and no refresh token is available")

	// ErrRefreshFailed indicates the refresh exchange failed.
	ErrRefreshFailed = errors.New("failed to renew credentials with refresh token")
)

// FlowError is returned by the authorization flow for every failed or
// cancelled session. Kind is one of the flow sentinels above.
type FlowError struct {
	Kind        error
	Code        string
	Description string
	Err         error
}

func (e *FlowError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *FlowError) Unwrap() []error {
	return unwrapPair(e.Kind, e.Err)
}

// ExchangeError describes a failed call to the token endpoint.
type ExchangeError struct {
	Kind        error
	Status      int
	Code        string
	Description string
	Body        string
	Err         error
}

func (e *ExchangeError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Code, e.Description)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ExchangeError) Unwrap() []error {
	return unwrapPair(e.Kind, e.Err)
}

// CacheError is returned by the credentials manager.
type CacheError struct {
	Kind error
	Err  error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *CacheError) Unwrap() []error {
	return unwrapPair(e.Kind, e.Err)
}

func unwrapPair(kind, cause error) []error {
	if cause == nil {
		return []error{kind}
	}
	return []error{kind, cause}
}
