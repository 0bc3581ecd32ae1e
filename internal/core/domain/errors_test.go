package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrEntropyUnavailable", ErrEntropyUnavailable},
		{"ErrStateMismatch", ErrStateMismatch},
		{"ErrProviderDenied", ErrProviderDenied},
		{"ErrMissingAuthorizationCode", ErrMissingAuthorizationCode},
		{"ErrUserCancelled", ErrUserCancelled},
		{"ErrExchangeFailed", ErrExchangeFailed},
		{"ErrSessionNotFound", ErrSessionNotFound},
		{"ErrSessionNotLaunched", ErrSessionNotLaunched},
		{"ErrSessionResolved", ErrSessionResolved},
		{"ErrAuthorizationInProgress", ErrAuthorizationInProgress},
		{"ErrHTTPFailure", ErrHTTPFailure},
		{"ErrMalformedResponse", ErrMalformedResponse},
		{"ErrCredentialsNotFound", ErrCredentialsNotFound},
		{"ErrInvalidCredential", ErrInvalidCredential},
		{"ErrExpiredNoRefreshToken", ErrExpiredNoRefreshToken},
		{"ErrRefreshFailed", ErrRefreshFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestFlowError(t *testing.T) {
	t.Run("provider denial message", func(t *testing.T) {
		err := &FlowError{Kind: ErrProviderDenied, Code: "access_denied", Description: "User said no"}
		assert.Equal(t, "authorization denied by provider: access_denied: User said no", err.Error())
	})

	t.Run("code only", func(t *testing.T) {
		err := &FlowError{Kind: ErrProviderDenied, Code: "login_required"}
		assert.Equal(t, "authorization denied by provider: login_required", err.Error())
	})

	t.Run("kind only", func(t *testing.T) {
		err := &FlowError{Kind: ErrStateMismatch}
		assert.Equal(t, "state mismatch", err.Error())
		assert.ErrorIs(t, err, ErrStateMismatch)
		assert.NotErrorIs(t, err, ErrProviderDenied)
	})

	t.Run("unwraps kind and cause through wrapping", func(t *testing.T) {
		inner := &ExchangeError{Kind: ErrHTTPFailure, Status: 500, Body: "boom"}
		err := fmt.Errorf("login: %w", &FlowError{Kind: ErrExchangeFailed, Err: inner})

		assert.ErrorIs(t, err, ErrExchangeFailed)
		assert.ErrorIs(t, err, ErrHTTPFailure)

		var flowErr *FlowError
		require.ErrorAs(t, err, &flowErr)
		var exchangeErr *ExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		assert.Equal(t, 500, exchangeErr.Status)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestExchangeError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ExchangeError
		expected string
	}{
		{
			name:     "provider code",
			err:      &ExchangeError{Kind: ErrHTTPFailure, Status: 403, Code: "invalid_grant", Description: "Invalid refresh token"},
			expected: "token endpoint request failed: invalid_grant (Invalid refresh token)",
		},
		{
			name:     "raw status",
			err:      &ExchangeError{Kind: ErrHTTPFailure, Status: 502, Body: "bad gateway"},
			expected: "token endpoint request failed: status 502: bad gateway",
		},
		{
			name:     "transport cause",
			err:      &ExchangeError{Kind: ErrHTTPFailure, Err: errors.New("connection refused")},
			expected: "token endpoint request failed: connection refused",
		},
		{
			name:     "kind only",
			err:      &ExchangeError{Kind: ErrMalformedResponse},
			expected: "malformed token response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.err.Kind)
		})
	}
}

func TestCacheError(t *testing.T) {
	cause := errors.New("network down")
	err := &CacheError{Kind: ErrRefreshFailed, Err: cause}

	assert.Equal(t, "failed to renew credentials with refresh token: network down", err.Error())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, err, cause)

	bare := &CacheError{Kind: ErrCredentialsNotFound}
	assert.Equal(t, "no credentials were previously set", bare.Error())
	assert.Len(t, bare.Unwrap(), 1)
}
