package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	tests := []struct {
		name      string
		domain    string
		clientID  string
		wantURL   string
		wantError bool
	}{
		{name: "bare host", domain: "tenant.example.com", clientID: "c", wantURL: "https://tenant.example.com"},
		{name: "https with slash", domain: "https://tenant.example.com/", clientID: "c", wantURL: "https://tenant.example.com"},
		{name: "http for local testing", domain: "http://127.0.0.1:8080", clientID: "c", wantURL: "http://127.0.0.1:8080"},
		{name: "path prefix kept", domain: "https://idp.example.com/tenant/", clientID: "c", wantURL: "https://idp.example.com/tenant"},
		{name: "empty domain", domain: "", clientID: "c", wantError: true},
		{name: "missing client id", domain: "tenant.example.com", clientID: "", wantError: true},
		{name: "bad scheme", domain: "ftp://tenant.example.com", clientID: "c", wantError: true},
		{name: "leading dot", domain: ".example.com", clientID: "c", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := NewAccount(tt.domain, tt.clientID, "")
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, account.DomainURL())
		})
	}
}

func TestAccount_Endpoints(t *testing.T) {
	account, err := NewAccount("tenant.example.com", "client-123", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "client-123", account.ClientID())
	assert.Equal(t, "s3cret", account.ClientSecret())
	assert.True(t, account.IsConfidential())
	assert.Equal(t, "https://tenant.example.com/authorize", account.AuthorizeURL())
	assert.Equal(t, "https://tenant.example.com/oauth/token", account.TokenURL())
	assert.Equal(t, "https://tenant.example.com/userinfo", account.UserInfoURL())

	public, err := NewAccount("tenant.example.com", "client-123", "")
	require.NoError(t, err)
	assert.False(t, public.IsConfidential())
}

func TestNewAuthorizeRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req, err := NewAuthorizeRequest("http://127.0.0.1:8765/callback")
		require.NoError(t, err)
		assert.Equal(t, DefaultScope, req.Scope)
		assert.True(t, req.UsePKCE)
		assert.Empty(t, req.Audience)
	})

	t.Run("options", func(t *testing.T) {
		req, err := NewAuthorizeRequest("com.example.app://callback",
			WithScope("openid email"),
			WithAudience("https://api"),
			WithConnection("google-oauth2"),
			WithoutPKCE(),
			WithParameter("prompt", "login"),
		)
		require.NoError(t, err)
		assert.Equal(t, "openid email", req.Scope)
		assert.Equal(t, "https://api", req.Audience)
		assert.Equal(t, "google-oauth2", req.Connection)
		assert.False(t, req.UsePKCE)
		assert.Equal(t, map[string]string{"prompt": "login"}, req.Extra)
	})

	t.Run("blank scope falls back to default", func(t *testing.T) {
		req, err := NewAuthorizeRequest("http://localhost/cb", WithScope("  "))
		require.NoError(t, err)
		assert.Equal(t, DefaultScope, req.Scope)
	})

	t.Run("relative redirect rejected", func(t *testing.T) {
		_, err := NewAuthorizeRequest("/callback")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("fragment rejected", func(t *testing.T) {
		_, err := NewAuthorizeRequest("http://localhost/cb#frag")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("reserved parameter rejected", func(t *testing.T) {
		_, err := NewAuthorizeRequest("http://localhost/cb", WithParameter("state", "mine"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
