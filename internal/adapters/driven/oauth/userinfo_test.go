package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

func TestTokenClient_UserInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes profile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/userinfo", r.URL.Path)
			assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"sub": "auth0|123", "name": "Jane Doe", "email": "jane@example.com",
				"email_verified": true, "https://example.com/roles": ["admin"]
			}`))
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server.URL, "")

		profile, err := client.UserInfo(ctx, "access")
		require.NoError(t, err)
		assert.Equal(t, "auth0|123", profile.Subject)
		assert.Equal(t, "Jane Doe", profile.Name)
		assert.True(t, profile.EmailVerified)
		assert.Equal(t, "jane@example.com", profile.AccountIdentifier())
		assert.Contains(t, profile.Extra, "https://example.com/roles")
		assert.NotContains(t, profile.Extra, "sub")
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "invalid_token"}`))
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server.URL, "")

		_, err := client.UserInfo(ctx, "expired")

		var exchangeErr *domain.ExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		assert.Equal(t, http.StatusUnauthorized, exchangeErr.Status)
		assert.Equal(t, "invalid_token", exchangeErr.Code)
	})

	t.Run("profile without subject", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"name": "nobody"}`))
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server.URL, "")

		_, err := client.UserInfo(ctx, "access")
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})
}
