package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

func signedIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestServer_handleGetAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("returns token", func(t *testing.T) {
		server, err := NewServer(&Ports{Credentials: loggedIn()})
		require.NoError(t, err)

		_, output, err := server.handleGetAccessToken(ctx, nil, TokenInput{})

		require.NoError(t, err)
		assert.Equal(t, "access-token", output.AccessToken)
		assert.Equal(t, "Bearer", output.TokenType)
		assert.Equal(t, int64(3600), output.ExpiresIn)
		assert.Equal(t, "openid profile", output.Scope)
	})

	t.Run("returns cache error", func(t *testing.T) {
		creds := &mockCredentials{err: &domain.CacheError{Kind: domain.ErrCredentialsNotFound}}
		server, err := NewServer(&Ports{Credentials: creds})
		require.NoError(t, err)

		_, _, err = server.handleGetAccessToken(ctx, nil, TokenInput{})

		assert.ErrorIs(t, err, domain.ErrCredentialsNotFound)
	})

	t.Run("id token only credential", func(t *testing.T) {
		cred := domain.NewCredential("id-token", "", "Bearer", "", 60)
		server, err := NewServer(&Ports{Credentials: &mockCredentials{cred: &cred, valid: true}})
		require.NoError(t, err)

		_, _, err = server.handleGetAccessToken(ctx, nil, TokenInput{})

		assert.ErrorIs(t, err, domain.ErrCredentialsNotFound)
	})
}

func TestServer_handleWhoami(t *testing.T) {
	ctx := context.Background()

	t.Run("userinfo", func(t *testing.T) {
		userInfo := &mockUserInfo{profile: &domain.UserProfile{
			Subject:       "user-1",
			Email:         "ada@example.com",
			EmailVerified: true,
		}}
		server, err := NewServer(&Ports{Credentials: loggedIn(), UserInfo: userInfo})
		require.NoError(t, err)

		_, output, err := server.handleWhoami(ctx, nil, WhoamiInput{})

		require.NoError(t, err)
		assert.Equal(t, "access-token", userInfo.token)
		assert.Equal(t, "user-1", output.Subject)
		assert.True(t, output.EmailVerified)
		assert.Equal(t, "userinfo", output.Source)
	})

	t.Run("falls back to id token", func(t *testing.T) {
		creds := loggedIn()
		creds.cred.IDToken = signedIDToken(t, jwt.MapClaims{"sub": "user-2", "name": "Grace"})
		server, err := NewServer(&Ports{
			Credentials: creds,
			UserInfo:    &mockUserInfo{err: errors.New("unreachable")},
		})
		require.NoError(t, err)

		_, output, err := server.handleWhoami(ctx, nil, WhoamiInput{})

		require.NoError(t, err)
		assert.Equal(t, "user-2", output.Subject)
		assert.Equal(t, "Grace", output.Name)
		assert.Equal(t, "id_token", output.Source)
	})

	t.Run("no profile", func(t *testing.T) {
		server, err := NewServer(&Ports{Credentials: loggedIn()})
		require.NoError(t, err)

		_, _, err = server.handleWhoami(ctx, nil, WhoamiInput{})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
