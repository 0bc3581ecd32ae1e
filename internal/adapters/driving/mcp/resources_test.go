package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

func statusRequest() *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uriScheme + "status",
		},
	}
}

func readStatus(t *testing.T, creds *mockCredentials) (statusInfo, string) {
	t.Helper()
	server, err := NewServer(&Ports{Credentials: creds})
	require.NoError(t, err)

	result, err := server.handleStatusResource(context.Background(), statusRequest())
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Equal(t, "authkit://status", result.Contents[0].URI)

	var info statusInfo
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
	return info, result.Contents[0].Text
}

func TestServer_handleStatusResource(t *testing.T) {
	t.Run("logged in", func(t *testing.T) {
		info, text := readStatus(t, loggedIn())

		assert.True(t, info.LoggedIn)
		assert.True(t, info.Refreshable)
		assert.Equal(t, int64(3600), info.ExpiresIn)
		assert.Equal(t, "openid profile", info.Scope)
		assert.NotContains(t, text, "access-token")
		assert.NotContains(t, text, "refresh-token")
	})

	t.Run("logged out", func(t *testing.T) {
		info, _ := readStatus(t, &mockCredentials{})

		assert.False(t, info.LoggedIn)
		assert.Empty(t, info.Error)
	})

	t.Run("refresh failure", func(t *testing.T) {
		creds := &mockCredentials{
			valid: true,
			err:   &domain.CacheError{Kind: domain.ErrRefreshFailed},
		}

		info, _ := readStatus(t, creds)

		assert.False(t, info.LoggedIn)
		assert.Contains(t, info.Error, domain.ErrRefreshFailed.Error())
	})
}
