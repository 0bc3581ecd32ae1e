package keyring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestNewCredentialStorage_DefaultService(t *testing.T) {
	assert.Equal(t, DefaultService, NewCredentialStorage("").Service())
	assert.Equal(t, "custom", NewCredentialStorage("custom").Service())
}

func TestCredentialStorage_StoreRetrieveRemove(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	storage := NewCredentialStorage("test-service")

	_, ok, err := storage.Retrieve(ctx, "authkit.access_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Store(ctx, "authkit.access_token", "token"))

	value, ok, err := storage.Retrieve(ctx, "authkit.access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "token", value)

	require.NoError(t, storage.Remove(ctx, "authkit.access_token"))
	_, ok, err = storage.Retrieve(ctx, "authkit.access_token")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing again is not an error.
	assert.NoError(t, storage.Remove(ctx, "authkit.access_token"))
}

func TestCredentialStorage_ServicesAreIsolated(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	first := NewCredentialStorage("first")
	second := NewCredentialStorage("second")
	require.NoError(t, first.Store(ctx, "k", "one"))

	_, ok, err := second.Retrieve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialStorage_BackendErrors(t *testing.T) {
	backendErr := errors.New("keyring locked")
	keyring.MockInitWithError(backendErr)
	t.Cleanup(keyring.MockInit)

	ctx := context.Background()
	storage := NewCredentialStorage("test-service")

	err := storage.Store(ctx, "k", "v")
	assert.ErrorIs(t, err, backendErr)

	_, _, err = storage.Retrieve(ctx, "k")
	assert.ErrorIs(t, err, backendErr)

	err = storage.Remove(ctx, "k")
	assert.ErrorIs(t, err, backendErr)
}

func TestAvailable(t *testing.T) {
	keyring.MockInit()
	assert.True(t, Available("test-service"))

	keyring.MockInitWithError(errors.New("no keyring"))
	t.Cleanup(keyring.MockInit)
	assert.False(t, Available("test-service"))
}
