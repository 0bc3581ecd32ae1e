package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

func setupTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := New(context.Background(), mr.Addr(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestNew_Errors(t *testing.T) {
	t.Run("empty address", func(t *testing.T) {
		_, err := New(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := New(context.Background(), addr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis ping failed")
	})
}

func TestCredentialStorage_StoreRetrieveRemove(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestStore(t)
	storage := store.CredentialStorage()

	_, ok, err := storage.Retrieve(ctx, "authkit.access_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Store(ctx, "authkit.access_token", "token"))

	raw, err := mr.Get("authkit:cred:authkit.access_token")
	require.NoError(t, err)
	assert.Equal(t, "token", raw)

	value, ok, err := storage.Retrieve(ctx, "authkit.access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "token", value)

	require.NoError(t, storage.Remove(ctx, "authkit.access_token"))
	assert.False(t, mr.Exists("authkit:cred:authkit.access_token"))
	assert.NoError(t, storage.Remove(ctx, "authkit.access_token"))
}

func TestCredentialStorage_KeyPrefix(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestStore(t, WithKeyPrefix("tenant-a:"))

	require.NoError(t, store.CredentialStorage().Store(ctx, "k", "v"))
	assert.True(t, mr.Exists("tenant-a:cred:k"))
}

func TestCredentialStorage_ServerDown(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestStore(t)
	storage := store.CredentialStorage()
	mr.Close()

	assert.Error(t, storage.Store(ctx, "k", "v"))
	_, _, err := storage.Retrieve(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, storage.Remove(ctx, "k"))
}

func TestSessionStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)
	sessions := store.SessionStore()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	session := domain.AuthorizationSession{
		ID:           "s1",
		State:        "state",
		CodeVerifier: "verifier",
		RedirectURI:  "http://127.0.0.1:8765/callback",
		AuthorizeURL: "https://tenant.example.com/authorize",
		Launched:     true,
		Status:       domain.SessionLaunched,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, sessions.Save(ctx, session))

	got, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session, *got)

	require.NoError(t, sessions.Delete(ctx, "s1"))
	_, err = sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_SaveEmptyID(t *testing.T) {
	store, _ := setupTestStore(t)
	err := store.SessionStore().Save(context.Background(), domain.AuthorizationSession{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionStore_GetCorrupt(t *testing.T) {
	store, mr := setupTestStore(t)
	require.NoError(t, mr.Set("authkit:session:bad", "{not json"))

	_, err := store.SessionStore().Get(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshalling session")
}

func TestSessionStore_List(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestStore(t)
	sessions := store.SessionStore()

	list, err := sessions.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		offset := map[string]time.Duration{"a": 0, "b": time.Minute, "c": 2 * time.Minute}[id]
		require.NoError(t, sessions.Save(ctx, domain.AuthorizationSession{
			ID:        id,
			State:     "state",
			Status:    domain.SessionCreated,
			CreatedAt: base.Add(offset),
		}), "save %d", i)
	}

	// Credential keys share the prefix but not the namespace.
	require.NoError(t, store.CredentialStorage().Store(ctx, "authkit.access_token", "token"))
	require.NoError(t, mr.Set("other:session:x", "{}"))

	list, err = sessions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestNewFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewFromClient(client, nil)
	defer store.Close()

	assert.Equal(t, DefaultKeyPrefix, store.prefix)
	require.NoError(t, store.CredentialStorage().Store(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("authkit:cred:k"))
}
