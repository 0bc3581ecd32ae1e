package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/authkit/internal/core/domain"
)

func TestCredentialStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewCredentialStorage()

	_, ok, err := storage.Retrieve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Store(ctx, "k", "v"))
	value, ok, err := storage.Retrieve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	snapshot := storage.Snapshot()
	assert.Equal(t, map[string]string{"k": "v"}, snapshot)
	snapshot["k"] = "mutated"
	value, _, _ = storage.Retrieve(ctx, "k")
	assert.Equal(t, "v", value)

	require.NoError(t, storage.Remove(ctx, "k"))
	require.NoError(t, storage.Remove(ctx, "k"))
	assert.Empty(t, storage.Snapshot())
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, store.Save(ctx, domain.AuthorizationSession{}), domain.ErrInvalidInput)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, domain.AuthorizationSession{ID: "b", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, domain.AuthorizationSession{ID: "a", CreatedAt: base}))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
