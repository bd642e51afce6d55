package vault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore(NewMemoryKV())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	state := &SessionState{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    1700000000000,
		User:         UserInfo{ID: "u1", Email: "a@b.com", Name: "A"},
		DeviceID:     "dev1",
	}
	require.NoError(t, store.Save(ctx, state))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state, loaded)

	require.NoError(t, store.Clear(ctx))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileKV_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.json")

	first := NewTokenStore(NewFileKV(path))
	require.NoError(t, first.Save(ctx, &SessionState{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 42}))

	second := NewTokenStore(NewFileKV(path))
	loaded, err := second.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "at", loaded.AccessToken)
	assert.Equal(t, int64(42), loaded.ExpiresAt)
}

func TestFileKV_MissingFileIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewFileKV(filepath.Join(t.TempDir(), "missing.json"))

	items, err := kv.Get(ctx, []string{"anything"})
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, kv.Remove(ctx, []string{"anything"}))
}
