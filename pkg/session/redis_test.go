package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return mr, store
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	_, store := newTestRedisStore(t)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.Save(ctx, Credential{Token: "redis-tok"}))

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "redis-tok", cred.Token)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestRedisStoreBroadcastsAcrossStores(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestRedisStore(t)

	// A second store on the same redis represents another process
	// attached to the same session.
	other, err := NewRedisStore(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer other.Close()

	events, cancel := other.Subscribe()
	defer cancel()

	require.NoError(t, store.Save(ctx, Credential{Token: "shared"}))
	assert.Equal(t, CredentialAdded, waitForEvent(t, events).Kind)

	cred, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared", cred.Token)

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, CredentialRemoved, waitForEvent(t, events).Kind)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url")
	assert.Error(t, err)
}
