package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.Save(ctx, Credential{Token: "file-tok"}))

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "file-tok", cred.Token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, Credential{Token: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	cred, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", cred.Token)
}

func TestFileStoreObservesExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	events, cancel := store.Subscribe()
	defer cancel()

	// Simulate another process logging in by writing the file directly.
	require.NoError(t, os.WriteFile(path, []byte("external-tok\n"), 0o600))

	assert.Equal(t, CredentialAdded, waitForEvent(t, events).Kind)
}

func TestFileStoreObservesExternalRemove(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, Credential{Token: "tok"}))

	events, cancel := store.Subscribe()
	defer cancel()

	// Simulate another process logging out.
	require.NoError(t, os.Remove(path))

	assert.Equal(t, CredentialRemoved, waitForEvent(t, events).Kind)
}

func TestFileStoreDeduplicatesOwnSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	events, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.Save(ctx, Credential{Token: "tok"}))

	// The direct broadcast fires; the fsnotify echo of our own write must
	// not produce a second event for the same token.
	first := waitForEvent(t, events)
	assert.Equal(t, CredentialAdded, first.Kind)

	select {
	case ev := <-events:
		t.Fatalf("unexpected duplicate event: %v", ev.Kind)
	case <-time.After(200 * time.Millisecond):
	}
}
