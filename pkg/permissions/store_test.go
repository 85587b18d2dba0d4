package permissions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcrm/console/pkg/api"
	"github.com/cobaltcrm/console/pkg/httputil"
	"github.com/cobaltcrm/console/pkg/notify"
	"github.com/cobaltcrm/console/pkg/session"
)

// fakeBackend is a controllable Backend for store tests.
type fakeBackend struct {
	mu      sync.Mutex
	grants  []api.Grant
	err     error
	block   chan struct{}
	calls   int
}

func (f *fakeBackend) Permissions(ctx context.Context) ([]api.Grant, error) {
	f.mu.Lock()
	f.calls++
	grants, err, block := f.grants, f.err, f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (f *fakeBackend) set(grants []api.Grant, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants, f.err = grants, err
}

func authErr() error {
	return &httputil.APIError{StatusCode: 401, Message: "token expired"}
}

func TestInitializeWithoutCredentialIsEmpty(t *testing.T) {
	sess := session.NewMemoryStore()
	defer sess.Close()

	backend := &fakeBackend{grants: []api.Grant{{Path: "/users", Permission: "View", Module: "Admin"}}}
	store := NewStore(StoreConfig{Backend: backend, Session: sess})
	defer store.Close()

	require.NoError(t, store.Initialize(context.Background()))

	snap := store.Snapshot()
	assert.False(t, snap.Loading())
	assert.Zero(t, snap.Len())
	assert.False(t, snap.Has("/users", ActionView), "no credential means no permissions")
	assert.Equal(t, 0, backend.calls, "no fetch without a credential")
}

func TestInitializeWithCredentialFetches(t *testing.T) {
	ctx := context.Background()
	sess := session.NewMemoryStore()
	defer sess.Close()
	require.NoError(t, sess.Save(ctx, session.Credential{Token: "tok"}))

	backend := &fakeBackend{grants: []api.Grant{{Path: "/users", Permission: "View", Module: "Admin"}}}
	store := NewStore(StoreConfig{Backend: backend, Session: sess})
	defer store.Close()

	require.NoError(t, store.Initialize(ctx))
	assert.True(t, store.Snapshot().CanView("/users"))
}

func TestRefreshReplacesEntireSet(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{grants: []api.Grant{
		{Path: "/users", Permission: "View", Module: "Admin"},
		{Path: "/users", Permission: "Edit", Module: "Admin"},
	}}
	store := NewStore(StoreConfig{Backend: backend})
	defer store.Close()

	require.NoError(t, store.Refresh(ctx))
	assert.Equal(t, 2, store.Snapshot().Len())

	// replacement, not merge
	backend.set([]api.Grant{{Path: "/roles", Permission: "View", Module: "Admin"}}, nil)
	require.NoError(t, store.Refresh(ctx))

	snap := store.Snapshot()
	assert.Equal(t, 1, snap.Len())
	assert.True(t, snap.CanView("/roles"))
	assert.False(t, snap.CanView("/users"))
}

func TestRefreshAuthFailureFailsClosed(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{grants: []api.Grant{{Path: "/users", Permission: "View", Module: "Admin"}}}
	store := NewStore(StoreConfig{Backend: backend})
	defer store.Close()

	require.NoError(t, store.Refresh(ctx))
	require.True(t, store.Snapshot().CanView("/users"))

	backend.set(nil, authErr())
	err := store.Refresh(ctx)
	assert.NoError(t, err, "auth failure is policy, not an error")
	assert.Zero(t, store.Snapshot().Len(), "expired credential clears every grant")
}

func TestRefreshTransientFailureKeepsStaleSet(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{grants: []api.Grant{{Path: "/users", Permission: "View", Module: "Admin"}}}
	center := notify.NewCenter()
	store := NewStore(StoreConfig{Backend: backend, Notifier: center})
	defer store.Close()

	require.NoError(t, store.Refresh(ctx))

	backend.set(nil, errors.New("connection reset"))
	err := store.Refresh(ctx)
	assert.Error(t, err)
	assert.True(t, store.Snapshot().CanView("/users"), "stale-but-available beats empty on transient failure")

	recent := center.Recent()
	require.NotEmpty(t, recent)
	assert.Equal(t, notify.LevelError, recent[0].Level)
}

func TestClearIsSynchronous(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{grants: []api.Grant{{Path: "/users", Permission: "View", Module: "Admin"}}}
	store := NewStore(StoreConfig{Backend: backend})
	defer store.Close()

	require.NoError(t, store.Refresh(ctx))
	store.Clear()
	assert.Zero(t, store.Snapshot().Len())
	assert.Equal(t, 1, backend.calls, "clear makes no network call")
}

func TestClearInvalidatesInflightRefresh(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	backend := &fakeBackend{
		grants: []api.Grant{{Path: "/users", Permission: "View", Module: "Admin"}},
		block:  block,
	}
	store := NewStore(StoreConfig{Backend: backend})
	defer store.Close()

	done := make(chan error, 1)
	go func() { done <- store.Refresh(ctx) }()

	// wait until the refresh is in flight, then log out
	require.Eventually(t, store.Loading, time.Second, 5*time.Millisecond)
	store.Clear()
	close(block)

	require.NoError(t, <-done)
	assert.Zero(t, store.Snapshot().Len(), "a response that raced a logout must not resurrect grants")
}

func TestNewerRefreshWinsOverStale(t *testing.T) {
	ctx := context.Background()
	firstBlock := make(chan struct{})
	backend := &fakeBackend{
		grants: []api.Grant{{Path: "/old", Permission: "View", Module: "Sales"}},
		block:  firstBlock,
	}
	store := NewStore(StoreConfig{Backend: backend})
	defer store.Close()

	first := make(chan error, 1)
	go func() { first <- store.Refresh(ctx) }()
	require.Eventually(t, store.Loading, time.Second, 5*time.Millisecond)

	// a second refresh starts (and completes) while the first hangs
	backend.set([]api.Grant{{Path: "/new", Permission: "View", Module: "Sales"}}, nil)
	backend.mu.Lock()
	backend.block = nil
	backend.mu.Unlock()
	require.NoError(t, store.Refresh(ctx))
	require.True(t, store.Snapshot().CanView("/new"))

	// the first response arrives late and must be discarded
	close(firstBlock)
	require.NoError(t, <-first)

	snap := store.Snapshot()
	assert.True(t, snap.CanView("/new"))
	assert.False(t, snap.CanView("/old"))
}

func TestSessionEventsDriveStore(t *testing.T) {
	ctx := context.Background()
	sess := session.NewMemoryStore()
	defer sess.Close()

	backend := &fakeBackend{grants: []api.Grant{{Path: "/leads", Permission: "View", Module: "Sales"}}}
	store := NewStore(StoreConfig{Backend: backend, Session: sess})
	defer store.Close()

	require.NoError(t, store.Initialize(ctx))
	assert.Zero(t, store.Snapshot().Len())

	// login elsewhere
	require.NoError(t, sess.Save(ctx, session.Credential{Token: "tok"}))
	require.Eventually(t, func() bool {
		return store.Snapshot().CanView("/leads")
	}, 2*time.Second, 10*time.Millisecond)

	// logout elsewhere
	require.NoError(t, sess.Clear(ctx))
	require.Eventually(t, func() bool {
		return store.Snapshot().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribeTicksOnChange(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{grants: []api.Grant{{Path: "/users", Permission: "View", Module: "Admin"}}}
	store := NewStore(StoreConfig{Backend: backend})
	defer store.Close()

	ticks, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.Refresh(ctx))

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected a subscription tick after refresh")
	}
}
