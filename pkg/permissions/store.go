package permissions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cobaltcrm/console/pkg/api"
	"github.com/cobaltcrm/console/pkg/httputil"
	"github.com/cobaltcrm/console/pkg/notify"
	"github.com/cobaltcrm/console/pkg/observability"
	"github.com/cobaltcrm/console/pkg/session"
)

// Backend is the slice of the API client the store needs.
type Backend interface {
	Permissions(ctx context.Context) ([]api.Grant, error)
}

// StoreConfig configures a permission Store.
type StoreConfig struct {
	Backend Backend

	// Session, when set, drives automatic refresh/clear from credential
	// events.
	Session session.Store

	// Notifier, when set, receives user-visible failure toasts.
	Notifier *notify.Center

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Store holds the subject's grant set and refreshes it when the session
// credential changes. It is the only writer of the grant set; everything
// else reads immutable Snapshots.
type Store struct {
	backend  Backend
	sess     session.Store
	notifier *notify.Center
	log      *observability.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	grants   []api.Grant
	inflight int
	// issuedGen invalidates stale refresh responses: a completion whose
	// generation is no longer the latest issued is discarded.
	issuedGen uint64

	subs   map[int]chan struct{}
	nextID int

	watchCancel func()
	watchDone   chan struct{}
}

// NewStore creates a permission store. Call Initialize to load the
// initial grant set and start session coordination.
func NewStore(cfg StoreConfig) *Store {
	log := cfg.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics()
	}

	return &Store{
		backend:  cfg.Backend,
		sess:     cfg.Session,
		notifier: cfg.Notifier,
		log:      log.WithField("component", "permission-store"),
		metrics:  metrics,
		subs:     make(map[int]chan struct{}),
	}
}

// Initialize loads the initial permission set. With no stored credential
// the store stays empty and Initialize succeeds: absence of a session
// means absence of permissions, not a failure. When a session store is
// configured, credential events start driving refresh/clear.
func (s *Store) Initialize(ctx context.Context) error {
	if s.sess != nil {
		s.startWatching()

		if _, err := s.sess.Load(ctx); errors.Is(err, session.ErrNoCredential) {
			s.Clear()
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
	}

	return s.Refresh(ctx)
}

// Refresh replaces the grant set with a fresh backend fetch.
//
// A 401/403 clears the set (fail closed). Any other failure preserves
// the previous set and returns the error; callers are not expected to
// retry automatically. Stale responses from superseded refreshes are
// discarded.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issuedGen++
	gen := s.issuedGen
	s.inflight++
	s.mu.Unlock()
	s.notifySubs()

	grants, err := s.backend.Permissions(ctx)

	s.mu.Lock()
	s.inflight--
	stale := gen != s.issuedGen
	if !stale {
		switch {
		case err == nil:
			s.grants = grants
			s.metrics.PermissionRefreshesTotal.WithLabelValues("success").Inc()
			s.metrics.GrantsLoaded.Set(float64(len(grants)))
		case httputil.IsAuthError(err):
			// invalid or expired credential: no session, no permissions
			s.grants = nil
			s.metrics.PermissionRefreshesTotal.WithLabelValues("unauthorized").Inc()
			s.metrics.GrantsLoaded.Set(0)
		default:
			// transient failure: keep the stale-but-available set
			s.metrics.PermissionRefreshesTotal.WithLabelValues("error").Inc()
		}
	}
	s.mu.Unlock()
	s.notifySubs()

	if stale {
		s.log.Debug("discarded superseded permission refresh")
		return nil
	}

	switch {
	case err == nil:
		s.log.WithField("grants", len(grants)).Debug("permission set refreshed")
		return nil
	case httputil.IsAuthError(err):
		s.log.Info("credential rejected, cleared permission set")
		return nil
	default:
		s.log.WithError(err).Warn("permission refresh failed, keeping previous set")
		if s.notifier != nil {
			s.notifier.Error("Could not refresh permissions: %v", err)
		}
		return fmt.Errorf("permission refresh failed: %w", err)
	}
}

// Clear synchronously resets the store to an empty grant set and
// invalidates any in-flight refresh.
func (s *Store) Clear() {
	s.mu.Lock()
	s.grants = nil
	s.issuedGen++ // in-flight responses are now stale
	s.mu.Unlock()

	s.metrics.GrantsLoaded.Set(0)
	s.notifySubs()
}

// Snapshot returns an immutable view of the current grant set.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newSnapshot(s.grants, s.inflight > 0)
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Subscribe returns a channel that ticks whenever the grant set (or the
// loading flag) changes, and a cancel func.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close stops session watching and releases subscriber channels.
func (s *Store) Close() {
	if s.watchCancel != nil {
		s.watchCancel()
		<-s.watchDone
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store) notifySubs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
			// a pending tick already queued; coalesce
		}
	}
}

func (s *Store) startWatching() {
	events, cancelSub := s.sess.Subscribe()
	watchCtx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.watchCancel = func() {
		cancelSub()
		cancelCtx()
	}
	s.watchDone = done

	go func() {
		defer close(done)
		for {
			select {
			case <-watchCtx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch ev.Kind {
				case session.CredentialAdded:
					// refresh failures here follow the usual policy and
					// are already logged/notified
					_ = s.Refresh(watchCtx)
				case session.CredentialRemoved:
					s.Clear()
				}
			}
		}
	}()
}
