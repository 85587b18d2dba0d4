package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoCredential indicates that no credential is currently stored.
var ErrNoCredential = errors.New("session: no credential stored")

// Credential is the persisted bearer credential for the backend.
type Credential struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// EventKind distinguishes credential lifecycle events.
type EventKind int

const (
	// CredentialAdded fires when a credential is stored or replaced.
	CredentialAdded EventKind = iota
	// CredentialRemoved fires when the credential is cleared.
	CredentialRemoved
)

func (k EventKind) String() string {
	if k == CredentialAdded {
		return "added"
	}
	return "removed"
}

// Event describes a credential lifecycle change.
type Event struct {
	Kind EventKind
}

// Store persists the session credential and publishes change events.
type Store interface {
	// Load returns the stored credential, or ErrNoCredential.
	Load(ctx context.Context) (*Credential, error)

	// Save stores the credential and broadcasts CredentialAdded.
	Save(ctx context.Context, cred Credential) error

	// Clear removes the credential and broadcasts CredentialRemoved.
	Clear(ctx context.Context) error

	// Subscribe returns a channel of credential events and a cancel func.
	Subscribe() (<-chan Event, func())

	// Close releases watcher/connection resources.
	Close() error
}

// broadcaster fans events out to subscribers without blocking publishers.
type broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 8)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber; drop rather than block the publisher
		}
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
	bc   *broadcaster
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bc: newBroadcaster()}
}

// Load returns the stored credential, or ErrNoCredential.
func (s *MemoryStore) Load(ctx context.Context) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil, ErrNoCredential
	}
	cred := *s.cred
	return &cred, nil
}

// Save stores the credential and broadcasts CredentialAdded.
func (s *MemoryStore) Save(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	s.cred = &cred
	s.mu.Unlock()

	s.bc.publish(Event{Kind: CredentialAdded})
	return nil
}

// Clear removes the credential and broadcasts CredentialRemoved.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	had := s.cred != nil
	s.cred = nil
	s.mu.Unlock()

	if had {
		s.bc.publish(Event{Kind: CredentialRemoved})
	}
	return nil
}

// Subscribe returns a channel of credential events and a cancel func.
func (s *MemoryStore) Subscribe() (<-chan Event, func()) {
	return s.bc.subscribe()
}

// Close releases subscriber channels.
func (s *MemoryStore) Close() error {
	s.bc.closeAll()
	return nil
}

// tokenSource adapts a Store to oauth2.TokenSource.
type tokenSource struct {
	ctx   context.Context
	store Store
}

// TokenSource exposes the stored credential as an oauth2.TokenSource.
// Token returns ErrNoCredential when the session is empty; callers that
// want unauthenticated fallback should test for it with errors.Is.
func TokenSource(ctx context.Context, store Store) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: store}
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	cred, err := ts.store.Load(ts.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: cred.Token}, nil
}
