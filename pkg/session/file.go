package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileStore persists the credential to a file and watches it for external
// changes. A write or removal performed by another process is observed via
// fsnotify and rebroadcast as a credential event, so every process sharing
// the token file converges on the same session.
type FileStore struct {
	path string
	bc   *broadcaster

	mu        sync.Mutex
	lastToken string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileStore creates a file-backed session store at path and starts
// watching the containing directory for external changes.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create session watcher: %w", err)
	}
	// Watch the directory, not the file: the file may not exist yet, and
	// atomic replaces would otherwise detach the watch.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch session directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		bc:      newBroadcaster(),
		watcher: watcher,
		done:    make(chan struct{}),
	}
	if cred, err := s.readFile(); err == nil {
		s.lastToken = cred.Token
	}

	go s.watch()
	return s, nil
}

// Load returns the stored credential, or ErrNoCredential.
func (s *FileStore) Load(ctx context.Context) (*Credential, error) {
	cred, err := s.readFile()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastToken = cred.Token
	s.mu.Unlock()
	return cred, nil
}

// Save stores the credential and broadcasts CredentialAdded.
func (s *FileStore) Save(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	s.lastToken = cred.Token
	s.mu.Unlock()

	if err := os.WriteFile(s.path, []byte(cred.Token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	s.bc.publish(Event{Kind: CredentialAdded})
	return nil
}

// Clear removes the credential and broadcasts CredentialRemoved.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	had := s.lastToken != ""
	s.lastToken = ""
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	if had {
		s.bc.publish(Event{Kind: CredentialRemoved})
	}
	return nil
}

// Subscribe returns a channel of credential events and a cancel func.
func (s *FileStore) Subscribe() (<-chan Event, func()) {
	return s.bc.subscribe()
}

// Close stops the watcher and releases subscriber channels.
func (s *FileStore) Close() error {
	close(s.done)
	err := s.watcher.Close()
	s.bc.closeAll()
	return err
}

func (s *FileStore) readFile() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil, ErrNoCredential
	}

	info, err := os.Stat(s.path)
	issuedAt := time.Now()
	if err == nil {
		issuedAt = info.ModTime()
	}
	return &Credential{Token: token, IssuedAt: issuedAt}, nil
}

// watch relays external file changes as credential events. Changes made
// through Save/Clear are deduplicated against lastToken so a single logical
// change produces a single event.
func (s *FileStore) watch() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			s.handleFileEvent(ev)
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// watcher errors are non-fatal; the next Load still reads disk
		}
	}
}

func (s *FileStore) handleFileEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		s.mu.Lock()
		had := s.lastToken != ""
		s.lastToken = ""
		s.mu.Unlock()
		if had {
			s.bc.publish(Event{Kind: CredentialRemoved})
		}
	case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
		cred, err := s.readFile()
		if err != nil {
			return
		}
		s.mu.Lock()
		changed := cred.Token != s.lastToken
		s.lastToken = cred.Token
		s.mu.Unlock()
		if changed {
			s.bc.publish(Event{Kind: CredentialAdded})
		}
	}
}
