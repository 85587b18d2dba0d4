// Package session manages the persisted backend credential and broadcasts
// credential lifecycle events.
//
// # Overview
//
// The console holds exactly one piece of persisted client state: the bearer
// credential obtained at login. Every consumer of permission state must
// observe the same logical session, so a credential added or removed through
// any code path (or any process sharing the session) is published as an
// event. The permission store subscribes and refreshes or clears in
// response.
//
// # Stores
//
// MemoryStore: in-process only, for tests and short-lived tools.
//
// FileStore: persists the token to disk and watches the file with fsnotify,
// so an external write or removal (another process logging in or out) is
// observed as a credential event.
//
// RedisStore: shares the credential through redis and broadcasts changes on
// a pub/sub channel, converging every process attached to the session.
//
// # Usage
//
//	store, err := session.NewFileStore(cfg.Session.TokenFile)
//	events, cancel := store.Subscribe()
//	defer cancel()
//	for ev := range events {
//		switch ev.Kind {
//		case session.CredentialAdded:
//			perms.Refresh(ctx)
//		case session.CredentialRemoved:
//			perms.Clear()
//		}
//	}
package session
