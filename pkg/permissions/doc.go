// Package permissions holds the single source of truth for what the
// current subject may do.
//
// # Overview
//
// The Store fetches the subject's flattened grant list from the backend
// and exposes it as immutable Snapshots. Consumers take one Snapshot per
// render pass so permission queries never race an in-flight refresh.
//
// The store fails closed: a missing credential or a 401/403 response
// yields an empty grant set, never an error that crashes the shell. Any
// other fetch failure preserves the previous (stale but available) set.
//
// # Queries
//
// Snapshot queries are pure and exact-match: a grant for "/users" says
// nothing about "/users/" or any other action on "/users". While a
// refresh is in flight every query answers false (least privilege while
// permissions are unknown).
//
//	snap := store.Snapshot()
//	if snap.CanView("/users") { ... }
//
// # Session coordination
//
// The store subscribes to session credential events: a credential added
// anywhere (another component, another process) triggers a refresh, a
// removal clears the grant set. See pkg/session.
package permissions
