// Package matrix is the role-permission matrix editor: an administrator
// views the full permission grid for one role, stages cell edits locally
// and commits them as one batch.
//
// # Overview
//
// The Editor is a per-role state machine (Loaded, Dirty, Saving, Saved,
// SaveFailed). Every toggle updates the rendered cell and the pending
// change list atomically under one lock, so the two can never diverge.
// At most one pending change exists per (module, menu, permission) cell;
// a later toggle of the same cell replaces the staged target.
//
// Bulk toggles collapse the mixed state all-or-nothing: a column or row
// where every cell is granted toggles to fully revoked, anything less
// than 100% granted toggles to fully granted.
//
// A failed save preserves the staged edits so the administrator can
// retry. Switching the active role discards unsaved edits and fetches
// that role's matrix fresh; LoadRole reports how many were dropped.
//
// Attaching a module to a role creates its permission rows with nothing
// granted, then re-fetches the matrix so the new rows carry backend
// permission ids. Attach never synthesizes rows locally.
package matrix
