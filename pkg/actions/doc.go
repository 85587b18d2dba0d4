// Package actions is the permission-gated table surface shared by every
// domain screen.
//
// # Overview
//
// A Surface is configured once per screen with the screen's module path,
// its columns and its action handlers. Rendering code asks Visible and
// RowActions which affordances to draw; a denied action is omitted
// entirely, never greyed out, so the subject cannot learn that the
// action exists.
//
// Rendering is not authorization. Invoke re-checks the permission at
// call time and rejects locally, without a backend round trip, when the
// grant is missing. Export double-checks inside the handler path as well
// since export endpoints move data out of the system.
//
// Search, sort and pagination are passthrough state with no permission
// implications; the Surface holds them only so callers can wire them to
// backend query parameters.
package actions
