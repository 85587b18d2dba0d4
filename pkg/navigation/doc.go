// Package navigation derives the sidebar tree the current subject is
// allowed to see.
//
// # Overview
//
// The Builder fetches the full module/menu hierarchy (the backend does
// not filter it) and filters it against the permission store: a menu is
// visible only when View is granted for its exact path, and a module is
// visible only when at least one of its menus or grandchildren is. The
// tree is rebuilt whenever the permission set changes, so a grant edited
// elsewhere in the session shows up without a reload.
//
// Rendering a menu is never trusted as authorization: Navigate re-checks
// View at click time and returns ErrForbidden when the grant has gone
// away since the last render.
//
// # Usage
//
//	builder := navigation.NewBuilder(navigation.BuilderConfig{
//		Backend:     client,
//		Permissions: store,
//	})
//	defer builder.Close()
//	if err := builder.Load(ctx); err != nil { /* tree stays empty */ }
//	tree := builder.Tree()
package navigation
