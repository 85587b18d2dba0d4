package permissions

import (
	"github.com/cobaltcrm/console/pkg/api"
)

// Action is one of the five gated actions.
type Action string

const (
	ActionView   Action = "View"
	ActionAdd    Action = "Add"
	ActionEdit   Action = "Edit"
	ActionDelete Action = "Delete"
	ActionExport Action = "Export"
)

func (a Action) String() string { return string(a) }

// Actions lists every gated action in display order.
func Actions() []Action {
	return []Action{ActionView, ActionAdd, ActionEdit, ActionDelete, ActionExport}
}

type grantKey struct {
	path   string
	action Action
}

type moduleKey struct {
	module string
	action Action
}

// Snapshot is an immutable view of the subject's grant set. Queries on a
// Snapshot are consistent with each other: the underlying set cannot
// change between two calls on the same value.
type Snapshot struct {
	loading bool
	grants  map[grantKey]struct{}
	modules map[moduleKey]struct{}
}

func newSnapshot(grants []api.Grant, loading bool) Snapshot {
	s := Snapshot{
		loading: loading,
		grants:  make(map[grantKey]struct{}, len(grants)),
		modules: make(map[moduleKey]struct{}, len(grants)),
	}
	for _, g := range grants {
		s.grants[grantKey{path: g.Path, action: Action(g.Permission)}] = struct{}{}
		s.modules[moduleKey{module: g.Module, action: Action(g.Permission)}] = struct{}{}
	}
	return s
}

func emptySnapshot(loading bool) Snapshot {
	return newSnapshot(nil, loading)
}

// Loading reports whether a refresh is in flight. While loading, every
// query answers false.
func (s Snapshot) Loading() bool {
	return s.loading
}

// Len returns the number of distinct (path, action) grants held.
func (s Snapshot) Len() int {
	return len(s.grants)
}

// Has reports whether a grant exists with exactly this path and action.
// Matching is exact-string; there is no prefix or hierarchical matching.
func (s Snapshot) Has(path string, action Action) bool {
	if s.loading {
		return false
	}
	_, ok := s.grants[grantKey{path: path, action: action}]
	return ok
}

// HasModule reports whether any grant in the named module carries the
// action.
func (s Snapshot) HasModule(module string, action Action) bool {
	if s.loading {
		return false
	}
	_, ok := s.modules[moduleKey{module: module, action: action}]
	return ok
}

// CanView reports whether View is granted for path.
func (s Snapshot) CanView(path string) bool { return s.Has(path, ActionView) }

// CanAdd reports whether Add is granted for path.
func (s Snapshot) CanAdd(path string) bool { return s.Has(path, ActionAdd) }

// CanEdit reports whether Edit is granted for path.
func (s Snapshot) CanEdit(path string) bool { return s.Has(path, ActionEdit) }

// CanDelete reports whether Delete is granted for path.
func (s Snapshot) CanDelete(path string) bool { return s.Has(path, ActionDelete) }

// CanExport reports whether Export is granted for path.
func (s Snapshot) CanExport(path string) bool { return s.Has(path, ActionExport) }
