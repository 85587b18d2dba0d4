package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cobaltcrm/console/pkg/api"
	"github.com/cobaltcrm/console/pkg/notify"
	"github.com/cobaltcrm/console/pkg/observability"
	"github.com/cobaltcrm/console/pkg/permissions"
)

// ErrForbidden is returned by Navigate when View is not granted for the
// target path at click time. Callers route to the forbidden view.
var ErrForbidden = errors.New("navigation: access forbidden")

// Menu is a visible navigation entry.
type Menu struct {
	ID       int64
	Name     string
	Path     string
	Children []Menu
	Expanded bool
}

// Module is a visible top-level navigation grouping.
type Module struct {
	ID       int64
	Name     string
	Menus    []Menu
	Expanded bool
}

// Tree is the filtered navigation tree actually rendered.
type Tree struct {
	Modules []Module
}

// MenuCount returns the number of visible menus, children included.
func (t Tree) MenuCount() int {
	count := 0
	var walk func(menus []Menu)
	walk = func(menus []Menu) {
		for _, m := range menus {
			count++
			walk(m.Children)
		}
	}
	for _, mod := range t.Modules {
		walk(mod.Menus)
	}
	return count
}

// Backend is the slice of the API client the builder needs.
type Backend interface {
	Sidebar(ctx context.Context) ([]api.Module, error)
}

// PermissionSource supplies grant snapshots and change ticks.
type PermissionSource interface {
	Snapshot() permissions.Snapshot
	Subscribe() (<-chan struct{}, func())
}

// BuilderConfig configures a Builder.
type BuilderConfig struct {
	Backend     Backend
	Permissions PermissionSource
	Notifier    *notify.Center
	Logger      *observability.Logger
	Metrics     *observability.Metrics
}

// Builder produces and maintains the filtered navigation tree.
type Builder struct {
	backend  Backend
	perms    PermissionSource
	notifier *notify.Center
	log      *observability.Logger
	metrics  *observability.Metrics

	mu    sync.Mutex
	raw   []api.Module
	route string
	tree  Tree

	subs   map[int]chan struct{}
	nextID int

	stopWatch func()
	watchDone chan struct{}
}

// NewBuilder creates a Builder and starts rebuilding on permission
// changes.
func NewBuilder(cfg BuilderConfig) *Builder {
	log := cfg.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics()
	}

	b := &Builder{
		backend:  cfg.Backend,
		perms:    cfg.Permissions,
		notifier: cfg.Notifier,
		log:      log.WithField("component", "navigation"),
		metrics:  metrics,
		subs:     make(map[int]chan struct{}),
	}
	b.startWatching()
	return b
}

// Load fetches the full navigation hierarchy and builds the filtered
// tree. On a fetch failure the tree is left empty (fail closed) and the
// error is returned; the application shell should render regardless.
func (b *Builder) Load(ctx context.Context) error {
	modules, err := b.backend.Sidebar(ctx)
	if err != nil {
		b.mu.Lock()
		b.raw = nil
		b.mu.Unlock()
		b.rebuild()

		b.log.WithError(err).Warn("sidebar fetch failed, rendering empty navigation")
		if b.notifier != nil {
			b.notifier.Warning("Navigation could not be loaded: %v", err)
		}
		return fmt.Errorf("failed to load navigation: %w", err)
	}

	b.mu.Lock()
	b.raw = modules
	b.mu.Unlock()
	b.rebuild()
	return nil
}

// SetRoute records the current route and recomputes auto-expansion.
// Expansion is a presentation default only, never a permission decision.
func (b *Builder) SetRoute(path string) {
	b.mu.Lock()
	b.route = path
	b.mu.Unlock()
	b.rebuild()
}

// Tree returns the current filtered navigation tree.
func (b *Builder) Tree() Tree {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tree
}

// Navigate re-verifies View for path at click time before the route
// change. A rendered entry is not proof of authorization: the grant may
// have been revoked between render and click.
func (b *Builder) Navigate(ctx context.Context, path string) error {
	if !b.perms.Snapshot().CanView(path) {
		b.log.WithField("path", path).Info("navigation blocked at click time")
		return ErrForbidden
	}
	b.SetRoute(path)
	return nil
}

// Subscribe returns a channel that ticks whenever the filtered tree is
// rebuilt, and a cancel func.
func (b *Builder) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan struct{}, 1)
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

// Close stops permission watching and releases subscriber channels.
func (b *Builder) Close() {
	if b.stopWatch != nil {
		b.stopWatch()
		<-b.watchDone
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Builder) startWatching() {
	if b.perms == nil {
		return
	}

	ticks, cancel := b.perms.Subscribe()
	done := make(chan struct{})
	b.stopWatch = cancel
	b.watchDone = done

	go func() {
		defer close(done)
		for range ticks {
			b.rebuild()
		}
	}()
}

// rebuild filters the raw hierarchy against the current permission
// snapshot and recomputes expansion against the current route.
func (b *Builder) rebuild() {
	snap := b.perms.Snapshot()

	b.mu.Lock()
	raw, route := b.raw, b.route
	b.mu.Unlock()

	tree := filter(raw, snap, route)

	b.mu.Lock()
	b.tree = tree
	b.mu.Unlock()

	b.metrics.NavigationRebuildsTotal.Inc()
	b.metrics.VisibleMenusGauge.Set(float64(tree.MenuCount()))
	b.notifySubs()
}

func (b *Builder) notifySubs() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// filter applies the visibility rules: a menu renders only with View on
// its exact path (no inheritance in either direction); a module renders
// only when at least one of its menus or grandchildren is view-permitted.
func filter(raw []api.Module, snap permissions.Snapshot, route string) Tree {
	var tree Tree
	for _, mod := range raw {
		if !moduleVisible(mod, snap) {
			continue
		}

		visible := Module{ID: mod.ID, Name: mod.Name}
		for _, menu := range mod.Menus {
			if filtered, ok := filterMenu(menu, snap, route); ok {
				visible.Menus = append(visible.Menus, filtered)
			}
		}
		visible.Expanded = moduleContainsRoute(mod, route)
		tree.Modules = append(tree.Modules, visible)
	}
	return tree
}

func moduleVisible(mod api.Module, snap permissions.Snapshot) bool {
	for _, menu := range mod.Menus {
		if snap.CanView(menu.Path) {
			return true
		}
		for _, child := range menu.Children {
			if snap.CanView(child.Path) {
				return true
			}
		}
	}
	return false
}

func filterMenu(menu api.Menu, snap permissions.Snapshot, route string) (Menu, bool) {
	if !snap.CanView(menu.Path) {
		return Menu{}, false
	}

	out := Menu{ID: menu.ID, Name: menu.Name, Path: menu.Path}
	for _, child := range menu.Children {
		if filtered, ok := filterMenu(child, snap, route); ok {
			out.Children = append(out.Children, filtered)
		}
	}
	out.Expanded = menuContainsRoute(menu, route)
	return out, true
}

func moduleContainsRoute(mod api.Module, route string) bool {
	if route == "" {
		return false
	}
	for _, menu := range mod.Menus {
		if menuContainsRoute(menu, route) {
			return true
		}
	}
	return false
}

func menuContainsRoute(menu api.Menu, route string) bool {
	if route == "" {
		return false
	}
	if menu.Path == route {
		return true
	}
	for _, child := range menu.Children {
		if menuContainsRoute(child, route) {
			return true
		}
	}
	return false
}
