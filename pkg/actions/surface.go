package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cobaltcrm/console/pkg/notify"
	"github.com/cobaltcrm/console/pkg/observability"
	"github.com/cobaltcrm/console/pkg/permissions"
)

var (
	// ErrActionDenied is returned by Invoke when the subject lacks the
	// permission at call time. No backend call is made.
	ErrActionDenied = errors.New("actions: permission denied")

	// ErrNotConfirmed is returned when the delete confirmation callback
	// declines.
	ErrNotConfirmed = errors.New("actions: delete not confirmed")

	// ErrNoHandler is returned when no handler is configured for the
	// invoked action.
	ErrNoHandler = errors.New("actions: no handler configured")
)

// Row is one data row rendered by the surface. The surface never
// interprets row contents; columns and handlers do.
type Row map[string]interface{}

// Column describes one rendered column. Render, when set, overrides the
// default lookup of Key in the row.
type Column struct {
	Key    string
	Title  string
	Render func(row Row) string
}

// Query is the passthrough search/sort/pagination state.
type Query struct {
	Search   string
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// RowHandler runs a row-scoped action (view, edit, delete).
type RowHandler func(ctx context.Context, row Row) error

// ScreenHandler runs a screen-scoped action (add, export).
type ScreenHandler func(ctx context.Context) error

// PermissionSource supplies grant snapshots for gating decisions.
type PermissionSource interface {
	Snapshot() permissions.Snapshot
}

// SurfaceConfig configures a Surface for one domain screen.
type SurfaceConfig struct {
	// ModulePath is the screen's path in the navigation convention and
	// the key every permission check runs against.
	ModulePath string

	Permissions PermissionSource
	Notifier    *notify.Center
	Logger      *observability.Logger
	Metrics     *observability.Metrics

	Columns []Column

	OnAdd    ScreenHandler
	OnExport ScreenHandler
	OnView   RowHandler
	OnEdit   RowHandler
	OnDelete RowHandler

	// ConfirmDelete must return true before the delete handler runs.
	ConfirmDelete func(row Row) bool
}

// Surface is a permission-gated action surface for one screen.
type Surface struct {
	modulePath string
	perms      PermissionSource
	notifier   *notify.Center
	log        *observability.Logger
	metrics    *observability.Metrics

	columns []Column

	onAdd         ScreenHandler
	onExport      ScreenHandler
	rowHandlers   map[permissions.Action]RowHandler
	confirmDelete func(row Row) bool

	mu    sync.Mutex
	query Query
}

// NewSurface creates a Surface.
func NewSurface(cfg SurfaceConfig) *Surface {
	log := cfg.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics()
	}

	return &Surface{
		modulePath: cfg.ModulePath,
		perms:      cfg.Permissions,
		notifier:   cfg.Notifier,
		log:        log.WithFields(map[string]interface{}{"component": "actions", "module_path": cfg.ModulePath}),
		metrics:    metrics,
		columns:    cfg.Columns,
		onAdd:      cfg.OnAdd,
		onExport:   cfg.OnExport,
		rowHandlers: map[permissions.Action]RowHandler{
			permissions.ActionView:   cfg.OnView,
			permissions.ActionEdit:   cfg.OnEdit,
			permissions.ActionDelete: cfg.OnDelete,
		},
		confirmDelete: cfg.ConfirmDelete,
		query:         Query{Page: 1, PageSize: 25},
	}
}

// ModulePath returns the path the surface gates against.
func (s *Surface) ModulePath() string { return s.modulePath }

// Columns returns the configured column set.
func (s *Surface) Columns() []Column { return s.columns }

// Visible reports whether the affordance for action should be rendered
// at all. A false answer means omit, not disable.
func (s *Surface) Visible(action permissions.Action) bool {
	granted := s.perms.Snapshot().Has(s.modulePath, action)
	s.metrics.PermissionChecksTotal.WithLabelValues(action.String(), result(granted)).Inc()
	return granted
}

// RowActions returns the row-scoped actions to render, in display order.
func (s *Surface) RowActions() []permissions.Action {
	var out []permissions.Action
	for _, action := range []permissions.Action{permissions.ActionView, permissions.ActionEdit, permissions.ActionDelete} {
		if s.Visible(action) {
			out = append(out, action)
		}
	}
	return out
}

// HeaderActions returns the screen-scoped actions to render.
func (s *Surface) HeaderActions() []permissions.Action {
	var out []permissions.Action
	for _, action := range []permissions.Action{permissions.ActionAdd, permissions.ActionExport} {
		if s.Visible(action) {
			out = append(out, action)
		}
	}
	return out
}

// EmptyState returns the message for a screen with no rows. Only
// subjects who may add anything are prompted to.
func (s *Surface) EmptyState() string {
	if s.perms.Snapshot().CanAdd(s.modulePath) {
		return "No records yet. Add one to get started."
	}
	return "No records found."
}

// Invoke runs the handler for a row-scoped action after re-checking the
// permission at call time. Denial is local: the handler is not called
// and no backend request is made. Delete additionally requires the
// confirmation callback to accept.
func (s *Surface) Invoke(ctx context.Context, action permissions.Action, row Row) error {
	if !s.check(action) {
		return ErrActionDenied
	}

	if action == permissions.ActionDelete {
		if s.confirmDelete == nil || !s.confirmDelete(row) {
			return ErrNotConfirmed
		}
	}

	handler := s.rowHandlers[action]
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, action)
	}
	return handler(ctx, row)
}

// Add runs the add handler after a call-time permission check.
func (s *Surface) Add(ctx context.Context) error {
	if !s.check(permissions.ActionAdd) {
		return ErrActionDenied
	}
	if s.onAdd == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, permissions.ActionAdd)
	}
	return s.onAdd(ctx)
}

// Export runs the export handler. The permission is checked here even
// though the button was already gated: export moves data out of the
// system, so a direct handler invocation must not bypass the check.
func (s *Surface) Export(ctx context.Context) error {
	if !s.check(permissions.ActionExport) {
		return ErrActionDenied
	}
	if s.onExport == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, permissions.ActionExport)
	}
	return s.onExport(ctx)
}

// Query returns the current passthrough query state.
func (s *Surface) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetSearch updates the search term and resets to the first page.
func (s *Surface) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Search = term
	s.query.Page = 1
}

// SetSort updates the sort column and direction.
func (s *Surface) SetSort(column string, desc bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.SortBy = column
	s.query.SortDesc = desc
}

// SetPage updates the page number and size. Non-positive values keep
// the previous setting.
func (s *Surface) SetPage(page, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page > 0 {
		s.query.Page = page
	}
	if size > 0 {
		s.query.PageSize = size
	}
}

// check records the call-time permission decision and notifies on
// denial.
func (s *Surface) check(action permissions.Action) bool {
	granted := s.perms.Snapshot().Has(s.modulePath, action)
	s.metrics.PermissionChecksTotal.WithLabelValues(action.String(), result(granted)).Inc()
	if granted {
		return true
	}

	s.metrics.PermissionDenialsTotal.WithLabelValues(action.String()).Inc()
	s.log.WithField("action", action.String()).Info("action invocation denied")
	if s.notifier != nil {
		s.notifier.Warning("You do not have %s permission here.", action)
	}
	return false
}

func result(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}
