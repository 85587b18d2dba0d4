package matrix

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cobaltcrm/console/pkg/api"
	"github.com/cobaltcrm/console/pkg/notify"
	"github.com/cobaltcrm/console/pkg/observability"
)

var (
	// ErrNoRole is returned by edit operations before a role is loaded.
	ErrNoRole = errors.New("matrix: no role loaded")

	// ErrSaveInFlight is returned when Save is called while a previous
	// save has not completed. The trigger is idempotent: the caller
	// should simply ignore this.
	ErrSaveInFlight = errors.New("matrix: save already in flight")

	// ErrCellNotFound is returned when a toggle addresses a cell the
	// current matrix does not contain.
	ErrCellNotFound = errors.New("matrix: cell not found")
)

// State is the editor's position in the edit/commit lifecycle.
type State int

const (
	// StateEmpty means no role has been loaded yet.
	StateEmpty State = iota
	// StateLoaded means the matrix reflects server truth, no edits staged.
	StateLoaded
	// StateDirty means at least one edit is staged and unsaved.
	StateDirty
	// StateSaving means a batch commit is in flight.
	StateSaving
	// StateSaved means the last commit succeeded and nothing is staged.
	StateSaved
	// StateSaveFailed means the last commit failed; staged edits survive.
	StateSaveFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateSaved:
		return "saved"
	case StateSaveFailed:
		return "save_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Backend is the slice of the API client the editor needs.
type Backend interface {
	Matrix(ctx context.Context, roleID int64) ([]api.MatrixRow, error)
	SaveMatrix(ctx context.Context, roleID int64, updates []api.MatrixUpdate) error
	UnassignedModules(ctx context.Context, roleID int64) ([]api.ModuleRef, error)
	AttachModule(ctx context.Context, req api.AttachModuleRequest) error
	Menus(ctx context.Context) ([]api.MenuRecord, error)
}

type cellKey struct {
	moduleID     int64
	menuID       int64
	permissionID int64
}

// EditorConfig configures an Editor.
type EditorConfig struct {
	Backend  Backend
	Notifier *notify.Center
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

// Editor holds one role's matrix and its staged edits.
type Editor struct {
	backend  Backend
	notifier *notify.Center
	log      *observability.Logger
	metrics  *observability.Metrics

	// mu guards every field below. Cell state and the pending list are
	// only ever mutated together under it.
	mu      sync.Mutex
	roleID  int64
	loaded  bool
	rows    []api.MatrixRow
	pending map[cellKey]api.MatrixUpdate
	state   State
	saving  bool
}

// NewEditor creates an Editor. Call LoadRole before editing.
func NewEditor(cfg EditorConfig) *Editor {
	log := cfg.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics()
	}

	return &Editor{
		backend:  cfg.Backend,
		notifier: cfg.Notifier,
		log:      log.WithField("component", "matrix-editor"),
		metrics:  metrics,
		pending:  make(map[cellKey]api.MatrixUpdate),
		state:    StateEmpty,
	}
}

// LoadRole fetches roleID's matrix and makes it the active one. Unsaved
// edits for the previously active role are discarded without prompting;
// the returned count reports how many were dropped. On a fetch failure
// the previous matrix and its edits stay intact and visible.
func (e *Editor) LoadRole(ctx context.Context, roleID int64) (discarded int, err error) {
	rows, err := e.backend.Matrix(ctx, roleID)
	if err != nil {
		e.log.WithError(err).WithField("role_id", roleID).Warn("matrix fetch failed")
		if e.notifier != nil {
			e.notifier.Error("Could not load permissions for this role: %v", err)
		}
		return 0, fmt.Errorf("failed to load matrix for role %d: %w", roleID, err)
	}

	e.mu.Lock()
	discarded = len(e.pending)
	e.roleID = roleID
	e.loaded = true
	e.rows = rows
	e.pending = make(map[cellKey]api.MatrixUpdate)
	e.state = StateLoaded
	e.mu.Unlock()

	e.metrics.PendingChangesGauge.Set(0)
	if discarded > 0 {
		e.log.WithFields(map[string]interface{}{
			"role_id":   roleID,
			"discarded": discarded,
		}).Info("discarded unsaved matrix edits on role switch")
	}
	return discarded, nil
}

// RoleID returns the active role, or 0 before LoadRole.
func (e *Editor) RoleID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roleID
}

// State returns the editor's lifecycle state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Rows returns a deep copy of the rendered matrix, local edits included.
func (e *Editor) Rows() []api.MatrixRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRows(e.rows)
}

// Pending returns the staged changes in a deterministic order.
func (e *Editor) Pending() []api.MatrixUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]api.MatrixUpdate, 0, len(e.pending))
	for _, u := range e.pending {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModuleID != out[j].ModuleID {
			return out[i].ModuleID < out[j].ModuleID
		}
		if out[i].MenuID != out[j].MenuID {
			return out[i].MenuID < out[j].MenuID
		}
		return out[i].PermissionID < out[j].PermissionID
	})
	return out
}

// PendingCount returns the number of staged changes, for the save badge.
func (e *Editor) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Toggle flips one cell. The rendered cell and the pending list are
// updated together; a repeat toggle of the same cell replaces its staged
// target rather than adding a second entry.
func (e *Editor) Toggle(moduleID, menuID, permissionID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return ErrNoRole
	}

	cell, permName, ok := e.findCellLocked(moduleID, menuID, permissionID)
	if !ok {
		return fmt.Errorf("%w: module %d menu %d permission %d", ErrCellNotFound, moduleID, menuID, permissionID)
	}
	e.setCellLocked(moduleID, menuID, permName, &cell, !cell.Granted)
	return nil
}

// ToggleColumn bulk-toggles every cell of one permission column across
// the whole matrix. If every cell is currently granted the column goes
// fully revoked; a mixed or empty column goes fully granted.
func (e *Editor) ToggleColumn(permission string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return ErrNoRole
	}

	target := false
	for ri := range e.rows {
		for mi := range e.rows[ri].Menus {
			if cell, ok := e.rows[ri].Menus[mi].Permissions[permission]; ok && !cell.Granted {
				target = true
			}
		}
	}

	for ri := range e.rows {
		row := &e.rows[ri]
		for mi := range row.Menus {
			menu := &row.Menus[mi]
			cell, ok := menu.Permissions[permission]
			if !ok || cell.Granted == target {
				continue
			}
			e.setCellLocked(row.Module.ID, menu.ID, permission, &cell, target)
		}
	}
	return nil
}

// ToggleRow bulk-toggles every permission of one menu with the same
// all-or-nothing collapse as ToggleColumn.
func (e *Editor) ToggleRow(moduleID, menuID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return ErrNoRole
	}

	menu := e.findMenuLocked(moduleID, menuID)
	if menu == nil {
		return fmt.Errorf("%w: module %d menu %d", ErrCellNotFound, moduleID, menuID)
	}

	target := false
	for _, cell := range menu.Permissions {
		if !cell.Granted {
			target = true
		}
	}

	for name, cell := range menu.Permissions {
		if cell.Granted == target {
			continue
		}
		e.setCellLocked(moduleID, menuID, name, &cell, target)
	}
	return nil
}

// Save commits the staged changes as one batch. Repeat calls while a
// save is in flight return ErrSaveInFlight and issue nothing. Edits are
// not blocked during a save; ones staged after the commit snapshot
// survive it. A failed save preserves every staged edit.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNoRole
	}
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return nil
	}

	roleID := e.roleID
	snapshot := make(map[cellKey]api.MatrixUpdate, len(e.pending))
	updates := make([]api.MatrixUpdate, 0, len(e.pending))
	for k, u := range e.pending {
		snapshot[k] = u
		updates = append(updates, u)
	}
	e.saving = true
	e.state = StateSaving
	e.mu.Unlock()

	start := time.Now()
	err := e.backend.SaveMatrix(ctx, roleID, updates)
	e.metrics.MatrixSaveDuration.Observe(time.Since(start).Seconds())

	e.mu.Lock()
	e.saving = false
	if err != nil {
		// staged edits survive so the admin can retry
		e.state = StateSaveFailed
		e.mu.Unlock()

		e.metrics.MatrixSavesTotal.WithLabelValues("error").Inc()
		e.log.WithError(err).WithField("role_id", roleID).Warn("matrix save failed")
		if e.notifier != nil {
			e.notifier.Error("Saving permission changes failed: %v", err)
		}
		return fmt.Errorf("failed to save matrix: %w", err)
	}

	// drop exactly what was committed; edits staged mid-save stay pending
	for k, u := range snapshot {
		if cur, ok := e.pending[k]; ok && cur.Granted == u.Granted {
			delete(e.pending, k)
		}
	}
	if len(e.pending) == 0 {
		e.state = StateSaved
	} else {
		e.state = StateDirty
	}
	remaining := len(e.pending)
	e.mu.Unlock()

	e.metrics.MatrixSavesTotal.WithLabelValues("success").Inc()
	e.metrics.PendingChangesGauge.Set(float64(remaining))
	e.log.WithFields(map[string]interface{}{
		"role_id": roleID,
		"changes": len(updates),
	}).Info("matrix saved")
	if e.notifier != nil {
		e.notifier.Success("Permission changes saved.")
	}
	return nil
}

// UnassignedModules lists the modules not yet assigned to the active
// role. The list comes from a dedicated backend query, never derived
// from the matrix.
func (e *Editor) UnassignedModules(ctx context.Context) ([]api.ModuleRef, error) {
	e.mu.Lock()
	roleID, loaded := e.roleID, e.loaded
	e.mu.Unlock()
	if !loaded {
		return nil, ErrNoRole
	}

	modules, err := e.backend.UnassignedModules(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned modules: %w", err)
	}
	return modules, nil
}

// ModuleMenus lists a module's menus, for display in the attach dialog.
func (e *Editor) ModuleMenus(ctx context.Context, moduleID int64) ([]api.MenuRecord, error) {
	menus, err := e.backend.Menus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}

	var out []api.MenuRecord
	for _, m := range menus {
		if m.ModuleID == moduleID {
			out = append(out, m)
		}
	}
	return out, nil
}

// AttachModule attaches moduleID to the active role, creating permission
// rows for every menu in the module with nothing granted. Attaching
// never grants capabilities. On success the matrix is re-fetched so the
// new rows carry backend permission ids; staged edits for cells that
// still exist are re-applied to the fresh matrix. On failure nothing
// changes, so the admin can retry with the same selection.
func (e *Editor) AttachModule(ctx context.Context, moduleID int64) error {
	e.mu.Lock()
	roleID, loaded := e.roleID, e.loaded
	e.mu.Unlock()
	if !loaded {
		return ErrNoRole
	}

	menus, err := e.ModuleMenus(ctx, moduleID)
	if err != nil {
		e.metrics.ModuleAttachesTotal.WithLabelValues("error").Inc()
		return err
	}

	req := api.AttachModuleRequest{RoleID: roleID, ModuleID: moduleID}
	for _, m := range menus {
		req.Permissions = append(req.Permissions, api.AttachMenuPermissions{MenuID: m.ID})
	}

	if err := e.backend.AttachModule(ctx, req); err != nil {
		e.metrics.ModuleAttachesTotal.WithLabelValues("error").Inc()
		e.log.WithError(err).WithField("module_id", moduleID).Warn("module attach failed")
		if e.notifier != nil {
			e.notifier.Error("Adding the module failed: %v", err)
		}
		return fmt.Errorf("failed to attach module %d: %w", moduleID, err)
	}
	e.metrics.ModuleAttachesTotal.WithLabelValues("success").Inc()

	rows, err := e.backend.Matrix(ctx, roleID)
	if err != nil {
		// the attach itself committed; the stale matrix stays visible
		e.log.WithError(err).Warn("matrix re-fetch after attach failed")
		if e.notifier != nil {
			e.notifier.Warning("Module added, but the matrix could not be reloaded: %v", err)
		}
		return fmt.Errorf("failed to reload matrix after attach: %w", err)
	}

	e.mu.Lock()
	e.rows = rows
	e.reapplyPendingLocked()
	e.mu.Unlock()

	if e.notifier != nil {
		e.notifier.Success("Module added. Grant its permissions below.")
	}
	return nil
}

// findCellLocked locates a cell by ids and returns a copy plus the
// cell's permission name. setCellLocked writes edits back into the map.
func (e *Editor) findCellLocked(moduleID, menuID, permissionID int64) (api.PermissionCell, string, bool) {
	menu := e.findMenuLocked(moduleID, menuID)
	if menu == nil {
		return api.PermissionCell{}, "", false
	}
	for name, cell := range menu.Permissions {
		if cell.PermissionID == permissionID {
			return cell, name, true
		}
	}
	return api.PermissionCell{}, "", false
}

func (e *Editor) findMenuLocked(moduleID, menuID int64) *api.MatrixMenu {
	for ri := range e.rows {
		if e.rows[ri].Module.ID != moduleID {
			continue
		}
		for mi := range e.rows[ri].Menus {
			if e.rows[ri].Menus[mi].ID == menuID {
				return &e.rows[ri].Menus[mi]
			}
		}
	}
	return nil
}

// setCellLocked applies one cell edit: the rendered state and the
// pending entry change together, which is the invariant the whole
// editor hangs on.
func (e *Editor) setCellLocked(moduleID, menuID int64, permName string, cell *api.PermissionCell, target bool) {
	cell.Granted = target

	if menu := e.findMenuLocked(moduleID, menuID); menu != nil {
		menu.Permissions[permName] = *cell
	}

	key := cellKey{moduleID: moduleID, menuID: menuID, permissionID: cell.PermissionID}
	e.pending[key] = api.MatrixUpdate{
		ModuleID:     moduleID,
		MenuID:       menuID,
		PermissionID: cell.PermissionID,
		Granted:      target,
	}
	e.state = StateDirty
	e.metrics.PendingChangesGauge.Set(float64(len(e.pending)))
}

// reapplyPendingLocked replays staged edits onto a freshly fetched
// matrix. Edits addressing cells the new matrix no longer has are
// dropped.
func (e *Editor) reapplyPendingLocked() {
	for key, u := range e.pending {
		menu := e.findMenuLocked(u.ModuleID, u.MenuID)
		if menu == nil {
			delete(e.pending, key)
			continue
		}
		found := false
		for name, cell := range menu.Permissions {
			if cell.PermissionID == u.PermissionID {
				cell.Granted = u.Granted
				menu.Permissions[name] = cell
				found = true
				break
			}
		}
		if !found {
			delete(e.pending, key)
		}
	}
	if len(e.pending) > 0 {
		e.state = StateDirty
	}
	e.metrics.PendingChangesGauge.Set(float64(len(e.pending)))
}

func cloneRows(rows []api.MatrixRow) []api.MatrixRow {
	out := make([]api.MatrixRow, len(rows))
	for i, row := range rows {
		cloned := api.MatrixRow{Module: row.Module, Menus: make([]api.MatrixMenu, len(row.Menus))}
		for j, menu := range row.Menus {
			m := api.MatrixMenu{ID: menu.ID, Name: menu.Name, Path: menu.Path, Permissions: make(map[string]api.PermissionCell, len(menu.Permissions))}
			for name, cell := range menu.Permissions {
				m.Permissions[name] = cell
			}
			cloned.Menus[j] = m
		}
		out[i] = cloned
	}
	return out
}
