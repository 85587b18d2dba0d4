// Package backendtest provides an in-memory CRM backend implementing the
// access-control endpoints for tests. Fixtures are seedable and failures
// injectable per endpoint.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/cobaltcrm/console/pkg/api"
)

// ActionNames are the permission actions every matrix menu carries.
var ActionNames = []string{"View", "Add", "Edit", "Delete", "Export"}

// failure is an injected one-shot endpoint failure.
type failure struct {
	status  int
	message string
}

// Server is a fake CRM backend.
type Server struct {
	httpServer *httptest.Server
	log        *logrus.Entry

	mu         sync.Mutex
	token      string
	grants     []api.Grant
	modules    []api.Module
	roles      []api.Role
	menus      []api.MenuRecord
	matrices   map[int64][]api.MatrixRow
	unassigned map[int64][]api.ModuleRef
	failures   map[string]failure

	// recorded traffic for assertions
	SaveCalls        [][]api.MatrixUpdate
	AttachCalls      []api.AttachModuleRequest
	PermissionCalls  int
	SidebarCalls     int
	MatrixCalls      int
	RoleListCalls    int
	MenuListCalls    int
}

// New starts a fake backend that accepts the given bearer token. The
// server is shut down automatically when the test finishes.
func New(t *testing.T, token string) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	s := &Server{
		log:        logger.WithField("component", "backendtest"),
		token:      token,
		matrices:   make(map[int64][]api.MatrixRow),
		unassigned: make(map[int64][]api.ModuleRef),
		failures:   make(map[string]failure),
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/permissions", s.handlePermissions).Methods(http.MethodGet)
	r.HandleFunc("/nav/sidebar", s.handleSidebar).Methods(http.MethodGet)
	r.HandleFunc("/role-permissions/matrix/{roleId}", s.handleMatrixGet).Methods(http.MethodGet)
	r.HandleFunc("/role-permissions/matrix/{roleId}", s.handleMatrixSave).Methods(http.MethodPost)
	r.HandleFunc("/role-permissions/unassigned-modules/{roleId}", s.handleUnassigned).Methods(http.MethodGet)
	r.HandleFunc("/role-permissions/add-module", s.handleAttach).Methods(http.MethodPost)
	r.HandleFunc("/roles", s.handleRoles).Methods(http.MethodGet)
	r.HandleFunc("/menus", s.handleMenus).Methods(http.MethodGet)

	s.httpServer = httptest.NewServer(r)
	t.Cleanup(s.httpServer.Close)
	return s
}

// URL returns the backend base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// SeedGrants replaces the grant set returned by /auth/permissions.
func (s *Server) SeedGrants(grants ...api.Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = grants
}

// SeedSidebar replaces the navigation hierarchy.
func (s *Server) SeedSidebar(modules ...api.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules = modules
}

// SeedRoles replaces the role list.
func (s *Server) SeedRoles(roles ...api.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = roles
}

// SeedMenus replaces the flat menu list.
func (s *Server) SeedMenus(menus ...api.MenuRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus = menus
}

// SeedMatrix replaces one role's matrix.
func (s *Server) SeedMatrix(roleID int64, rows ...api.MatrixRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matrices[roleID] = rows
}

// SeedUnassigned replaces one role's unassigned-module list.
func (s *Server) SeedUnassigned(roleID int64, refs ...api.ModuleRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unassigned[roleID] = refs
}

// Matrix returns a role's current matrix fixture.
func (s *Server) Matrix(roleID int64) []api.MatrixRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matrices[roleID]
}

// FailOnce makes the named endpoint fail on its next call.
// Endpoint names: permissions, sidebar, matrix_get, matrix_save,
// unassigned, attach, roles, menus.
func (s *Server) FailOnce(endpoint string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = failure{status: status, message: message}
}

// MatrixMenu builds a matrix menu with all five permission cells,
// permission IDs assigned sequentially from basePermID, all ungranted.
func MatrixMenu(id int64, name, path string, basePermID int64) api.MatrixMenu {
	perms := make(map[string]api.PermissionCell, len(ActionNames))
	for i, action := range ActionNames {
		perms[action] = api.PermissionCell{
			PermissionID: basePermID + int64(i),
			Description:  fmt.Sprintf("%s %s", action, name),
		}
	}
	return api.MatrixMenu{ID: id, Name: name, Path: path, Permissions: perms}
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	want := "Bearer " + s.token
	if s.token == "" || r.Header.Get("Authorization") != want {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		return false
	}
	return true
}

func (s *Server) failInjected(w http.ResponseWriter, endpoint string) bool {
	if f, ok := s.failures[endpoint]; ok {
		delete(s.failures, endpoint)
		writeJSON(w, f.status, map[string]string{"error": f.message})
		return true
	}
	return false
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PermissionCalls++
	if s.failInjected(w, "permissions") || !s.authorize(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, api.PermissionsResponse{Permissions: s.grants})
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SidebarCalls++
	if s.failInjected(w, "sidebar") || !s.authorize(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, api.SidebarResponse{Modules: s.modules})
}

func (s *Server) handleMatrixGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MatrixCalls++
	if s.failInjected(w, "matrix_get") || !s.authorize(w, r) {
		return
	}
	roleID := pathRoleID(r)
	writeJSON(w, http.StatusOK, api.MatrixResponse{Matrix: s.matrices[roleID]})
}

func (s *Server) handleMatrixSave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInjected(w, "matrix_save") || !s.authorize(w, r) {
		return
	}

	var req api.SaveMatrixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.SaveCalls = append(s.SaveCalls, req.Updates)

	// apply updates so a re-fetch reflects the committed state
	roleID := pathRoleID(r)
	for _, u := range req.Updates {
		s.applyUpdate(roleID, u)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) applyUpdate(roleID int64, u api.MatrixUpdate) {
	rows := s.matrices[roleID]
	for ri, row := range rows {
		if row.Module.ID != u.ModuleID {
			continue
		}
		for mi, menu := range row.Menus {
			if menu.ID != u.MenuID {
				continue
			}
			for action, cell := range menu.Permissions {
				if cell.PermissionID == u.PermissionID {
					cell.Granted = u.Granted
					rows[ri].Menus[mi].Permissions[action] = cell
				}
			}
		}
	}
}

func (s *Server) handleUnassigned(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInjected(w, "unassigned") || !s.authorize(w, r) {
		return
	}
	roleID := pathRoleID(r)
	refs := s.unassigned[roleID]
	if refs == nil {
		refs = []api.ModuleRef{}
	}
	writeJSON(w, http.StatusOK, api.UnassignedModulesResponse{Modules: refs})
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInjected(w, "attach") || !s.authorize(w, r) {
		return
	}

	var req api.AttachModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.AttachCalls = append(s.AttachCalls, req)

	// materialize matrix rows for the attached module, nothing granted
	var moduleName string
	for _, refs := range s.unassigned {
		for _, ref := range refs {
			if ref.ID == req.ModuleID {
				moduleName = ref.Name
			}
		}
	}
	row := api.MatrixRow{Module: api.ModuleRef{ID: req.ModuleID, Name: moduleName}}
	basePermID := int64(10000 + 100*req.ModuleID)
	for _, m := range s.menus {
		if m.ModuleID != req.ModuleID {
			continue
		}
		row.Menus = append(row.Menus, MatrixMenu(m.ID, m.Name, m.Path, basePermID))
		basePermID += int64(len(ActionNames))
	}
	s.matrices[req.RoleID] = append(s.matrices[req.RoleID], row)

	// the module is no longer unassigned
	kept := s.unassigned[req.RoleID][:0]
	for _, ref := range s.unassigned[req.RoleID] {
		if ref.ID != req.ModuleID {
			kept = append(kept, ref)
		}
	}
	s.unassigned[req.RoleID] = kept

	writeJSON(w, http.StatusOK, map[string]string{"status": "attached"})
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RoleListCalls++
	if s.failInjected(w, "roles") || !s.authorize(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, api.RolesResponse{Roles: s.roles})
}

func (s *Server) handleMenus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MenuListCalls++
	if s.failInjected(w, "menus") || !s.authorize(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, api.MenusResponse{Menus: s.menus})
}

func pathRoleID(r *http.Request) int64 {
	raw := mux.Vars(r)["roleId"]
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
