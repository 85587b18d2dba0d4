package api

// Grant is one (menu, action) right held by the current subject.
type Grant struct {
	Path       string `json:"path"`
	Permission string `json:"permission"`
	Module     string `json:"module"`
}

// PermissionsResponse is the payload of GET /auth/permissions.
type PermissionsResponse struct {
	Permissions []Grant `json:"permissions"`
}

// Menu is a routable navigation entry, possibly with one level of children.
type Menu struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Children []Menu `json:"children,omitempty"`
}

// Module is a top-level navigation grouping.
type Module struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Menus []Menu `json:"menus"`
}

// SidebarResponse is the payload of GET /nav/sidebar. The tree is the full
// possible navigation surface; it is not permission-filtered server-side.
type SidebarResponse struct {
	Modules []Module `json:"modules"`
}

// ModuleRef identifies a module without its menu tree.
type ModuleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PermissionCell is one grantable permission row in the matrix.
type PermissionCell struct {
	PermissionID int64  `json:"permission_id"`
	Granted      bool   `json:"granted"`
	Description  string `json:"description"`
}

// MatrixMenu is one menu's permission set within the matrix.
type MatrixMenu struct {
	ID          int64                     `json:"id"`
	Name        string                    `json:"name"`
	Path        string                    `json:"path"`
	Permissions map[string]PermissionCell `json:"permissions"`
}

// MatrixRow groups one module's menus in the matrix.
type MatrixRow struct {
	Module ModuleRef    `json:"module"`
	Menus  []MatrixMenu `json:"menus"`
}

// MatrixResponse is the payload of GET /role-permissions/matrix/{roleId}.
type MatrixResponse struct {
	Matrix []MatrixRow `json:"matrix"`
}

// MatrixUpdate is one cell change in a batch save.
type MatrixUpdate struct {
	ModuleID     int64 `json:"module_id"`
	MenuID       int64 `json:"menu_id"`
	PermissionID int64 `json:"permission_id"`
	Granted      bool  `json:"granted"`
}

// SaveMatrixRequest is the body of POST /role-permissions/matrix/{roleId}.
type SaveMatrixRequest struct {
	Updates []MatrixUpdate `json:"updates"`
}

// UnassignedModulesResponse is the payload of
// GET /role-permissions/unassigned-modules/{roleId}.
type UnassignedModulesResponse struct {
	Modules []ModuleRef `json:"modules"`
}

// AttachMenuPermissions lists the permission rows to create for one menu
// when attaching a module. An empty PermissionIDs list creates the rows
// with nothing granted.
type AttachMenuPermissions struct {
	MenuID        int64   `json:"menu_id"`
	PermissionIDs []int64 `json:"permission_ids"`
}

// AttachModuleRequest is the body of POST /role-permissions/add-module.
type AttachModuleRequest struct {
	RoleID      int64                   `json:"role_id"`
	ModuleID    int64                   `json:"module_id"`
	Permissions []AttachMenuPermissions `json:"permissions"`
}

// Role is one assignable role.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// RolesResponse is the payload of GET /roles.
type RolesResponse struct {
	Roles []Role `json:"roles"`
}

// MenuRecord is one entry of the flat menu list, carrying its owning
// module so a module's menu set can be computed when attaching.
type MenuRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	ModuleID int64  `json:"module_id"`
}

// MenusResponse is the payload of GET /menus.
type MenusResponse struct {
	Menus []MenuRecord `json:"menus"`
}
