// Package api provides the typed HTTP client for the CRM backend's
// access-control endpoints.
//
// # Overview
//
// One method per backend endpoint: permission grants, the navigation
// sidebar, role listing, the role-permission matrix (fetch and batch save),
// unassigned modules, module attachment, and the full menu list. All calls
// are context-aware and return wrapped errors; auth failures surface as
// httputil.APIError with 401/403 so callers can fail closed.
//
// Reference data that changes rarely (/roles, /menus) is served from a
// short-lived in-memory cache. Matrix and permission fetches are never
// cached: the matrix editor must always see backend truth.
//
// # Usage
//
//	client := api.NewClient(api.Config{
//		BaseURL:    cfg.API.BaseURL,
//		HTTPClient: &http.Client{Transport: transport, Timeout: cfg.API.Timeout},
//	})
//	grants, err := client.Permissions(ctx)
package api
