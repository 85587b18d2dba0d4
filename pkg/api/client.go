package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/cobaltcrm/console/pkg/httputil"
	"github.com/cobaltcrm/console/pkg/observability"
)

const defaultCacheTTL = 30 * time.Second

// Config configures the backend client.
type Config struct {
	// BaseURL is the backend root, e.g. https://crm.example.com
	BaseURL string

	// HTTPClient should carry the httputil.Transport; a default client is
	// used when nil.
	HTTPClient *http.Client

	// CacheTTL bounds the reference-data cache (/roles, /menus).
	CacheTTL time.Duration

	// Logger defaults to the standard logrus logger.
	Logger *logrus.Logger

	// Metrics defaults to an unscraped registry.
	Metrics *observability.Metrics
}

// Client is the typed HTTP client for the CRM backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
	metrics    *observability.Metrics

	// refCache holds /roles and /menus responses only
	refCache *expirable.LRU[string, interface{}]
}

// NewClient creates a backend client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		log:        logger.WithField("component", "api-client"),
		metrics:    metrics,
		refCache:   expirable.NewLRU[string, interface{}](4, nil, ttl),
	}
}

// Permissions fetches the subject's flattened grant list. Never cached.
func (c *Client) Permissions(ctx context.Context) ([]Grant, error) {
	var resp PermissionsResponse
	if err := c.get(ctx, "/auth/permissions", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	return resp.Permissions, nil
}

// Sidebar fetches the full module/menu hierarchy. Never cached: the
// navigation surface is re-fetched on every tree build.
func (c *Client) Sidebar(ctx context.Context) ([]Module, error) {
	var resp SidebarResponse
	if err := c.get(ctx, "/nav/sidebar", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch sidebar: %w", err)
	}
	return resp.Modules, nil
}

// Matrix fetches the role-permission matrix for one role. Never cached:
// the matrix editor must always see backend truth.
func (c *Client) Matrix(ctx context.Context, roleID int64) ([]MatrixRow, error) {
	var resp MatrixResponse
	if err := c.get(ctx, fmt.Sprintf("/role-permissions/matrix/%d", roleID), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch matrix for role %d: %w", roleID, err)
	}
	return resp.Matrix, nil
}

// SaveMatrix commits a batch of cell changes for one role.
func (c *Client) SaveMatrix(ctx context.Context, roleID int64, updates []MatrixUpdate) error {
	body := SaveMatrixRequest{Updates: updates}
	if err := c.post(ctx, fmt.Sprintf("/role-permissions/matrix/%d", roleID), body, nil); err != nil {
		return fmt.Errorf("failed to save matrix for role %d: %w", roleID, err)
	}
	return nil
}

// UnassignedModules fetches the modules with zero menus assigned to the
// role.
func (c *Client) UnassignedModules(ctx context.Context, roleID int64) ([]ModuleRef, error) {
	var resp UnassignedModulesResponse
	if err := c.get(ctx, fmt.Sprintf("/role-permissions/unassigned-modules/%d", roleID), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch unassigned modules for role %d: %w", roleID, err)
	}
	return resp.Modules, nil
}

// AttachModule attaches a module to a role, creating permission rows for
// every listed menu.
func (c *Client) AttachModule(ctx context.Context, req AttachModuleRequest) error {
	if err := c.post(ctx, "/role-permissions/add-module", req, nil); err != nil {
		return fmt.Errorf("failed to attach module %d to role %d: %w", req.ModuleID, req.RoleID, err)
	}
	return nil
}

// Roles lists all roles. Served from the reference-data cache.
func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	if cached, ok := c.refCache.Get("/roles"); ok {
		return cached.([]Role), nil
	}

	var resp RolesResponse
	if err := c.get(ctx, "/roles", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	c.refCache.Add("/roles", resp.Roles)
	return resp.Roles, nil
}

// Menus fetches the full flat menu list. Served from the reference-data
// cache.
func (c *Client) Menus(ctx context.Context) ([]MenuRecord, error) {
	if cached, ok := c.refCache.Get("/menus"); ok {
		return cached.([]MenuRecord), nil
	}

	var resp MenusResponse
	if err := c.get(ctx, "/menus", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch menus: %w", err)
	}
	c.refCache.Add("/menus", resp.Menus)
	return resp.Menus, nil
}

// InvalidateCache drops cached reference data, forcing fresh fetches.
func (c *Client) InvalidateCache() {
	c.refCache.Purge()
}

func (c *Client) get(ctx context.Context, path string, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, dest interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, dest interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequestsTotal.WithLabelValues(method, path, "error").Inc()
		c.log.WithError(err).WithField("path", path).Warn("backend request failed")
		return err
	}
	c.metrics.BackendRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if err := httputil.DecodeJSON(resp, dest); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("backend returned error")
		return err
	}
	return nil
}
