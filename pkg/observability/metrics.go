package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the console SDK
type Metrics struct {
	// Permission metrics
	PermissionChecksTotal    *prometheus.CounterVec
	PermissionDenialsTotal   *prometheus.CounterVec
	PermissionRefreshesTotal *prometheus.CounterVec
	GrantsLoaded             prometheus.Gauge

	// Navigation metrics
	NavigationRebuildsTotal prometheus.Counter
	VisibleMenusGauge       prometheus.Gauge

	// Matrix editor metrics
	MatrixSavesTotal     *prometheus.CounterVec
	MatrixSaveDuration   prometheus.Histogram
	PendingChangesGauge  prometheus.Gauge
	ModuleAttachesTotal  *prometheus.CounterVec

	// Backend client metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		PermissionChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_permission_checks_total",
				Help: "Total number of permission checks",
			},
			[]string{"action", "result"},
		),
		PermissionDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_permission_denials_total",
				Help: "Total number of denied action invocations",
			},
			[]string{"action"},
		),
		PermissionRefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_permission_refreshes_total",
				Help: "Total number of permission set refreshes",
			},
			[]string{"result"},
		),
		GrantsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_grants_loaded",
				Help: "Number of permission grants currently held",
			},
		),
		NavigationRebuildsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_navigation_rebuilds_total",
				Help: "Total number of navigation tree rebuilds",
			},
		),
		VisibleMenusGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_visible_menus",
				Help: "Number of menus visible after permission filtering",
			},
		),
		MatrixSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_matrix_saves_total",
				Help: "Total number of matrix batch save attempts",
			},
			[]string{"result"},
		),
		MatrixSaveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "console_matrix_save_duration_seconds",
				Help:    "Matrix batch save duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		PendingChangesGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_matrix_pending_changes",
				Help: "Number of staged, uncommitted matrix edits",
			},
		),
		ModuleAttachesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_module_attaches_total",
				Help: "Total number of module attach attempts",
			},
			[]string{"result"},
		),
		BackendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_backend_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		BackendRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_backend_request_duration_seconds",
				Help:    "Backend API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}

	registry.MustRegister(
		m.PermissionChecksTotal,
		m.PermissionDenialsTotal,
		m.PermissionRefreshesTotal,
		m.GrantsLoaded,
		m.NavigationRebuildsTotal,
		m.VisibleMenusGauge,
		m.MatrixSavesTotal,
		m.MatrixSaveDuration,
		m.PendingChangesGauge,
		m.ModuleAttachesTotal,
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
	)

	return m
}

// NopMetrics returns metrics registered against a throwaway registry.
// Useful for tests and callers that do not scrape.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
