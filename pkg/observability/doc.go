// Package observability provides structured logging and Prometheus metrics
// for the console SDK.
//
// # Overview
//
// This package centralizes the SDK's observability infrastructure: JSON
// structured logging and metrics describing permission checks, permission
// refreshes, navigation rebuilds, and matrix saves.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.Info("permission store initialized")
//
// Context-aware logging:
//
//	logger.WithField("role_id", roleID).WithError(err).Error("matrix save failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.PermissionChecksTotal.WithLabelValues("View", "allowed").Inc()
//	metrics.PermissionRefreshesTotal.WithLabelValues("success").Inc()
//
// # Related Packages
//
//   - pkg/permissions: Records check and refresh metrics
//   - pkg/matrix: Records save metrics
package observability
