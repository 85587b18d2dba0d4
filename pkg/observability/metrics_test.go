package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	require.NotNil(t, m)

	m.PermissionChecksTotal.WithLabelValues("View", "allowed").Inc()
	m.PermissionDenialsTotal.WithLabelValues("Delete").Inc()
	m.GrantsLoaded.Set(12)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PermissionChecksTotal.WithLabelValues("View", "allowed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PermissionDenialsTotal.WithLabelValues("Delete")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.GrantsLoaded))
}

func TestNopMetricsIsolated(t *testing.T) {
	a := NopMetrics()
	b := NopMetrics()

	a.NavigationRebuildsTotal.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.NavigationRebuildsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.NavigationRebuildsTotal))
}
