package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestViewMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	m, err := NewViewMetrics("test")
	require.NoError(t, err)

	ctx := context.Background()
	m.CacheLookup(ctx, "/view", true)
	m.CacheLookup(ctx, "/view", false)
	m.Load(ctx, "/view", "ok")
	m.RenderFailure(ctx, "/view")
	m.RateLimited(ctx, "/view")
	m.RateLimited(ctx, "/view")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumOf(t, rm, "view_cache_lookups_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "view_loads_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "view_render_failures_total"))
	assert.Equal(t, int64(2), sumOf(t, rm, "view_rate_limited_total"))
}

func TestViewMetrics_NilReceiver(t *testing.T) {
	var m *ViewMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.CacheLookup(ctx, "/view", true)
		m.Load(ctx, "/view", "error")
		m.RenderFailure(ctx, "/view")
		m.RateLimited(ctx, "/view")
	})
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disabled: true})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_RequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	assert.Error(t, err)
}

func TestBuildSampler(t *testing.T) {
	assert.Contains(t, buildSampler(0).Description(), "AlwaysOff")
	assert.Contains(t, buildSampler(1).Description(), "AlwaysOn")
	assert.Contains(t, buildSampler(0.5).Description(), "ParentBased")
}
