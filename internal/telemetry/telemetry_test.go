package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// withManualReader installs a MeterProvider backed by a manual reader for
// the duration of a test, so recorded instruments can be collected and
// asserted on instead of only checked for panics.
func withManualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })
	return reader
}

func TestNewRecorder_CreatesAllInstruments(t *testing.T) {
	withManualReader(t)
	r, err := NewRecorder()
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestRecordGraphSize_ReportsCounters(t *testing.T) {
	reader := withManualReader(t)
	r, err := NewRecorder()
	require.NoError(t, err)

	r.RecordGraphSize(context.Background(), "classify", 3, 5)

	var out metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &out))

	names := collectInstrumentNames(out)
	assert.Contains(t, names, "taskgraph_nodes_created_total")
	assert.Contains(t, names, "taskgraph_edges_created_total")
}

func TestRecordStageDuration_ReportsHistogram(t *testing.T) {
	reader := withManualReader(t)
	r, err := NewRecorder()
	require.NoError(t, err)

	r.RecordStageDuration(context.Background(), "profile", 10*time.Millisecond)

	var out metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &out))
	assert.Contains(t, collectInstrumentNames(out), "taskgraph_stage_duration_seconds")
}

func TestRecordTransform_ReportsCounter(t *testing.T) {
	reader := withManualReader(t)
	r, err := NewRecorder()
	require.NoError(t, err)

	r.RecordTransform(context.Background(), "trivialMerge")

	var out metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &out))
	assert.Contains(t, collectInstrumentNames(out), "taskgraph_transform_applications_total")
}

func collectInstrumentNames(rm metricdata.ResourceMetrics) []string {
	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}
