// Package telemetry wraps the OpenTelemetry metric instruments the
// pipeline reports against: node/edge creation counts, per-stage
// wall-clock duration, and transform-application counts by kind. It is
// purely observational — nothing it records feeds back into the
// analysis — so an exporter failure never affects a run's result.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("taskgraph")

// Recorder holds the instruments a pipeline run records against.
type Recorder struct {
	nodesCreated     metric.Int64Counter
	edgesCreated     metric.Int64Counter
	stageLatency     metric.Float64Histogram
	transformApplied metric.Int64Counter
}

// NewRecorder builds a Recorder against the process-global MeterProvider.
// Instrument-creation errors are folded into the returned error rather
// than panicking, since a misconfigured exporter shouldn't crash a run.
func NewRecorder() (*Recorder, error) {
	nodesCreated, err := meter.Int64Counter("taskgraph_nodes_created_total",
		metric.WithDescription("Nodes created across all pipeline stages"))
	if err != nil {
		return nil, err
	}
	edgesCreated, err := meter.Int64Counter("taskgraph_edges_created_total",
		metric.WithDescription("Edges created across all pipeline stages"))
	if err != nil {
		return nil, err
	}
	stageLatency, err := meter.Float64Histogram("taskgraph_stage_duration_seconds",
		metric.WithDescription("Wall-clock duration of each pipeline stage"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	transformApplied, err := meter.Int64Counter("taskgraph_transform_applications_total",
		metric.WithDescription("Number of times each CFG-rewriter transform fired"))
	if err != nil {
		return nil, err
	}
	return &Recorder{
		nodesCreated:     nodesCreated,
		edgesCreated:     edgesCreated,
		stageLatency:     stageLatency,
		transformApplied: transformApplied,
	}, nil
}

// RecordGraphSize adds the node/edge counts a stage created.
func (r *Recorder) RecordGraphSize(ctx context.Context, stage string, nodes, edges int) {
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	r.nodesCreated.Add(ctx, int64(nodes), attrs)
	r.edgesCreated.Add(ctx, int64(edges), attrs)
}

// RecordStageDuration records how long a stage took to run.
func (r *Recorder) RecordStageDuration(ctx context.Context, stage string, d time.Duration) {
	r.stageLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordTransform increments the application count for a named transform.
func (r *Recorder) RecordTransform(ctx context.Context, transform string) {
	r.transformApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("transform", transform)))
}
