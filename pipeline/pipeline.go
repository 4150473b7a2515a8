package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opcycle/taskgraph/callgraph"
	"github.com/opcycle/taskgraph/classify"
	"github.com/opcycle/taskgraph/config"
	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/internal/obslog"
	"github.com/opcycle/taskgraph/internal/telemetry"
	"github.com/opcycle/taskgraph/invariant"
	"github.com/opcycle/taskgraph/ir"
	"github.com/opcycle/taskgraph/kernelio"
	"github.com/opcycle/taskgraph/profile"
	"github.com/opcycle/taskgraph/reverse"
	"github.com/opcycle/taskgraph/segment"
	"github.com/opcycle/taskgraph/transform"
	"github.com/opcycle/taskgraph/virtualize"
)

// Stage names one of the pipeline's boundaries, attached to every error Run
// returns so a caller can decide whether to abort (input/invariant errors)
// or continue past a demoted warning (never happens through this field —
// warnings never reach StageError, they land in Result.Warnings instead).
type Stage string

const (
	StageConfig     Stage = "config"
	StageProfile    Stage = "profile"
	StageClassify   Stage = "classify"
	StageCallgraph  Stage = "callgraph"
	StageVirtualize Stage = "virtualize"
	StageTransform  Stage = "transform"
	StageSegment    Stage = "segment"
	StageInvariant  Stage = "invariant"
	StageKernelIO   Stage = "kernelio"
	StageRoundTrip  Stage = "roundtrip"
)

// StageError names which pipeline boundary produced err, per §7's
// distinction between input errors, invariant violations, and warnings —
// only the first two kinds ever reach here, since a warning is, by
// definition, not fatal.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Config bundles everything a Run call needs beyond the profile and IR
// themselves: the tunable thresholds (config.Config), the auxiliary
// dynamic-observation inputs the classifier needs (classify.Options), and
// the ambient logging/metrics the teacher's service code injects rather
// than hard-wires.
type Config struct {
	Analysis config.Config
	Classify classify.Options
	// ValidBlocks lists every block the kernel-file output should
	// account for (§6 Output JSON "ValidBlocks"); blocks never assigned
	// to a task are reported under NonKernelBlocks.
	ValidBlocks []ir.BlockID

	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
	// Recorder is optional; nil disables metric recording entirely
	// (RecordGraphSize/RecordStageDuration/RecordTransform are no-ops).
	Recorder *telemetry.Recorder
}

// Result is everything a completed Run produced.
type Result struct {
	// RunID correlates this run's kernel file with its log/telemetry
	// trace; distinct from the domain's monotonic NodeID/EdgeID space.
	RunID uuid.UUID
	// Graph is the final, fully segmented graph. Callers wanting a DOT
	// rendering or a reverse.Expand view of a specific task pass this in.
	Graph *core.Graph
	// Document is the §6 kernel output.
	Document kernelio.Document
	// Warnings accumulates every §7 warning encountered (never fatal),
	// also logged at Warn as they're found.
	Warnings []string
}

// Run executes all five stages over the profile read from r against prov,
// returning the discovered tasks as a kernel Document plus the final
// graph. It aborts at the first input error or invariant violation;
// warnings are accumulated into Result.Warnings and never abort the run.
func Run(ctx context.Context, r io.Reader, prov ir.Provider, cfg Config) (*Result, error) {
	log := obslog.New(cfg.Logger)
	runID := uuid.New()

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, stageErr(StageConfig, err)
	}

	pres, err := timedStage(ctx, cfg.Recorder, StageProfile, func() (*profile.Result, error) {
		return profile.Load(r)
	})
	if err != nil {
		return nil, stageErr(StageProfile, err)
	}
	g := pres.Graph
	log.StageDone(string(StageProfile), g)
	recordSize(cfg.Recorder, ctx, StageProfile, g)

	if pres.Header.K != uint32(cfg.Analysis.MarkovOrder) {
		log.Warn(string(StageProfile), "profile markov order does not match configured order",
			slog.Int("configured", cfg.Analysis.MarkovOrder), slog.Int("profile", int(pres.Header.K)))
	}

	if _, err := timedStageErr(ctx, cfg.Recorder, StageClassify, func() error {
		return classify.Run(g, prov, cfg.Classify)
	}); err != nil {
		return nil, stageErr(StageClassify, err)
	}
	log.StageDone(string(StageClassify), g)
	recordSize(cfg.Recorder, ctx, StageClassify, g)

	// §4.6: the post-edge-classifier graph is the round-trip reference
	// point property 1 checks the final graph against.
	postClassifyNodes := nodeIDSet(g)
	postClassifyEdges := edgeIDSet(g)

	ivOpts := invariant.Options{
		Transform:             string(StageClassify),
		ProbabilitySumEpsilon: cfg.Analysis.ProbabilitySumEpsilon,
	}
	if err := invariant.CheckAll(g, ivOpts); err != nil {
		return nil, stageErr(StageInvariant, err)
	}
	startEntropy := kernelio.GraphEntropy(g)

	cg, err := timedStage(ctx, cfg.Recorder, StageCallgraph, func() (*callgraph.Graph, error) {
		return callgraph.Build(g, prov)
	})
	if err != nil {
		return nil, stageErr(StageCallgraph, err)
	}

	if _, err := timedStageErr(ctx, cfg.Recorder, StageVirtualize, func() error {
		return virtualize.Run(g, prov, cg)
	}); err != nil {
		return nil, stageErr(StageVirtualize, err)
	}
	log.StageDone(string(StageVirtualize), g)
	recordSize(cfg.Recorder, ctx, StageVirtualize, g)

	ivOpts.Transform = string(StageVirtualize)
	if err := invariant.CheckAll(g, ivOpts); err != nil {
		return nil, stageErr(StageInvariant, err)
	}

	tOpts := transform.Options{
		MinAnchor:         cfg.Analysis.MinAnchor,
		MaxBottleneckSize: cfg.Analysis.MaxBottleneckSize,
	}
	if _, err := timedStageErr(ctx, cfg.Recorder, StageTransform, func() error {
		return transform.Run(g, tOpts)
	}); err != nil {
		return nil, stageErr(StageTransform, err)
	}
	log.StageDone(string(StageTransform), g)
	recordSize(cfg.Recorder, ctx, StageTransform, g)

	ivOpts.Transform = string(StageTransform)
	if err := invariant.CheckAll(g, ivOpts); err != nil {
		return nil, stageErr(StageInvariant, err)
	}

	sOpts := segment.Options{
		MinAnchor:               cfg.Analysis.MinAnchor,
		MinChildKernelException: cfg.Analysis.MinChildKernelException,
		Transform:               tOpts,
	}
	sOpts.Transform.SegmentationMode = true
	if _, err := timedStageErr(ctx, cfg.Recorder, StageSegment, func() error {
		return segment.Segment(g, sOpts)
	}); err != nil {
		return nil, stageErr(StageSegment, err)
	}
	log.StageDone(string(StageSegment), g)
	recordSize(cfg.Recorder, ctx, StageSegment, g)

	ivOpts.Transform = string(StageSegment)
	ivOpts.SegmentationMode = true
	if err := invariant.CheckAll(g, ivOpts); err != nil {
		return nil, stageErr(StageInvariant, err)
	}
	endEntropy := kernelio.GraphEntropy(g)

	if err := checkRoundTrip(g, postClassifyNodes, postClassifyEdges); err != nil {
		return nil, stageErr(StageRoundTrip, err)
	}

	doc, err := kernelio.Build(g, kernelio.BuildOptions{
		ValidBlocks:  cfg.ValidBlocks,
		BlockCallers: cfg.Classify.BlockCallers,
		Start:        startEntropy,
		End:          endEntropy,
	})
	if err != nil {
		return nil, stageErr(StageKernelIO, err)
	}

	warnings := collectWarnings(g, prov, cfg.Classify.BlockCallers)
	for _, w := range warnings {
		log.Warn("warnings", w)
	}

	return &Result{RunID: runID, Graph: g, Document: doc, Warnings: warnings}, nil
}

// checkRoundTrip verifies §8 property 1: expanding the final graph fully
// must surface exactly the node/edge IDs the post-classify graph had.
func checkRoundTrip(g *core.Graph, wantNodes map[core.NodeID]struct{}, wantEdges map[core.EdgeID]struct{}) error {
	view, err := reverse.Expand(g, reverse.Full)
	if err != nil {
		return err
	}
	if len(view.Nodes) != len(wantNodes) {
		return fmt.Errorf("roundtrip: expanded %d nodes, post-classify graph had %d", len(view.Nodes), len(wantNodes))
	}
	for n := range wantNodes {
		if _, ok := view.Nodes[n]; !ok {
			return fmt.Errorf("roundtrip: node %d missing from full expansion", n)
		}
	}
	if len(view.Edges) != len(wantEdges) {
		return fmt.Errorf("roundtrip: expanded %d edges, post-classify graph had %d", len(view.Edges), len(wantEdges))
	}
	for e := range wantEdges {
		if _, ok := view.Edges[e]; !ok {
			return fmt.Errorf("roundtrip: edge %d missing from full expansion", e)
		}
	}
	return nil
}

func nodeIDSet(g *core.Graph) map[core.NodeID]struct{} {
	out := make(map[core.NodeID]struct{})
	for _, nid := range g.Nodes() {
		out[nid] = struct{}{}
	}
	return out
}

func edgeIDSet(g *core.Graph) map[core.EdgeID]struct{} {
	out := make(map[core.EdgeID]struct{})
	for _, eid := range g.Edges() {
		out[eid] = struct{}{}
	}
	return out
}

func recordSize(r *telemetry.Recorder, ctx context.Context, stage Stage, g *core.Graph) {
	if r == nil {
		return
	}
	r.RecordGraphSize(ctx, string(stage), g.NodeCount(), g.EdgeCount())
}

func timedStage[T any](ctx context.Context, r *telemetry.Recorder, stage Stage, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	if r != nil {
		r.RecordStageDuration(ctx, string(stage), time.Since(start))
	}
	return v, err
}

func timedStageErr(ctx context.Context, r *telemetry.Recorder, stage Stage, fn func() error) (struct{}, error) {
	return timedStage(ctx, r, stage, func() (struct{}, error) { return struct{}{}, fn() })
}
