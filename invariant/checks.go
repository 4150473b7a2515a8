package invariant

import "github.com/opcycle/taskgraph/core"

// Options configures which of the phase-dependent checks CheckAll runs.
type Options struct {
	// Transform names the most recently applied transform, carried into
	// any ViolationError for debugging context.
	Transform string
	// SegmentationMode selects the conservation check (property 2) in
	// place of the probability-sum check (property 3): while the cycle
	// segmenter is still discovering tasks, successor weights are
	// deliberately not required to sum to 1.
	SegmentationMode bool
	// ProbabilitySumEpsilon is the tolerance CheckProbabilitySum allows.
	ProbabilitySumEpsilon float64
}

// CheckAll runs every invariant appropriate to the current phase, in
// cheapest-first order, stopping at the first violation.
func CheckAll(g *core.Graph, opts Options) error {
	if err := CheckOrphanEdges(g, opts.Transform); err != nil {
		return err
	}
	if err := CheckReachability(g, opts.Transform); err != nil {
		return err
	}
	if opts.SegmentationMode {
		if err := CheckConservation(g, opts.Transform); err != nil {
			return err
		}
	} else if err := CheckProbabilitySum(g, opts.Transform, opts.ProbabilitySumEpsilon); err != nil {
		return err
	}
	return CheckTaskNesting(g, opts.Transform)
}
