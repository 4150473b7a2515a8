package transform

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
)

// Options tunes the fixpoint loop's thresholds. Field names mirror
// config.Config, which resolves these from a validated, user-supplied
// struct rather than the hard-coded constants the design notes flag as an
// open question.
type Options struct {
	// MinAnchor is the low-frequency-loop hotness floor (design notes:
	// MIN_ANCHOR, defaulting to 16).
	MinAnchor uint64
	// MaxBottleneckSize bounds the general-bottleneck sweep (design notes:
	// MAX_BOTTLENECK_SIZE, defaulting to 200).
	MaxBottleneckSize int
	// SegmentationMode relaxes the probability-sum invariant the
	// invariant package checks between passes, per 4.5 step 5 ("re-apply
	// stage 4 in segmentation mode"). transform itself never inspects
	// this; it is threaded through so invariant checks run by the caller
	// between Run calls know which mode applied.
	SegmentationMode bool
}

// DefaultOptions returns the thresholds named in the design notes.
func DefaultOptions() Options {
	return Options{MinAnchor: 16, MaxBottleneckSize: 200}
}

// Run applies the five transforms plus Kirchhoff balancing to g in a
// fixpoint loop that exits once a full pass makes no change. Each
// transform's own candidate search silently skips subgraphs that fail a
// structural check; Run only returns an error if a graph mutation itself
// fails, which signals a programming error rather than "transform not
// applicable."
func Run(g *core.Graph, opts Options) error {
	maxBottleneck := opts.MaxBottleneckSize
	if maxBottleneck <= 0 {
		maxBottleneck = DefaultOptions().MaxBottleneckSize
	}

	for {
		changed := false

		c, err := trivialMergePass(g)
		if err != nil {
			return fmt.Errorf("transform: trivial merge: %w", err)
		}
		changed = changed || c

		c, err = branchToSelectPass(g)
		if err != nil {
			return fmt.Errorf("transform: branch-to-select: %w", err)
		}
		changed = changed || c

		c, err = bottleneckPass(g, maxBottleneck)
		if err != nil {
			return fmt.Errorf("transform: general bottleneck: %w", err)
		}
		changed = changed || c

		c, err = lowFrequencyLoopPass(g, opts.MinAnchor)
		if err != nil {
			return fmt.Errorf("transform: low-frequency loop: %w", err)
		}
		changed = changed || c

		c, err = kirchhoffBalance(g)
		if err != nil {
			return fmt.Errorf("transform: kirchhoff balancing: %w", err)
		}
		changed = changed || c

		if !changed {
			return nil
		}
	}
}
