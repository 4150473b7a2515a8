package segment

import "github.com/opcycle/taskgraph/transform"

// Options tunes the segmenter and the transform re-application it drives
// between rounds. Field names mirror config.Config.
type Options struct {
	// MinAnchor is the hotness floor a candidate task must clear.
	MinAnchor uint64
	// MinChildKernelException exempts an outermost MLCycle with at least
	// this many child tasks from hierarchy-sanity revocation.
	MinChildKernelException int
	// Transform configures the CFG-rewriter pass re-applied after each
	// round of virtualization; SegmentationMode should be true.
	Transform transform.Options
}

// DefaultOptions returns the thresholds named in the design notes, with
// Transform.SegmentationMode set for the re-application between rounds.
func DefaultOptions() Options {
	t := transform.DefaultOptions()
	t.SegmentationMode = true
	return Options{
		MinAnchor:               16,
		MinChildKernelException: 5,
		Transform:               t,
	}
}
