package invariant

import (
	"fmt"
	"math"

	"github.com/opcycle/taskgraph/core"
)

// CheckProbabilitySum verifies property 3: outside segmentation mode,
// every node with Conditional successors has weights summing to 1 within
// epsilon. Only Conditional successor weights are summed: Unconditional and
// Imaginary edges carry no weight, and the weights of Call/Return/Virtual
// successor edges are not counted either. A node with no Conditional
// successors trivially passes.
func CheckProbabilitySum(g *core.Graph, transform string, epsilon float64) error {
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if !ok || n.Kind() == core.NodeImaginary {
			continue
		}
		var sum float64
		var any bool
		for _, eid := range g.Successors(nid) {
			e, ok := g.Edge(eid)
			if !ok || e.Kind() != core.EdgeConditional {
				continue
			}
			any = true
			sum += float64(e.Weight())
		}
		if !any {
			continue
		}
		if math.Abs(1-sum) >= epsilon {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: node %d sums to %v", ErrNonUnitProbabilitySum, nid, sum)}
		}
	}
	return nil
}

// CheckConservation verifies property 2, meaningful only in segmentation
// mode (the CFG rewriter otherwise keeps flow conserved by construction):
// for every non-Imaginary node, the incoming and outgoing frequency totals
// differ by at most 1. A node touching a program-entry/exit Imaginary edge,
// directly or through a Virtual edge that wraps one, is skipped: the
// Imaginary edge is an unweighted structural anchor, not a measurement of
// real flow, so the node's true boundary traffic is not fully represented
// on that side.
func CheckConservation(g *core.Graph, transform string) error {
	var isAnchor func(e *core.Edge) bool
	isAnchor = func(e *core.Edge) bool {
		if e.Kind() == core.EdgeImaginary {
			return true
		}
		for u := range e.Underlying() {
			if ue, ok := g.ArchivedEdge(u); ok && isAnchor(ue) {
				return true
			}
		}
		return false
	}
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if !ok || n.Kind() == core.NodeImaginary {
			continue
		}
		var in, out uint64
		var touchesAnchor bool
		for _, eid := range g.Predecessors(nid) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if isAnchor(e) {
				touchesAnchor = true
				continue
			}
			in += e.Freq()
		}
		for _, eid := range g.Successors(nid) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if isAnchor(e) {
				touchesAnchor = true
				continue
			}
			out += e.Freq()
		}
		if touchesAnchor {
			continue
		}
		diff := int64(in) - int64(out)
		if diff < -1 || diff > 1 {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: node %d has in=%d out=%d", ErrFlowNotConserved, nid, in, out)}
		}
	}
	return nil
}
