package pipeline

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// collectWarnings gathers the three §7 warning kinds (FunctionDead,
// ExitEdgeNotExercised, BlockLookupAmbiguous), none of which abort a run.
// It runs once after segmentation, reading only data classify/virtualize
// already exported (Returns records, block histories), rather than adding
// warning plumbing to those packages' hot paths.
func collectWarnings(g *core.Graph, prov ir.Provider, callers ir.BlockCallers) []string {
	var out []string
	out = append(out, deadFunctionWarnings(g, prov)...)
	out = append(out, exitEdgeWarnings(g)...)
	out = append(out, ambiguousBlockWarnings(g)...)
	return out
}

// deadFunctionWarnings flags every IR function whose entry block never
// produced a Control node anywhere in the archived graph — it was declared
// but never observed executing.
func deadFunctionWarnings(g *core.Graph, prov ir.Provider) []string {
	observed := make(map[ir.BlockID]struct{})
	for _, nid := range allNodeIDs(g) {
		n, ok := g.ArchivedNode(nid)
		if !ok || n.Kind() != core.NodeControl {
			continue
		}
		for b := range n.Blocks() {
			observed[b] = struct{}{}
		}
	}
	var out []string
	for _, fn := range prov.Functions() {
		if _, ok := observed[fn.Entry]; !ok {
			out = append(out, fmt.Sprintf("FunctionDead: function %d (%s) never observed executing", fn.ID, fn.Name))
		}
	}
	return out
}

// exitEdgeWarnings flags every Call edge whose Returns record found a
// static exit (a ret/resume terminator in the callee) that was never
// matched to an observed dynamic return — the callee returned in a way
// the profile never exercised from this call site.
func exitEdgeWarnings(g *core.Graph) []string {
	var out []string
	for _, eid := range allEdgeIDs(g) {
		e, ok := g.ArchivedEdge(eid)
		if !ok || e.Kind() != core.EdgeCall {
			continue
		}
		rets := e.Returns()
		for _, se := range core.SortedNodeIDs(rets.StaticExits) {
			if _, exercised := rets.DynamicExits[se]; !exercised {
				out = append(out, fmt.Sprintf(
					"ExitEdgeNotExercised: call edge %d static exit node %d never matched a dynamic return", eid, se))
			}
		}
	}
	return out
}

// ambiguousBlockWarnings flags every BlockID that resolves to more than
// one Control node — only possible at Markov order > 1, where a block can
// appear as the newest element of several distinct history tuples.
func ambiguousBlockWarnings(g *core.Graph) []string {
	byBlock := make(map[ir.BlockID][]core.NodeID)
	for _, nid := range allNodeIDs(g) {
		n, ok := g.ArchivedNode(nid)
		if !ok || n.Kind() != core.NodeControl {
			continue
		}
		hist := n.OriginalBlocks()
		if len(hist) == 0 {
			continue
		}
		last := hist[len(hist)-1]
		byBlock[last] = append(byBlock[last], nid)
	}
	var out []string
	for b, nids := range byBlock {
		if len(nids) > 1 {
			out = append(out, fmt.Sprintf("BlockLookupAmbiguous: block %d resolves to %d distinct history nodes", b, len(nids)))
		}
	}
	return out
}

func allNodeIDs(g *core.Graph) []core.NodeID {
	return append(g.Nodes(), g.ArchivedNodeIDs()...)
}

func allEdgeIDs(g *core.Graph) []core.EdgeID {
	return append(g.Edges(), g.ArchivedEdgeIDs()...)
}
