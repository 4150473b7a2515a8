package classify

import (
	"github.com/opcycle/taskgraph/callgraph"
	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// removeFakeRecursion deletes Call edges that are artifacts of profile
// linearization rather than real calls: a dead function's trace tail
// happens to abut a live function's entry, which looks like a tail self-call
// when the two blocks are adjacent in the trace. A genuine call site never
// originates from a block that itself ends in ret/resume, so any Call edge
// whose source block does is suspect — unless the callee is known to
// actually recurse, in which case the adjacency is real.
func removeFakeRecursion(g *core.Graph, prov ir.Provider) error {
	cg, err := callgraph.Build(g, prov)
	if err != nil {
		return err
	}

	var toDelete []core.EdgeID
	touched := make(map[core.NodeID]struct{})

	for _, eid := range g.Edges() {
		e, _ := g.Edge(eid)
		if e.Kind() != core.EdgeCall {
			continue
		}
		rets := e.Returns()
		srcNode, ok := g.Node(e.Src())
		if !ok || !blockEndsInReturn(prov, srcNode) {
			continue
		}
		if cg.DirectRecursion(rets.FunctionID) {
			continue
		}
		toDelete = append(toDelete, eid)
		touched[e.Src()] = struct{}{}
	}

	for _, eid := range toDelete {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		rets := e.Returns()
		// StaticRets carry no live edge to remove — they're bookkeeping only.
		for ret := range rets.DynamicRets {
			_ = g.RemoveEdge(ret)
		}
		if err := g.RemoveEdge(eid); err != nil {
			return err
		}
	}

	for nid := range touched {
		g.NormalizeOutgoingWeights(nid)
	}
	return nil
}

func blockEndsInReturn(prov ir.Provider, n *core.Node) bool {
	if n.Kind() != core.NodeControl {
		return false
	}
	for b := range n.Blocks() {
		blk, ok := prov.Block(b)
		if !ok {
			continue
		}
		for _, instr := range blk.Instructions {
			if instr.Opcode == ir.OpRet || instr.Opcode == ir.OpResume {
				return true
			}
		}
	}
	return false
}
