package segment

import "github.com/opcycle/taskgraph/core"

// reviseHierarchy revokes any outermost MLCycle with at least two child
// tasks where every child is itself a hierarchy (has at least one child of
// its own), unless the parent has at least minChildKernelException
// children. taskNode resolves a child TaskID to the NodeID it was created
// with, live or since archived.
//
// Revoking a node exposes its former children as outermost in turn, so the
// pass repeats until a full sweep revokes nothing.
func reviseHierarchy(g *core.Graph, taskNode map[core.TaskID]core.NodeID, minChildKernelException int) error {
	for {
		changed := false
		for _, nid := range g.Nodes() {
			n, ok := g.Node(nid)
			if !ok || n.Kind() != core.NodeMLCycle {
				continue
			}
			if !isRevocable(g, n, taskNode, minChildKernelException) {
				continue
			}
			if err := revokeMLCycle(g, n, taskNode); err != nil {
				return err
			}
			changed = true
		}
		if !changed {
			return nil
		}
	}
}

// isRevocable reports whether n has at least two children, all of them
// themselves hierarchies, and fewer children than the kernel exception
// threshold.
func isRevocable(g *core.Graph, n *core.Node, taskNode map[core.TaskID]core.NodeID, minChildKernelException int) bool {
	children := n.Children()
	if len(children) < 2 || len(children) >= minChildKernelException {
		return false
	}
	for kid := range children {
		cnid, ok := taskNode[kid]
		if !ok {
			return false
		}
		cn, ok := g.ArchivedNode(cnid)
		if !ok || cn.Kind() != core.NodeMLCycle || len(cn.Children()) == 0 {
			return false
		}
	}
	return true
}

// revokeMLCycle expands n back into its subgraph: the reverse of
// virtualizeCycle. It restores n's archived nodes and interior edges,
// reconnects each boundary VirtualEdge's wrapped original edge in place of
// the wrapper, detaches n from its children's Parents bookkeeping, and
// finally removes n itself.
func revokeMLCycle(g *core.Graph, n *core.Node, taskNode map[core.TaskID]core.NodeID) error {
	for _, nid := range core.SortedNodeIDs(n.Subgraph()) {
		if err := g.RestoreNode(nid); err != nil {
			return err
		}
	}
	for _, eid := range core.SortedEdgeIDs(n.SubEdges()) {
		if err := g.RestoreEdge(eid); err != nil {
			return err
		}
	}

	boundary := append(append([]core.EdgeID{}, g.Predecessors(n.ID())...), g.Successors(n.ID())...)
	renormalize := make(map[core.NodeID]struct{})
	for _, wid := range boundary {
		we, ok := g.Edge(wid)
		if !ok {
			continue
		}
		for _, orig := range core.SortedEdgeIDs(we.Underlying()) {
			if err := g.RestoreEdge(orig); err != nil {
				return err
			}
		}
		if we.Src() != n.ID() {
			renormalize[we.Src()] = struct{}{}
		}
		if err := g.RemoveEdge(wid); err != nil {
			return err
		}
	}

	for kid := range n.Children() {
		if cnid, ok := taskNode[kid]; ok {
			if cn, ok := g.ArchivedNode(cnid); ok {
				delete(cn.Parents(), n.TaskID())
			}
		}
	}

	if err := g.RemoveNode(n.ID()); err != nil {
		return err
	}
	for _, src := range core.SortedNodeIDs(renormalize) {
		g.NormalizeOutgoingWeights(src)
	}
	return nil
}
