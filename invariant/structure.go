package invariant

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
)

// CheckOrphanEdges verifies that every live edge's source and sink resolve
// to a live node — a transform that removes a node without rewiring or
// removing its incident edges would otherwise leave a dangling reference.
func CheckOrphanEdges(g *core.Graph, transform string) error {
	for _, eid := range g.Edges() {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		if _, ok := g.Node(e.Src()); !ok {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: edge %d source %d", ErrOrphanEdge, eid, e.Src())}
		}
		if _, ok := g.Node(e.Snk()); !ok {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: edge %d sink %d", ErrOrphanEdge, eid, e.Snk())}
		}
	}
	return nil
}

// CheckTaskNesting verifies property 5 over every live (necessarily
// outermost — a task absorbed into another is archived) MLCycle node: its
// own Parents/Children sets are disjoint, its Children set agrees exactly
// with the MLCycle nodes actually nested in its subgraph, each nested
// child's Parents set names it back, and the parent/child relation
// followed transitively never returns to its start.
func CheckTaskNesting(g *core.Graph, transform string) error {
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if !ok || n.Kind() != core.NodeMLCycle {
			continue
		}
		if err := checkTaskSubtree(g, n, nil, transform); err != nil {
			return err
		}
	}
	return nil
}

func checkTaskSubtree(g *core.Graph, n *core.Node, ancestors map[core.TaskID]struct{}, transform string) error {
	tid := n.TaskID()
	if _, cyclic := ancestors[tid]; cyclic {
		return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: task %d", ErrTaskHierarchyCycle, tid)}
	}
	for cid := range n.Children() {
		if _, also := n.Parents()[cid]; also {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: task %d lists %d as both parent and child", ErrTaskBookkeepingMismatch, tid, cid)}
		}
	}

	remaining := make(map[core.TaskID]struct{}, len(n.Children()))
	for cid := range n.Children() {
		remaining[cid] = struct{}{}
	}

	nested := make(map[core.TaskID]struct{}, len(ancestors)+1)
	for k := range ancestors {
		nested[k] = struct{}{}
	}
	nested[tid] = struct{}{}

	for _, sid := range core.SortedNodeIDs(n.Subgraph()) {
		cn, ok := g.ArchivedNode(sid)
		if !ok || cn.Kind() != core.NodeMLCycle {
			continue
		}
		ctid := cn.TaskID()
		if _, listed := n.Children()[ctid]; !listed {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: task %d's subgraph contains unlisted child %d", ErrTaskBookkeepingMismatch, tid, ctid)}
		}
		if _, hasParent := cn.Parents()[tid]; !hasParent {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: child task %d missing parent %d", ErrTaskBookkeepingMismatch, ctid, tid)}
		}
		delete(remaining, ctid)
		if err := checkTaskSubtree(g, cn, nested, transform); err != nil {
			return err
		}
	}
	if len(remaining) != 0 {
		return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: task %d lists child(ren) absent from its subgraph", ErrTaskBookkeepingMismatch, tid)}
	}
	return nil
}
