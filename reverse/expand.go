package reverse

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
)

// Expand walks every node and edge currently visible in g and resolves it
// down to the level mode calls for, returning the resulting View.
func Expand(g *core.Graph, mode Mode) (View, error) {
	out := View{Nodes: make(map[core.NodeID]struct{}), Edges: make(map[core.EdgeID]struct{})}
	for _, nid := range g.Nodes() {
		if err := expandNode(g, nid, mode, &out); err != nil {
			return View{}, err
		}
	}
	for _, eid := range g.Edges() {
		if err := expandEdge(g, eid, mode, &out); err != nil {
			return View{}, err
		}
	}
	return out, nil
}

// ExpandNode expands a single node (typically an MLCycle, when reporting
// one task's own subgraph) rather than the whole graph.
func ExpandNode(g *core.Graph, nid core.NodeID, mode Mode) (View, error) {
	out := View{Nodes: make(map[core.NodeID]struct{}), Edges: make(map[core.EdgeID]struct{})}
	if err := expandNode(g, nid, mode, &out); err != nil {
		return View{}, err
	}
	return out, nil
}

func expandNode(g *core.Graph, nid core.NodeID, mode Mode, out *View) error {
	if _, done := out.Nodes[nid]; done {
		return nil
	}
	n, ok := g.ArchivedNode(nid)
	if !ok {
		return fmt.Errorf("reverse: node %d: %w", nid, core.ErrNodeNotFound)
	}

	switch n.Kind() {
	case core.NodeControl, core.NodeImaginary:
		out.Nodes[nid] = struct{}{}
		return nil
	case core.NodeMLCycle:
		if mode == UpToTask {
			out.Nodes[nid] = struct{}{}
			return nil
		}
	case core.NodeVirtual:
		// always expanded, in both modes
	}

	for _, cid := range core.SortedNodeIDs(n.Subgraph()) {
		if err := expandNode(g, cid, mode, out); err != nil {
			return err
		}
	}
	for _, eid := range core.SortedEdgeIDs(n.SubEdges()) {
		if err := expandEdge(g, eid, mode, out); err != nil {
			return err
		}
	}
	return nil
}

func expandEdge(g *core.Graph, eid core.EdgeID, mode Mode, out *View) error {
	if _, done := out.Edges[eid]; done {
		return nil
	}
	e, ok := g.ArchivedEdge(eid)
	if !ok {
		return fmt.Errorf("reverse: edge %d: %w", eid, core.ErrEdgeNotFound)
	}
	if e.Kind() != core.EdgeVirtual {
		out.Edges[eid] = struct{}{}
		return nil
	}
	// In UpToTask mode a Virtual edge touching a kept-opaque MLCycle is
	// that task's boundary edge, not internal structure — keep it as-is
	// rather than resolving past the task's edge.
	if mode == UpToTask && (isMLCycle(g, e.Src()) || isMLCycle(g, e.Snk())) {
		out.Edges[eid] = struct{}{}
		return nil
	}
	for _, under := range core.SortedEdgeIDs(e.Underlying()) {
		if err := expandEdge(g, under, mode, out); err != nil {
			return err
		}
	}
	return nil
}

func isMLCycle(g *core.Graph, nid core.NodeID) bool {
	n, ok := g.ArchivedNode(nid)
	return ok && n.Kind() == core.NodeMLCycle
}
