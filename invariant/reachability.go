package invariant

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
)

// CheckReachability verifies property 4: every live node is reachable
// forward from some program-entry Imaginary node (one with no live
// predecessors) and backward, against edge direction, from some
// program-exit Imaginary node (one with no live successors).
func CheckReachability(g *core.Graph, transform string) error {
	entries, exits := anchors(g)
	if len(entries) == 0 || len(exits) == 0 {
		return &ViolationError{Transform: transform, Err: fmt.Errorf("%w", ErrDisconnectedGraph)}
	}

	fwd := bfs(g, entries, (*core.Graph).Successors, (*core.Edge).Snk)
	bwd := bfs(g, exits, (*core.Graph).Predecessors, (*core.Edge).Src)

	for _, nid := range g.Nodes() {
		if _, ok := fwd[nid]; !ok {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: node %d not reachable from program entry", ErrNodeUnreachable, nid)}
		}
		if _, ok := bwd[nid]; !ok {
			return &ViolationError{Transform: transform, Err: fmt.Errorf("%w: node %d not reachable from program exit", ErrNodeUnreachable, nid)}
		}
	}
	return nil
}

// anchors returns the live Imaginary nodes with no predecessors
// (program-entry anchors) and those with no successors (program-exit
// anchors).
func anchors(g *core.Graph) (entries, exits []core.NodeID) {
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if !ok || n.Kind() != core.NodeImaginary {
			continue
		}
		if len(g.Predecessors(nid)) == 0 {
			entries = append(entries, nid)
		}
		if len(g.Successors(nid)) == 0 {
			exits = append(exits, nid)
		}
	}
	return entries, exits
}

// bfs walks from every seed using edges(g, n) to list the next edges and
// endpoint(e) to pick the neighbor node off each, returning the set of
// every node visited.
func bfs(g *core.Graph, seeds []core.NodeID, edges func(*core.Graph, core.NodeID) []core.EdgeID, endpoint func(*core.Edge) core.NodeID) map[core.NodeID]struct{} {
	visited := make(map[core.NodeID]struct{}, len(seeds))
	queue := append([]core.NodeID{}, seeds...)
	for _, s := range seeds {
		visited[s] = struct{}{}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, eid := range edges(g, n) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			next := endpoint(e)
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited
}
