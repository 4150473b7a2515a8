package segment

import (
	"fmt"
	"sort"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/transform"
)

// Segment discovers tasks in g, which must already be at CFG-rewriter
// fixpoint. It repeats candidate enumeration, selection, and
// virtualization until no new task is accepted, re-running the rewriter
// in segmentation mode after each round, then runs the hierarchy-sanity
// revocation pass.
func Segment(g *core.Graph, opts Options) error {
	nextTask := taskIDAllocator(g)
	accepted := make(map[uint64]struct{})
	taskNode := make(map[core.TaskID]core.NodeID)
	for _, nid := range g.Nodes() {
		if n, ok := g.Node(nid); ok && n.Kind() == core.NodeMLCycle {
			taskNode[n.TaskID()] = nid
		}
	}

	for {
		candidates := enumerateCandidates(g, opts.MinAnchor)
		round := selectRound(candidates, accepted)
		if len(round) == 0 {
			break
		}

		for _, c := range round {
			accepted[c.sig] = struct{}{}
			kid := nextTask()
			node, err := virtualizeCycle(g, kid, c)
			if err != nil {
				return fmt.Errorf("segment: virtualize cycle: %w", err)
			}
			taskNode[kid] = node.ID()
		}

		if err := transform.Run(g, opts.Transform); err != nil {
			return fmt.Errorf("segment: re-applying transforms: %w", err)
		}
	}

	return reviseHierarchy(g, taskNode, opts.MinChildKernelException)
}

// taskIDAllocator returns a function producing fresh, strictly increasing
// TaskIDs, seeded past every live MLCycle node's TaskID so a Segment call
// over a graph that already contains tasks never collides with them.
func taskIDAllocator(g *core.Graph) func() core.TaskID {
	var max core.TaskID
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if ok && n.Kind() == core.NodeMLCycle && n.TaskID() > max {
			max = n.TaskID()
		}
	}
	next := max
	return func() core.TaskID {
		next++
		return next
	}
}

// selectRound filters out candidates whose signature was already accepted
// in an earlier round, then greedily keeps the best candidate from every
// cluster of candidates that share a node: lowest entrance-plus-exit count
// first, ties broken toward the lower recurrence probability (higher
// cost), remaining ties broken by pivot ID for determinism.
func selectRound(candidates []candidate, accepted map[uint64]struct{}) []candidate {
	var fresh []candidate
	for _, c := range candidates {
		if _, done := accepted[c.sig]; !done {
			fresh = append(fresh, c)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		a, b := fresh[i], fresh[j]
		if a.entranceExitCount() != b.entranceExitCount() {
			return a.entranceExitCount() < b.entranceExitCount()
		}
		if a.cost != b.cost {
			return a.cost > b.cost // higher cost == lower probability
		}
		return a.pivot < b.pivot
	})

	claimed := make(map[core.NodeID]struct{})
	var round []candidate
	for _, c := range fresh {
		if c.overlaps(claimed) {
			continue
		}
		for n := range c.nodes {
			claimed[n] = struct{}{}
		}
		round = append(round, c)
	}
	return round
}

// virtualizeCycle wraps a candidate's nodes into a new MLCycle node,
// linking any MLCycle nodes it absorbs as children, rewires its boundary
// edges as VirtualEdges, and removes the absorbed nodes/edges from the top
// level.
func virtualizeCycle(g *core.Graph, kid core.TaskID, c candidate) (*core.Node, error) {
	type child struct {
		nid core.NodeID
		kid core.TaskID
	}
	var children []child
	for _, nid := range core.SortedNodeIDs(c.nodes) {
		n, ok := g.Node(nid)
		if ok && n.Kind() == core.NodeMLCycle {
			children = append(children, child{nid, n.TaskID()})
		}
	}

	node := g.AddMLCycleNode(kid, c.nodes, c.interior, c.anchor)
	for _, ch := range children {
		node.Children()[ch.kid] = struct{}{}
	}

	renormalize := make(map[core.NodeID]struct{})
	for _, eid := range c.boundaryIn {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		if _, err := g.AddVirtualEdge(e.Src(), node.ID(), e.Freq(), e.Weight(), map[core.EdgeID]struct{}{eid: {}}); err != nil {
			return nil, err
		}
		renormalize[e.Src()] = struct{}{}
		if err := g.RemoveEdge(eid); err != nil {
			return nil, err
		}
	}
	for _, eid := range c.boundaryOut {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		if _, err := g.AddVirtualEdge(node.ID(), e.Snk(), e.Freq(), e.Weight(), map[core.EdgeID]struct{}{eid: {}}); err != nil {
			return nil, err
		}
		if err := g.RemoveEdge(eid); err != nil {
			return nil, err
		}
	}
	for eid := range c.interior {
		if _, live := g.Edge(eid); live {
			if err := g.RemoveEdge(eid); err != nil {
				return nil, err
			}
		}
	}
	for _, n := range core.SortedNodeIDs(c.nodes) {
		if err := g.RemoveNode(n); err != nil {
			return nil, err
		}
	}

	for _, src := range core.SortedNodeIDs(renormalize) {
		g.NormalizeOutgoingWeights(src)
	}
	g.NormalizeOutgoingWeights(node.ID())

	for _, ch := range children {
		// The child node was just archived by RemoveNode above; its
		// TaskID-keyed Parents set still lives on through the archive.
		if cn, ok := g.ArchivedNode(ch.nid); ok {
			cn.Parents()[kid] = struct{}{}
		}
	}
	return node, nil
}
