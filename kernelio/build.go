package kernelio

import (
	"fmt"
	"sort"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

func sortBlockIDs(ids []ir.BlockID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// BuildOptions carries the auxiliary, non-graph inputs the output document
// also reports alongside the discovered tasks.
type BuildOptions struct {
	ValidBlocks  []ir.BlockID
	BlockCallers ir.BlockCallers
	Start, End   Entropy
}

// Build assembles the kernel output document with one Kernel per live
// (outermost) MLCycle node in g. A task nested inside another task's
// Subgraph gets no Kernel entry of its own: the blocks of the Control nodes
// directly in its Subgraph count toward the enclosing kernel's Blocks, and
// its TaskID appears in that kernel's Children.
func Build(g *core.Graph, opts BuildOptions) (Document, error) {
	doc := Document{
		BlockCallers: make(map[string][]ir.BlockID, len(opts.BlockCallers)),
		Kernels:      make(map[string]Kernel),
		ValidBlocks:  opts.ValidBlocks,
	}
	doc.Entropy.Start = opts.Start
	doc.Entropy.End = opts.End
	for site, callers := range opts.BlockCallers {
		doc.BlockCallers[fmt.Sprint(site)] = callers
	}

	memo := make(map[core.TaskID][]core.TaskID)
	var tasks []*core.Node
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if !ok || n.Kind() != core.NodeMLCycle {
			continue
		}
		tasks = append(tasks, n)
	}

	kernelBlocks := make(map[ir.BlockID]struct{})
	var totalNodes, totalBlocks int
	for _, n := range tasks {
		k, err := buildOne(g, n, memo)
		if err != nil {
			return Document{}, fmt.Errorf("kernelio: building kernel for task %d: %w", n.TaskID(), err)
		}
		doc.Kernels[fmt.Sprint(n.TaskID())] = k
		totalNodes += len(k.Nodes)
		totalBlocks += len(k.Blocks)
		for _, b := range k.Blocks {
			kernelBlocks[b] = struct{}{}
		}
		collectNestedBlocks(g, n, kernelBlocks)
	}

	for _, b := range opts.ValidBlocks {
		if _, ok := kernelBlocks[b]; !ok {
			doc.NonKernelBlocks = append(doc.NonKernelBlocks, b)
		}
	}

	if n := len(tasks); n > 0 {
		doc.AverageKernelSizeNodes = float64(totalNodes) / float64(n)
		doc.AverageKernelSizeBlocks = float64(totalBlocks) / float64(n)
	}
	return doc, nil
}

func collectNestedBlocks(g *core.Graph, n *core.Node, out map[ir.BlockID]struct{}) {
	for _, nid := range core.SortedNodeIDs(n.Subgraph()) {
		cn, ok := g.ArchivedNode(nid)
		if !ok || cn.Kind() != core.NodeControl {
			continue
		}
		for b := range cn.Blocks() {
			out[b] = struct{}{}
		}
	}
}

func buildOne(g *core.Graph, n *core.Node, memo map[core.TaskID][]core.TaskID) (Kernel, error) {
	k := Kernel{
		Entrances: make(map[string][]ir.BlockID),
		Exits:     make(map[string][]ir.BlockID),
	}
	if l := n.Label(); l != "" {
		k.Labels = []string{l}
	}

	blocks := make(map[ir.BlockID]struct{})
	for _, nid := range core.SortedNodeIDs(n.Subgraph()) {
		k.Nodes = append(k.Nodes, uint64(nid))
		cn, ok := g.ArchivedNode(nid)
		if !ok {
			continue
		}
		switch cn.Kind() {
		case core.NodeControl:
			for b := range cn.Blocks() {
				blocks[b] = struct{}{}
			}
		case core.NodeMLCycle:
			collectNestedBlocks(g, cn, blocks)
		}
	}
	for b := range blocks {
		k.Blocks = append(k.Blocks, b)
	}
	sortBlockIDs(k.Blocks)

	for _, tid := range core.SortedTaskIDs(n.Children()) {
		k.Children = append(k.Children, uint32(tid))
	}
	for _, tid := range core.SortedTaskIDs(n.Parents()) {
		k.Parents = append(k.Parents, uint32(tid))
	}

	for _, eid := range boundaryEdgeIDs(n.Predecessors()) {
		for _, leaf := range resolveConcrete(g, eid) {
			srcBlock, srcOK := blockOf(g, leaf.Src())
			dstBlock, dstOK := blockOf(g, leaf.Snk())
			if srcOK && dstOK {
				key := fmt.Sprint(srcBlock)
				k.Entrances[key] = append(k.Entrances[key], dstBlock)
			}
		}
	}
	for _, eid := range boundaryEdgeIDs(n.Successors()) {
		for _, leaf := range resolveConcrete(g, eid) {
			srcBlock, srcOK := blockOf(g, leaf.Src())
			dstBlock, dstOK := blockOf(g, leaf.Snk())
			if srcOK && dstOK {
				key := fmt.Sprint(srcBlock)
				k.Exits[key] = append(k.Exits[key], dstBlock)
			}
		}
	}

	dominators := taskDominators(g, n, memo)
	for _, tid := range dominators {
		k.Dominators = append(k.Dominators, uint32(tid))
	}
	return k, nil
}

func boundaryEdgeIDs(set map[core.EdgeID]struct{}) []core.EdgeID {
	return core.SortedEdgeIDs(set)
}

// resolveConcrete descends a possibly-nested chain of VirtualEdges to the
// Unconditional/Conditional/Call/Return/Imaginary edges at its leaves —
// the edges that carry concrete endpoint block histories.
func resolveConcrete(g *core.Graph, eid core.EdgeID) []*core.Edge {
	e, ok := g.Edge(eid)
	if !ok {
		e, ok = g.ArchivedEdge(eid)
	}
	if !ok {
		return nil
	}
	if e.Kind() != core.EdgeVirtual {
		return []*core.Edge{e}
	}
	var out []*core.Edge
	for _, u := range core.SortedEdgeIDs(e.Underlying()) {
		out = append(out, resolveConcrete(g, u)...)
	}
	return out
}

func blockOf(g *core.Graph, nid core.NodeID) (ir.BlockID, bool) {
	n, ok := g.Node(nid)
	if !ok {
		n, ok = g.ArchivedNode(nid)
	}
	if !ok || n.Kind() != core.NodeControl {
		return 0, false
	}
	blocks := n.OriginalBlocks()
	if len(blocks) == 0 {
		return 0, false
	}
	return blocks[len(blocks)-1], true
}

// taskDominators computes, for task n, the set of tasks "seen above it":
// every MLCycle reachable by walking predecessor edges backward from n in
// the current top-level graph, unioned with the dominators of any task
// nested directly in n's own subgraph (a nested child's entrance is
// reached through at least the same ancestor paths as its parent).
func taskDominators(g *core.Graph, n *core.Node, memo map[core.TaskID][]core.TaskID) []core.TaskID {
	if cached, ok := memo[n.TaskID()]; ok {
		return cached
	}
	seen := make(map[core.TaskID]struct{})
	visitedNodes := make(map[core.NodeID]struct{})
	var walk func(core.NodeID)
	walk = func(nid core.NodeID) {
		if _, ok := visitedNodes[nid]; ok {
			return
		}
		visitedNodes[nid] = struct{}{}
		for _, eid := range g.Predecessors(nid) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			pred := e.Src()
			if pn, ok := g.Node(pred); ok && pn.Kind() == core.NodeMLCycle {
				seen[pn.TaskID()] = struct{}{}
			}
			walk(pred)
		}
	}
	if _, isLive := g.Node(n.ID()); isLive {
		walk(n.ID())
	}

	for _, nid := range core.SortedNodeIDs(n.Subgraph()) {
		cn, ok := g.ArchivedNode(nid)
		if !ok || cn.Kind() != core.NodeMLCycle {
			continue
		}
		for _, tid := range taskDominators(g, cn, memo) {
			seen[tid] = struct{}{}
		}
	}

	out := make([]core.TaskID, 0, len(seen))
	for tid := range seen {
		out = append(out, tid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	memo[n.TaskID()] = out
	return out
}
