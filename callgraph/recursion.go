package callgraph

import "github.com/opcycle/taskgraph/ir"

// DirectRecursion reports whether fn has a self-edge in the call graph
// a self-edge in the call graph.
func (cg *Graph) DirectRecursion(fn ir.FunctionID) bool {
	n, ok := cg.nodes[fn]
	if !ok {
		return false
	}
	_, ok = n.children[fn]
	return ok
}

// IndirectRecursion reports whether fn sits on a cycle of length > 1 in the
// call graph: a cycle of length >1, found by running a reachability search
// from a node back to itself after removing self-edges. The
// call graph carries no weights, so the search that matters here is plain
// reachability; we walk it breadth-first rather than force an artificial
// uniform-weight Dijkstra, but the result is identical to running Dijkstra
// with unit edge costs.
func (cg *Graph) IndirectRecursion(fn ir.FunctionID) bool {
	n, ok := cg.nodes[fn]
	if !ok {
		return false
	}
	visited := map[ir.FunctionID]struct{}{fn: {}}
	queue := make([]ir.FunctionID, 0, len(n.children))
	for callee := range n.children {
		if callee == fn {
			continue // self-edges removed first
		}
		queue = append(queue, callee)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == fn {
			return true
		}
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		curNode, ok := cg.nodes[cur]
		if !ok {
			continue
		}
		for callee := range curNode.children {
			if callee == cur { // self-edge, irrelevant to reaching fn
				continue
			}
			queue = append(queue, callee)
		}
	}
	return false
}

// RecursiveGroups partitions the call graph into strongly connected
// components of size > 1 (indirect-recursion cycles) via Tarjan's
// algorithm, so the inline scheduler (virtualize package) can schedule
// every function in a cycle at the same position.
func (cg *Graph) RecursiveGroups() [][]ir.FunctionID {
	t := &tarjan{
		cg:      cg,
		index:   make(map[ir.FunctionID]int),
		lowlink: make(map[ir.FunctionID]int),
		onStack: make(map[ir.FunctionID]bool),
	}
	for _, fn := range cg.Functions() {
		if _, visited := t.index[fn]; !visited {
			t.strongConnect(fn)
		}
	}
	var groups [][]ir.FunctionID
	for _, scc := range t.sccs {
		if len(scc) > 1 {
			groups = append(groups, scc)
		}
	}
	return groups
}

type tarjan struct {
	cg      *Graph
	counter int
	index   map[ir.FunctionID]int
	lowlink map[ir.FunctionID]int
	onStack map[ir.FunctionID]bool
	stack   []ir.FunctionID
	sccs    [][]ir.FunctionID
}

func (t *tarjan) strongConnect(v ir.FunctionID) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	node := t.cg.nodes[v]
	for _, w := range node.Children() {
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []ir.FunctionID
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}
