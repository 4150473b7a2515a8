package virtualize

import (
	"sort"

	"github.com/opcycle/taskgraph/callgraph"
	"github.com/opcycle/taskgraph/ir"
)

// recursiveSet returns every function that is directly recursive (a
// self-edge in the call graph) or a member of an indirect-recursion cycle.
func recursiveSet(cg *callgraph.Graph) map[ir.FunctionID]struct{} {
	set := make(map[ir.FunctionID]struct{})
	for _, fn := range cg.Functions() {
		if cg.DirectRecursion(fn) {
			set[fn] = struct{}{}
		}
	}
	for _, group := range cg.RecursiveGroups() {
		for _, fn := range group {
			set[fn] = struct{}{}
		}
	}
	return set
}

// scheduleOrder returns every non-recursive function in an order such that
// a function never precedes a non-recursive callee it depends on — the
// bottom-up order the function virtualizer needs so a callee is already
// fully inlined by the time its caller is processed.
func scheduleOrder(cg *callgraph.Graph) []ir.FunctionID {
	recursive := recursiveSet(cg)

	remaining := make(map[ir.FunctionID]int) // count of unresolved non-recursive callee deps
	dependents := make(map[ir.FunctionID][]ir.FunctionID)

	var candidates []ir.FunctionID
	for _, fn := range cg.Functions() {
		if _, isRec := recursive[fn]; isRec {
			continue
		}
		candidates = append(candidates, fn)
		node, _ := cg.Node(fn)
		deps := 0
		for _, callee := range node.Children() {
			if _, isRec := recursive[callee]; isRec {
				continue
			}
			if callee == fn {
				continue
			}
			deps++
			dependents[callee] = append(dependents[callee], fn)
		}
		remaining[fn] = deps
	}

	var ready []ir.FunctionID
	for _, fn := range candidates {
		if remaining[fn] == 0 {
			ready = append(ready, fn)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	var order []ir.FunctionID
	scheduled := make(map[ir.FunctionID]struct{})
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		fn := ready[0]
		ready = ready[1:]
		if _, done := scheduled[fn]; done {
			continue
		}
		scheduled[fn] = struct{}{}
		order = append(order, fn)

		for _, dep := range dependents[fn] {
			remaining[dep]--
			if remaining[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	return order
}
