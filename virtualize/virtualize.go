package virtualize

import (
	"fmt"

	"github.com/opcycle/taskgraph/callgraph"
	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// Run inlines every call site of every non-recursive function that has more
// than one call site, bottom-up,
// so a callee is fully private by the time its own callers are processed.
// cg must have been built over g before calling Run; it is not refreshed as
// inlining proceeds, since inlining never changes the dynamic call graph's
// shape (it only privatizes nodes/edges already accounted for by cg).
func Run(g *core.Graph, prov ir.Provider, cg *callgraph.Graph) error {
	for _, fn := range scheduleOrder(cg) {
		if err := inlineFunctionCallSites(g, cg, fn); err != nil {
			return fmt.Errorf("virtualize: function %d: %w", fn, err)
		}
	}
	return nil
}

// inlineFunctionCallSites inlines every current call site targeting fn. It
// re-derives the live call-site edge IDs from cg's caller-side bookkeeping,
// since earlier call sites to other functions may have already rewritten
// the graph (and IDs recorded in cg.Edge.CallSites remain stable: inlining
// never renumbers a surviving Call edge, it only removes the ones it
// consumes).
func inlineFunctionCallSites(g *core.Graph, cg *callgraph.Graph, fn ir.FunctionID) error {
	calleeNode, ok := cg.Node(fn)
	if !ok {
		return nil
	}
	var sites []core.EdgeID
	for _, callerFn := range calleeNode.Parents() {
		callerNode, ok := cg.Node(callerFn)
		if !ok {
			continue
		}
		edge, ok := callerNode.ChildEdge(fn)
		if !ok {
			continue
		}
		sites = append(sites, edge.CallSites...)
	}
	// Spec §4.3: only a function with more than one non-recursive call site
	// is inlined. A single call site leaves nothing to privatize — there is
	// no second caller to disambiguate from — so the function stays a plain
	// Control node shared as-is.
	if len(sites) <= 1 {
		return nil
	}
	// A function's entry block can correspond to more than one Control node
	// under a higher-order Markov history (distinct calling contexts), so
	// every distinct Snk() observed across this function's call sites gets
	// its own shared-body cleanup once all sites are inlined.
	entries := make(map[core.NodeID]struct{})
	for _, site := range sites {
		e, live := g.Edge(site)
		if !live {
			continue // already consumed (e.g. the same call site can't repeat, but be defensive)
		}
		entries[e.Snk()] = struct{}{}
		if err := InlineCallSite(g, site); err != nil {
			return err
		}
	}
	for entry := range entries {
		if err := RemoveFunctionBody(g, entry); err != nil {
			return err
		}
	}
	return nil
}
