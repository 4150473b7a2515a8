package classify

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// upgradeCalls walks every call-like instruction in the IR, resolves its
// callee (statically if known, otherwise via blockCallers), upgrades the
// matching raw profile edge(s) to Call, and populates each Call's Returns
// record including the dynamic-return rewrite.
func upgradeCalls(g *core.Graph, prov ir.Provider, blockCallers ir.BlockCallers, blocks blockIndex) error {
	touched := make(map[core.NodeID]struct{})

	for _, fn := range prov.Functions() {
		for _, bID := range fn.Blocks {
			blk, ok := prov.Block(bID)
			if !ok {
				continue
			}
			for _, instr := range blk.Instructions {
				if instr.Opcode != ir.OpCall {
					continue
				}
				candidates, err := resolveCallees(prov, instr, bID, blockCallers)
				if err != nil {
					return err
				}
				for _, cand := range candidates {
					if err := upgradeOneCallSite(g, prov, bID, cand, blocks, touched); err != nil {
						return err
					}
				}
			}
		}
	}

	for nid := range touched {
		g.NormalizeOutgoingWeights(nid)
	}
	return nil
}

type calleeCandidate struct {
	fn    ir.FunctionID
	entry ir.BlockID
}

func resolveCallees(prov ir.Provider, instr ir.Instruction, site ir.BlockID, blockCallers ir.BlockCallers) ([]calleeCandidate, error) {
	if instr.HasCallee {
		fn, ok := prov.Function(instr.Callee)
		if !ok {
			return nil, fmt.Errorf("classify: call site %d: callee %d: %w", site, instr.Callee, ErrDeadFunctionReferenced)
		}
		return []calleeCandidate{{fn: fn.ID, entry: fn.Entry}}, nil
	}

	observed := blockCallers[site]
	if len(observed) == 0 {
		return nil, fmt.Errorf("classify: call site %d: %w", site, ErrUnresolvableCallee)
	}
	var out []calleeCandidate
	for _, entry := range observed {
		fn, ok := prov.FunctionForBlock(entry)
		if !ok {
			continue
		}
		out = append(out, calleeCandidate{fn: fn, entry: entry})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("classify: call site %d: %w", site, ErrUnresolvableCallee)
	}
	return out, nil
}

func upgradeOneCallSite(g *core.Graph, prov ir.Provider, callerBlock ir.BlockID, cand calleeCandidate, blocks blockIndex, touched map[core.NodeID]struct{}) error {
	calleeNodes := blocks[cand.entry]
	if len(calleeNodes) == 0 {
		return nil // function never observed executing; nothing to upgrade
	}
	callerNodes := blocks[callerBlock]
	if len(callerNodes) == 0 {
		return nil
	}

	for _, cn := range callerNodes {
		for _, en := range calleeNodes {
			raw := findEdge(g, cn, en, core.EdgeUnconditional, core.EdgeConditional)
			if raw == nil {
				continue
			}
			freq := raw.Freq()
			if err := g.RemoveEdge(raw.ID()); err != nil {
				return err
			}
			rets := &core.Returns{
				CallerNode: cn,
				FunctionID: cand.fn,
			}
			callEdge, err := g.AddCallEdge(cn, en, freq, 0, rets)
			if err != nil {
				return err
			}
			touched[cn] = struct{}{}

			if err := populateReturns(g, prov, callEdge, cand.fn, callerBlock, blocks, touched); err != nil {
				return err
			}
		}
	}
	return nil
}

// findEdge returns the edge from src to snk whose kind is one of kinds, or
// nil if none matches.
func findEdge(g *core.Graph, src, snk core.NodeID, kinds ...core.EdgeKind) *core.Edge {
	for _, eid := range g.Successors(src) {
		e, _ := g.Edge(eid)
		if e.Snk() != snk {
			continue
		}
		for _, k := range kinds {
			if e.Kind() == k {
				return e
			}
		}
	}
	return nil
}

// populateReturns walks calleeFn's static blocks to collect function_nodes
// and static_exits, adds the synthetic static_exit->caller_node Return
// edges, then matches each static_exit against the call's static
// return-target block to discover and rewrite dynamic returns.
func populateReturns(g *core.Graph, prov ir.Provider, callEdge *core.Edge, calleeFn ir.FunctionID, callerBlock ir.BlockID, blocks blockIndex, touched map[core.NodeID]struct{}) error {
	fn, ok := prov.Function(calleeFn)
	if !ok {
		return fmt.Errorf("classify: callee function %d: %w", calleeFn, ErrDeadFunctionReferenced)
	}
	rets := callEdge.Returns()
	rets.FunctionNodes = make(map[core.NodeID]struct{})
	rets.StaticExits = make(map[core.NodeID]struct{})
	rets.StaticRets = make(map[core.EdgeID]struct{})
	rets.DynamicExits = make(map[core.NodeID]struct{})
	rets.DynamicRets = make(map[core.EdgeID]struct{})

	var returnTarget ir.BlockID
	haveReturnTarget := false
	for _, bID := range fn.Blocks {
		for _, nid := range blocks[bID] {
			rets.FunctionNodes[nid] = struct{}{}
		}
		blk, ok := prov.Block(bID)
		if !ok {
			continue
		}
		for _, instr := range blk.Instructions {
			if instr.Opcode == ir.OpRet || instr.Opcode == ir.OpResume {
				for _, nid := range blocks[bID] {
					rets.StaticExits[nid] = struct{}{}
				}
			}
		}
	}

	if blk, ok := prov.Block(callerBlock); ok {
		for _, instr := range blk.Instructions {
			if instr.Opcode == ir.OpCall && len(instr.Successors) > 0 {
				returnTarget = instr.Successors[0]
				haveReturnTarget = true
				break
			}
		}
	}

	for se := range rets.StaticExits {
		// static_exit -> caller_node is synthetic bookkeeping only (spec §3):
		// it never existed in the raw graph, so it must not become a real
		// successor/predecessor of either node the way a dynamic return does.
		rets.StaticRets[g.NewSyntheticEdgeID()] = struct{}{}

		if !haveReturnTarget {
			continue
		}
		for _, rn := range blocks[returnTarget] {
			raw := findEdge(g, se, rn, core.EdgeUnconditional, core.EdgeConditional)
			if raw == nil {
				continue
			}
			freq := raw.Freq()
			if err := g.RemoveEdge(raw.ID()); err != nil {
				return err
			}
			dynEdge, err := g.AddReturnEdge(se, rn, freq, 0, callEdge.ID())
			if err != nil {
				return err
			}
			rets.DynamicExits[rn] = struct{}{}
			rets.DynamicRets[dynEdge.ID()] = struct{}{}
			touched[se] = struct{}{}
		}
	}
	return nil
}
