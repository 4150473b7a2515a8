package transform

import "github.com/opcycle/taskgraph/core"

// kirchhoffBalance patches every node with exactly one predecessor edge and
// one successor edge whose frequencies disagree: the higher-frequency side
// is replaced by a VirtualEdge carrying the lower of the two frequencies,
// and the edge's source re-normalizes its outgoing weights around the new
// count. This recovers flow conservation across boundaries the profile
// under- or over-counted without touching any node's identity.
func kirchhoffBalance(g *core.Graph) (bool, error) {
	changed := false
	for _, nid := range g.Nodes() {
		preds := g.Predecessors(nid)
		succs := g.Successors(nid)
		if len(preds) != 1 || len(succs) != 1 {
			continue
		}
		p, pok := g.Edge(preds[0])
		s, sok := g.Edge(succs[0])
		if !pok || !sok || p.Freq() == s.Freq() {
			continue
		}
		// Imaginary edges are unweighted boundary markers, not profiled
		// flow, and a rewired boundary edge wrapping one inherits its zero
		// frequency: neither reflects a real conservation violation.
		if p.Kind() == core.EdgeImaginary || s.Kind() == core.EdgeImaginary {
			continue
		}
		if p.Freq() == 0 || s.Freq() == 0 {
			continue
		}

		victim := p
		if s.Freq() > p.Freq() {
			victim = s
		}
		newFreq := p.Freq()
		if s.Freq() < newFreq {
			newFreq = s.Freq()
		}

		src, snk := victim.Src(), victim.Snk()
		if err := g.RemoveEdge(victim.ID()); err != nil {
			return changed, err
		}
		if _, err := g.AddVirtualEdge(src, snk, newFreq, victim.Weight(), map[core.EdgeID]struct{}{victim.ID(): {}}); err != nil {
			return changed, err
		}
		g.NormalizeOutgoingWeights(src)
		changed = true
	}
	return changed, nil
}
