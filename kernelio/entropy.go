package kernelio

import (
	"math"

	"github.com/opcycle/taskgraph/core"
)

// GraphEntropy computes the Shannon entropy, in bits, of g's edge
// frequency distribution: a flatter distribution (many similarly weighted
// edges) carries higher entropy than one dominated by a handful of hot
// paths. Comparing a Start snapshot (post edge-classification) against an
// End snapshot (post segmentation) gives a coarse measure of how much
// structure the rewrites collapsed out of the raw profile.
func GraphEntropy(g *core.Graph) Entropy {
	var total uint64
	freqs := make([]uint64, 0, g.EdgeCount())
	for _, eid := range g.Edges() {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		freqs = append(freqs, e.Freq())
		total += e.Freq()
	}

	var bits float64
	if total > 0 {
		for _, f := range freqs {
			if f == 0 {
				continue
			}
			p := float64(f) / float64(total)
			bits -= p * math.Log2(p)
		}
	}
	return Entropy{
		Bits:      bits,
		EdgeCount: float64(len(freqs)),
		NodeCount: float64(g.NodeCount()),
	}
}
