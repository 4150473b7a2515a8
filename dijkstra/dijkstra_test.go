package dijkstra_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/dijkstra"
)

// buildTriangleCycle builds a -> b -> c -> a, each conditional edge weighted
// 1.0 (certain), plus a dead-end branch out of a that never returns.
func buildTriangleCycle(t *testing.T) (*core.Graph, core.NodeID, core.NodeID, core.NodeID) {
	t.Helper()
	g := core.New()
	na, _ := g.AddControlNode(core.History{1})
	nb, _ := g.AddControlNode(core.History{2})
	nc, _ := g.AddControlNode(core.History{3})
	nd, _ := g.AddControlNode(core.History{4})

	_, err := g.AddConditionalEdge(na.ID(), nb.ID(), 10, 1.0)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(nb.ID(), nc.ID(), 10, 1.0)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(nc.ID(), na.ID(), 10, 1.0)
	require.NoError(t, err)
	// a dead end that ShortestCycle should never report as part of the cycle.
	_, err = g.AddConditionalEdge(na.ID(), nd.ID(), 0, 0.0)
	require.NoError(t, err)

	return g, na.ID(), nb.ID(), nc.ID()
}

func TestShortestCycle_Triangle(t *testing.T) {
	g, na, nb, nc := buildTriangleCycle(t)

	cyc, found := dijkstra.ShortestCycle(g, na)
	require.True(t, found)

	assert.Equal(t, []core.NodeID{na, nb, nc, na}, cyc.Nodes)
	assert.Len(t, cyc.Edges, 3)
	assert.InDelta(t, 0, cyc.Cost, 1e-9)
	assert.InDelta(t, 1.0, math.Exp(cyc.LogProbability()), 1e-9)
}

func TestShortestCycle_NoCycle(t *testing.T) {
	g := core.New()
	na, _ := g.AddControlNode(core.History{1})
	nb, _ := g.AddControlNode(core.History{2})
	_, err := g.AddConditionalEdge(na.ID(), nb.ID(), 10, 1.0)
	require.NoError(t, err)

	_, found := dijkstra.ShortestCycle(g, na.ID())
	assert.False(t, found)
}

// buildTwoRoutesBack builds a graph with two ways back from b to a: a direct
// conditional edge with weight 0 (never observed, impassable) and a longer
// unconditional detour through c that is always free. ShortestCycle must
// take the detour, not the cheaper-looking but impassable direct edge.
func buildTwoRoutesBack(t *testing.T) (*core.Graph, core.NodeID, core.NodeID, core.NodeID) {
	t.Helper()
	g := core.New()
	na, _ := g.AddControlNode(core.History{1})
	nb, _ := g.AddControlNode(core.History{2})
	nc, _ := g.AddControlNode(core.History{3})

	_, err := g.AddConditionalEdge(na.ID(), nb.ID(), 10, 1.0)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(nb.ID(), na.ID(), 0, 0.0)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(nb.ID(), nc.ID(), 10)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(nc.ID(), na.ID(), 10)
	require.NoError(t, err)

	return g, na.ID(), nb.ID(), nc.ID()
}

func TestShortestCycle_ZeroWeightEdgeIsImpassable(t *testing.T) {
	g, na, nb, nc := buildTwoRoutesBack(t)

	cyc, found := dijkstra.ShortestCycle(g, na)
	require.True(t, found)

	assert.Equal(t, []core.NodeID{na, nb, nc, na}, cyc.Nodes)
	assert.InDelta(t, 0, cyc.Cost, 1e-9)
}

func TestShortestCycle_PicksHigherProbabilityCycle(t *testing.T) {
	g := core.New()
	na, _ := g.AddControlNode(core.History{1})
	nb, _ := g.AddControlNode(core.History{2})
	nc, _ := g.AddControlNode(core.History{3})

	// a -> b -> a at weight 0.9 (short, high probability).
	_, err := g.AddConditionalEdge(na.ID(), nb.ID(), 9, 0.9)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(nb.ID(), na.ID(), 9, 0.9)
	require.NoError(t, err)
	// a -> c -> a at weight 0.1 (short, low probability).
	_, err = g.AddConditionalEdge(na.ID(), nc.ID(), 1, 0.1)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(nc.ID(), na.ID(), 1, 0.1)
	require.NoError(t, err)

	cyc, found := dijkstra.ShortestCycle(g, na.ID())
	require.True(t, found)

	assert.Equal(t, []core.NodeID{na.ID(), nb.ID(), na.ID()}, cyc.Nodes)
	// weights are stored as float32, so 0.9 is 0.89999998 and the product
	// lands about 4e-8 below 0.81.
	assert.InDelta(t, 0.81, math.Exp(cyc.LogProbability()), 1e-6)
}

func TestShortestCycle_SelfLoop(t *testing.T) {
	g := core.New()
	na, _ := g.AddControlNode(core.History{1})
	_, err := g.AddConditionalEdge(na.ID(), na.ID(), 5, 0.5)
	require.NoError(t, err)

	cyc, found := dijkstra.ShortestCycle(g, na.ID())
	require.True(t, found)

	assert.Equal(t, []core.NodeID{na.ID(), na.ID()}, cyc.Nodes)
	assert.InDelta(t, math.Log(2), cyc.Cost, 1e-9)
}
