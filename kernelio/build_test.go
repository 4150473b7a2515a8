package kernelio_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
	"github.com/opcycle/taskgraph/kernelio"
	"github.com/opcycle/taskgraph/segment"
)

// hotSelfLoop builds entry -> c -> a (self-loop, freq 1000) -> b, so
// segment.Segment wraps a's self-loop into a single task whose boundary
// predecessor (c -> a) carries concrete block endpoints.
func hotSelfLoop(t *testing.T) (*core.Graph, *core.Node) {
	t.Helper()
	g := core.New()
	entry := g.AddImaginaryNode()
	c, _ := g.AddControlNode(core.History{3})
	a, _ := g.AddControlNode(core.History{1})
	b, _ := g.AddControlNode(core.History{2})

	_, err := g.AddImaginaryEdge(entry.ID(), c.ID())
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(c.ID(), a.ID(), 1000)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(a.ID(), a.ID(), 1000, 0.99)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(a.ID(), b.ID(), 10, 0.01)
	require.NoError(t, err)

	require.NoError(t, segment.Segment(g, segment.DefaultOptions()))

	var task *core.Node
	for _, nid := range g.Nodes() {
		if n, ok := g.Node(nid); ok && n.Kind() == core.NodeMLCycle {
			task = n
		}
	}
	require.NotNil(t, task)
	return g, task
}

func TestBuild_ProducesOneKernelWithEntrance(t *testing.T) {
	g, task := hotSelfLoop(t)

	doc, err := kernelio.Build(g, kernelio.BuildOptions{
		ValidBlocks: []ir.BlockID{1, 2, 3},
		Start:       kernelio.GraphEntropy(g),
		End:         kernelio.GraphEntropy(g),
	})
	require.NoError(t, err)

	require.Len(t, doc.Kernels, 1)
	k, ok := doc.Kernels[fmt.Sprint(task.TaskID())]
	require.True(t, ok)
	assert.NotEmpty(t, k.Nodes)
	assert.Contains(t, k.Blocks, ir.BlockID(1))
	assert.NotEmpty(t, k.Entrances)
}

func TestBuild_NonKernelBlocksExcludesTaskMembers(t *testing.T) {
	g, _ := hotSelfLoop(t)

	doc, err := kernelio.Build(g, kernelio.BuildOptions{
		ValidBlocks: []ir.BlockID{1, 2, 3},
	})
	require.NoError(t, err)

	assert.NotContains(t, doc.NonKernelBlocks, ir.BlockID(1))
	assert.Contains(t, doc.NonKernelBlocks, ir.BlockID(2))
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	g, _ := hotSelfLoop(t)
	doc, err := kernelio.Build(g, kernelio.BuildOptions{ValidBlocks: []ir.BlockID{1, 2}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, kernelio.Encode(&buf, doc))

	got, err := kernelio.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc.AverageKernelSizeNodes, got.AverageKernelSizeNodes)
	assert.Equal(t, len(doc.Kernels), len(got.Kernels))
}
