package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/classify"
	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/internal/irtest"
	"github.com/opcycle/taskgraph/ir"
)

// buildCallReturnProgram builds: main's b1 calls helper's entry b2 (return
// target b3); helper immediately returns; b3 is main's terminator.
func buildCallReturnProgram(t *testing.T) (*core.Graph, *irtest.Fake, ir.BlockID, ir.BlockID, ir.BlockID) {
	t.Helper()
	prov := irtest.NewFake()
	fMain := prov.AddFunction("main")
	fHelper := prov.AddFunction("helper")

	b1 := prov.AddBlock(fMain)
	b3 := prov.AddBlock(fMain)
	b2 := prov.AddBlock(fHelper)

	prov.AddCallTerminator(b1, fHelper, b3)
	prov.AddTerminator(b3, ir.OpRet)
	prov.AddTerminator(b2, ir.OpRet)

	g := core.New()
	g.AddControlNode(core.History{b1})
	g.AddControlNode(core.History{b2})
	g.AddControlNode(core.History{b3})
	_, err := g.AddUnconditionalEdge(mustNode(t, g, b1), mustNode(t, g, b2), 5)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(mustNode(t, g, b2), mustNode(t, g, b3), 5)
	require.NoError(t, err)

	return g, prov, b1, b2, b3
}

func mustNode(t *testing.T, g *core.Graph, b ir.BlockID) core.NodeID {
	t.Helper()
	n, ok := g.ControlNodeByHistory(core.History{b})
	require.True(t, ok)
	return n.ID()
}

func TestRun_CallReturnAndAnchors(t *testing.T) {
	g, prov, b1, b2, b3 := buildCallReturnProgram(t)

	err := classify.Run(g, prov, classify.Options{})
	require.NoError(t, err)

	n1 := mustNode(t, g, b1)
	n2 := mustNode(t, g, b2)
	n3 := mustNode(t, g, b3)

	succ1 := g.Successors(n1)
	require.Len(t, succ1, 1)
	callEdge, _ := g.Edge(succ1[0])
	assert.Equal(t, core.EdgeCall, callEdge.Kind())
	rets := callEdge.Returns()
	assert.Contains(t, rets.FunctionNodes, n2)
	assert.Contains(t, rets.StaticExits, n2)
	assert.Contains(t, rets.DynamicExits, n3)
	assert.Len(t, rets.StaticRets, 1)

	// helper's exit carries only the observed dynamic return: the static
	// static_exit -> caller_node return is synthetic bookkeeping recorded in
	// rets.StaticRets and never becomes a real successor/predecessor.
	succ2 := g.Successors(n2)
	assert.Len(t, succ2, 1)

	// program exit anchors main's terminator.
	var foundImaginaryExit bool
	for _, eid := range g.Edges() {
		e, _ := g.Edge(eid)
		if e.Kind() == core.EdgeImaginary && e.Src() == n3 {
			foundImaginaryExit = true
		}
	}
	assert.True(t, foundImaginaryExit)
}

func TestRun_TerminatorOutsideMain(t *testing.T) {
	prov := irtest.NewFake()
	fMain := prov.AddFunction("main")
	fOther := prov.AddFunction("other")
	bMain := prov.AddBlock(fMain)
	bOther := prov.AddBlock(fOther)
	prov.AddTerminator(bMain, ir.OpUnconditionalBranch, bOther)
	prov.AddTerminator(bOther, ir.OpRet)

	g := core.New()
	g.AddControlNode(core.History{bMain})
	g.AddControlNode(core.History{bOther})
	_, err := g.AddUnconditionalEdge(mustNode(t, g, bMain), mustNode(t, g, bOther), 1)
	require.NoError(t, err)

	err = classify.Run(g, prov, classify.Options{})
	require.ErrorIs(t, err, classify.ErrTerminatorOutsideMain)
}
