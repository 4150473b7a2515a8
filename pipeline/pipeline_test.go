package pipeline_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/classify"
	"github.com/opcycle/taskgraph/config"
	"github.com/opcycle/taskgraph/internal/irtest"
	"github.com/opcycle/taskgraph/ir"
	"github.com/opcycle/taskgraph/pipeline"
)

// encodeOrder1 builds a k=1 profile binary from (src, snk, freq) triples.
func encodeOrder1(blockCount uint32, records [][3]uint64) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, 12)
	binary.LittleEndian.PutUint32(hdr[0:4], 1)
	binary.LittleEndian.PutUint32(hdr[4:8], blockCount)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(records)))
	buf.Write(hdr)
	for _, rec := range records {
		rb := make([]byte, 16)
		binary.LittleEndian.PutUint32(rb[0:4], uint32(rec[0]))
		binary.LittleEndian.PutUint32(rb[4:8], uint32(rec[1]))
		binary.LittleEndian.PutUint64(rb[8:16], rec[2])
		buf.Write(rb)
	}
	return buf.Bytes()
}

// straightLineProgram builds main: A -> B -> C (ret), a trivial
// three-block function with no branches and no calls, and the matching
// Markov-order-1 profile A->B freq 10, B->C freq 10.
func straightLineProgram(t *testing.T) (*irtest.Fake, []byte) {
	t.Helper()
	f := irtest.NewFake()
	main := f.AddFunction("main")
	a := f.AddBlock(main)
	b := f.AddBlock(main)
	c := f.AddBlock(main)
	f.AddTerminator(a, ir.OpUnconditionalBranch, b)
	f.AddTerminator(b, ir.OpUnconditionalBranch, c)
	f.AddTerminator(c, ir.OpRet)

	data := encodeOrder1(3, [][3]uint64{
		{uint64(a), uint64(b), 10},
		{uint64(b), uint64(c), 10},
	})
	return f, data
}

func TestRun_StraightLineProgramProducesNoTasks(t *testing.T) {
	prov, data := straightLineProgram(t)
	cfg := pipeline.Config{
		Analysis:    config.Default(),
		ValidBlocks: []ir.BlockID{0, 1, 2},
	}

	res, err := pipeline.Run(context.Background(), bytes.NewReader(data), prov, cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID.String())
	assert.Empty(t, res.Document.Kernels)
	assert.ElementsMatch(t, []ir.BlockID{0, 1, 2}, res.Document.NonKernelBlocks)
	assert.ElementsMatch(t, []ir.BlockID{0, 1, 2}, res.Document.ValidBlocks)
}

func TestRun_HotSelfLoopBecomesATask(t *testing.T) {
	f := irtest.NewFake()
	main := f.AddFunction("main")
	a := f.AddBlock(main)
	exit := f.AddBlock(main)
	f.AddTerminator(a, ir.OpConditionalBranch, a, exit)
	f.AddTerminator(exit, ir.OpRet)

	data := encodeOrder1(2, [][3]uint64{
		{uint64(a), uint64(a), 1000},
		{uint64(a), uint64(exit), 10},
	})
	cfg := pipeline.Config{
		Analysis:    config.Default(),
		ValidBlocks: []ir.BlockID{a, exit},
	}

	res, err := pipeline.Run(context.Background(), bytes.NewReader(data), f, cfg)
	require.NoError(t, err)
	require.Len(t, res.Document.Kernels, 1)
	for _, k := range res.Document.Kernels {
		assert.Contains(t, k.Blocks, a)
	}
}

func TestRun_MalformedProfileIsAProfileStageError(t *testing.T) {
	f := irtest.NewFake()
	f.AddFunction("main")
	cfg := pipeline.Config{Analysis: config.Default()}

	_, err := pipeline.Run(context.Background(), bytes.NewReader(nil), f, cfg)
	require.Error(t, err)
	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageProfile, stageErr.Stage)
}

func TestRun_InvalidConfigIsAConfigStageError(t *testing.T) {
	f := irtest.NewFake()
	f.AddFunction("main")
	cfg := pipeline.Config{Analysis: config.Config{}} // zero value fails every validate tag

	_, err := pipeline.Run(context.Background(), bytes.NewReader(nil), f, cfg)
	require.Error(t, err)
	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageConfig, stageErr.Stage)
}

func TestRun_UnresolvableIndirectCallIsAClassifyStageError(t *testing.T) {
	f := irtest.NewFake()
	main := f.AddFunction("main")
	a := f.AddBlock(main)
	b := f.AddBlock(main)
	f.AddIndirectCall(a)
	f.AddTerminator(a, ir.OpUnconditionalBranch, b)
	f.AddTerminator(b, ir.OpRet)

	data := encodeOrder1(2, [][3]uint64{{uint64(a), uint64(b), 5}})
	cfg := pipeline.Config{
		Analysis: config.Default(),
		Classify: classify.Options{}, // no BlockCallers entry for a's indirect call
	}

	_, err := pipeline.Run(context.Background(), bytes.NewReader(data), f, cfg)
	require.Error(t, err)
	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, pipeline.StageClassify, stageErr.Stage)
}
