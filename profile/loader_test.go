package profile_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
	"github.com/opcycle/taskgraph/profile"
)

// encode builds a profile binary with markov order 1 from (src,snk,freq) triples.
func encode(t *testing.T, k uint32, blockCount uint32, records [][3]uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	hdr := make([]byte, 12)
	binary.LittleEndian.PutUint32(hdr[0:4], k)
	binary.LittleEndian.PutUint32(hdr[4:8], blockCount)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(records)))
	buf.Write(hdr)
	for _, rec := range records {
		// only supports k==1 for simplicity in this helper
		require.Equal(t, uint32(1), k)
		rb := make([]byte, 4+4+8)
		binary.LittleEndian.PutUint32(rb[0:4], uint32(rec[0]))
		binary.LittleEndian.PutUint32(rb[4:8], uint32(rec[1]))
		binary.LittleEndian.PutUint64(rb[8:16], rec[2])
		buf.Write(rb)
	}
	return buf.Bytes()
}

func TestLoad_TrivialChain(t *testing.T) {
	// A->B->C->A, each freq 1 (scenario S1's profile).
	data := encode(t, 1, 3, [][3]uint64{
		{1, 2, 1},
		{2, 3, 1},
		{3, 1, 1},
	})
	res, err := profile.Load(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Graph.NodeCount())
	assert.Equal(t, 3, res.Graph.EdgeCount())

	nodeA, ok := res.Graph.ControlNodeByHistory(core.History{ir.BlockID(1)})
	require.True(t, ok)
	assert.Len(t, nodeA.Successors(), 1)
}

func TestLoad_DuplicateEdgeErrors(t *testing.T) {
	data := encode(t, 1, 2, [][3]uint64{
		{1, 2, 1},
		{1, 2, 1},
	})
	_, err := profile.Load(bytes.NewReader(data))
	require.ErrorIs(t, err, profile.ErrDuplicateEdge)
}

func TestLoad_TruncatedRecord(t *testing.T) {
	data := encode(t, 1, 1, [][3]uint64{{1, 2, 1}})
	_, err := profile.Load(bytes.NewReader(data[:len(data)-2]))
	require.ErrorIs(t, err, profile.ErrTruncatedRecord)
}

func TestLoad_InvalidMarkovOrder(t *testing.T) {
	hdr := make([]byte, 12)
	_, err := profile.Load(bytes.NewReader(hdr))
	require.ErrorIs(t, err, profile.ErrInvalidMarkovOrder)
}

func TestHotBlocks_Order1ProfileReportsHotBlock(t *testing.T) {
	data := encode(t, 1, 2, [][3]uint64{{1, 2, 10}})
	res, err := profile.Load(bytes.NewReader(data))
	require.NoError(t, err)
	hot, err := res.HotBlocks(0.95)
	require.NoError(t, err)
	assert.Contains(t, hot, ir.BlockID(2))
}
