package segment

import (
	"encoding/binary"

	"github.com/minio/highwayhash"

	"github.com/opcycle/taskgraph/core"
)

// signatureKey is a fixed 32-byte HighwayHash key. Signatures only need to
// be stable within a single analysis run, never compared across runs or
// processes, so a constant key is sufficient.
var signatureKey = []byte("taskgraph-cycle-signature-v1----")

// signature returns a canonical hash of a node set, used to recognize that
// two candidates discovered from different pivots describe the same cycle
// and to remember which cycles the segmenter has already accepted.
func signature(nodes map[core.NodeID]struct{}) uint64 {
	ids := core.SortedNodeIDs(nodes)
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(id))
	}
	h, err := highwayhash.New64(signatureKey)
	if err != nil {
		panic("segment: invalid HighwayHash key: " + err.Error())
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}
