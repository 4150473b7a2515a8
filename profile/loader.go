package profile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// Header is the 12-byte fixed profile header.
type Header struct {
	K          uint32
	BlockCount uint32
	EdgeCount  uint32
}

// Result carries the loaded Graph plus bookkeeping needed by later stages
// and by the hot-code supplement (§3 SUPPLEMENTED FEATURES).
type Result struct {
	Header Header
	Graph  *core.Graph
	// BlockFreq sums the frequency of every edge whose sink history's
	// newest block equals a given BlockID — the per-block hotness the
	// (out-of-core) hot-code pass would need.
	BlockFreq map[ir.BlockID]uint64
	TotalFreq uint64
}

// Load parses the binary Markov profile from r and materializes its nodes
// and edges.
func Load(r io.Reader) (*Result, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("profile: reading header: %w: %v", ErrMalformedHeader, err)
	}
	h := Header{
		K:          binary.LittleEndian.Uint32(hdr[0:4]),
		BlockCount: binary.LittleEndian.Uint32(hdr[4:8]),
		EdgeCount:  binary.LittleEndian.Uint32(hdr[8:12]),
	}
	if h.K == 0 {
		return nil, ErrInvalidMarkovOrder
	}

	g := core.New()
	res := &Result{Header: h, Graph: g, BlockFreq: make(map[ir.BlockID]uint64)}

	seen := make(map[string]struct{}, h.EdgeCount)
	recordSize := int(h.K)*4 + 4 + 8
	buf := make([]byte, recordSize)

	for i := uint32(0); i < h.EdgeCount; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("profile: record %d: %w: %v", i, ErrTruncatedRecord, err)
		}
		srcHist := make(core.History, h.K)
		for j := uint32(0); j < h.K; j++ {
			srcHist[j] = ir.BlockID(binary.LittleEndian.Uint32(buf[j*4 : j*4+4]))
		}
		off := int(h.K) * 4
		snk := ir.BlockID(binary.LittleEndian.Uint32(buf[off : off+4]))
		freq := binary.LittleEndian.Uint64(buf[off+4 : off+12])

		dedupKey := srcHist.Key() + ">" + fmt.Sprint(snk)
		if _, dup := seen[dedupKey]; dup {
			return nil, fmt.Errorf("profile: record %d (src=%v snk=%v): %w", i, srcHist, snk, ErrDuplicateEdge)
		}
		seen[dedupKey] = struct{}{}

		srcNode, _ := g.AddControlNode(srcHist)
		snkHist := srcHist.Slide(snk)
		snkNode, _ := g.AddControlNode(snkHist)

		if _, err := g.AddUnconditionalEdge(srcNode.ID(), snkNode.ID(), freq); err != nil {
			return nil, fmt.Errorf("profile: record %d: %w", i, err)
		}

		res.BlockFreq[snk] += freq
		res.TotalFreq += freq
	}
	return res, nil
}

// HotBlocks picks blocks in decreasing frequency order (ties by ascending
// block ID) until their cumulative frequency makes up at least threshold
// (e.g. 0.95) of total observed frequency, and returns them as a map from
// block to frequency; the map carries no order and the running sum is not
// returned. It is the bookkeeping a hot-code heuristic would need — the
// heuristic itself is out of scope and lives outside this module. Only
// meaningful at Markov order 1; returns ErrHotCodeRequiresOrder1 otherwise.
func (r *Result) HotBlocks(threshold float64) (map[ir.BlockID]uint64, error) {
	if r.Header.K != 1 {
		return nil, ErrHotCodeRequiresOrder1
	}
	type kv struct {
		block ir.BlockID
		freq  uint64
	}
	all := make([]kv, 0, len(r.BlockFreq))
	for b, f := range r.BlockFreq {
		all = append(all, kv{b, f})
	}
	// Deterministic: sort by freq desc, then block ID asc.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && (all[j].freq > all[j-1].freq ||
			(all[j].freq == all[j-1].freq && all[j].block < all[j-1].block)); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	out := make(map[ir.BlockID]uint64)
	var running uint64
	target := uint64(math.Ceil(threshold * float64(r.TotalFreq)))
	for _, e := range all {
		if running >= target {
			break
		}
		out[e.block] = e.freq
		running += e.freq
	}
	return out, nil
}
