// Package kernelio encodes and decodes the kernel output JSON document:
// per-task node/block membership, entrance/exit block pairs, parent/child/
// dominator relations, and the run's entropy snapshot. No external JSON
// library appears anywhere in the example pack for plain struct
// marshaling, so this package uses stdlib encoding/json directly.
package kernelio

import "github.com/opcycle/taskgraph/ir"

// Kernel is one discovered task's entry in the output document, keyed by
// its TaskID (stringified) in Document.Kernels.
type Kernel struct {
	Nodes      []uint64                `json:"Nodes"`
	Blocks     []ir.BlockID            `json:"Blocks"`
	Labels     []string                `json:"Labels"`
	Entrances  map[string][]ir.BlockID `json:"Entrances"`
	Exits      map[string][]ir.BlockID `json:"Exits"`
	Children   []uint32                `json:"Children"`
	Parents    []uint32                `json:"Parents"`
	Dominators []uint32                `json:"Dominators"`
}

// Entropy captures a coarse entropy snapshot of the graph's edge-frequency
// distribution at a point in the pipeline.
type Entropy struct {
	Bits      float64 `json:"bits"`
	EdgeCount float64 `json:"edge_count"`
	NodeCount float64 `json:"node_count"`
}

// Document is the full kernel output file.
type Document struct {
	ValidBlocks  []ir.BlockID            `json:"ValidBlocks"`
	BlockCallers map[string][]ir.BlockID `json:"BlockCallers"`
	Entropy      struct {
		Start Entropy `json:"Start"`
		End   Entropy `json:"End"`
	} `json:"Entropy"`
	Kernels                 map[string]Kernel `json:"Kernels"`
	NonKernelBlocks         []ir.BlockID      `json:"NonKernelBlocks"`
	AverageKernelSizeNodes  float64           `json:"Average Kernel Size (Nodes)"`
	AverageKernelSizeBlocks float64           `json:"Average Kernel Size (Blocks)"`
}
