// Package profile reads the binary Markov execution profile,
// §6 "Input profile") and materializes it as a core.Graph: one Control
// node per distinct length-k block-history vector, and one Unconditional
// edge per profile record.
//
// The wire format is little-endian and unpadded:
//
//	u32 k; u32 block_count; u32 edge_count;
//	for edge_count records: u32 history[k]; u32 snk; u64 freq;
//
// block_count is advisory only — it is not cross-checked against the
// number of distinct histories actually observed.
package profile
