package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/opcycle/taskgraph/dot"
	"github.com/opcycle/taskgraph/ir"
	"github.com/opcycle/taskgraph/pipeline"
)

var (
	outPath string
	dotPath string
	dotFull bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline and write the kernel output JSON",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&outPath, "out", "", "path to write the kernel JSON (default: stdout)")
	runCmd.Flags().StringVar(&dotPath, "dot", "", "optional path to write a DOT rendering of the final graph")
	runCmd.Flags().BoolVar(&dotFull, "dot-full-history", false, "label DOT nodes with their full block history instead of just the newest block")
}

func runRun(cmd *cobra.Command, args []string) error {
	if profilePath == "" || irPath == "" {
		return fmt.Errorf("taskgraph run: --profile and --ir are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	prov, err := loadIR(irPath)
	if err != nil {
		return err
	}
	callers, entrances := ir.BlockCallers(nil), ir.ThreadEntrances(nil)
	if blockInfoPath != "" {
		callers, entrances, err = loadBlockInfo(blockInfoPath)
		if err != nil {
			return err
		}
	}

	validBlocks, err := resolveValidBlocks(prov)
	if err != nil {
		return err
	}

	f, err := os.Open(profilePath)
	if err != nil {
		return fmt.Errorf("taskgraph run: opening profile %s: %w", profilePath, err)
	}
	defer f.Close()

	res, err := pipeline.Run(context.Background(), f, prov, pipeline.Config{
		Analysis:    cfg,
		Classify:    classifyOptions(callers, entrances),
		ValidBlocks: validBlocks,
		Logger:      newLogger(),
	})
	if err != nil {
		return fmt.Errorf("taskgraph run: %w", err)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("taskgraph run: creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Document); err != nil {
		return fmt.Errorf("taskgraph run: encoding kernel JSON: %w", err)
	}

	if dotPath != "" {
		df, err := os.Create(dotPath)
		if err != nil {
			return fmt.Errorf("taskgraph run: creating %s: %w", dotPath, err)
		}
		defer df.Close()
		mode := dot.Compact
		if dotFull {
			mode = dot.FullHistory
		}
		if err := dot.Write(df, res.Graph, mode); err != nil {
			return fmt.Errorf("taskgraph run: writing DOT: %w", err)
		}
	}

	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Fprintf(os.Stderr, "run %s: %d kernel(s) found\n", res.RunID, len(res.Document.Kernels))
	return nil
}

// resolveValidBlocks parses --valid-blocks, defaulting to every block prov
// names when the flag was never given.
func resolveValidBlocks(prov ir.Provider) ([]ir.BlockID, error) {
	if len(validBlocksFlag) == 0 {
		return allBlockIDs(prov), nil
	}
	out := make([]ir.BlockID, 0, len(validBlocksFlag))
	for _, s := range validBlocksFlag {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("taskgraph: --valid-blocks: invalid block id %q: %w", s, err)
		}
		out = append(out, ir.BlockID(n))
	}
	return out, nil
}
