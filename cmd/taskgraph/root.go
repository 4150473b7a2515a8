package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opcycle/taskgraph/config"
)

var (
	profilePath     string
	irPath          string
	blockInfoPath   string
	configPath      string
	validBlocksFlag []string
)

var rootCmd = &cobra.Command{
	Use:   "taskgraph",
	Short: "Offline program-structuring analyzer: dCFG construction, inlining, CFG rewrite, task-cycle segmentation",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "path to the binary Markov execution profile (required)")
	rootCmd.PersistentFlags().StringVar(&irPath, "ir", "", "path to the JSON IR dump (required)")
	rootCmd.PersistentFlags().StringVar(&blockInfoPath, "blockinfo", "", "path to the auxiliary BlockInfo JSON (BlockCallers + ThreadEntrances)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config overriding the defaults")
	rootCmd.PersistentFlags().StringSliceVar(&validBlocksFlag, "valid-blocks", nil, "comma-separated block IDs the kernel output should account for; defaults to every block named in --ir")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
}

// loadConfig resolves --config if given, else config.Default().
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
