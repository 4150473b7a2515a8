// Command taskgraph is a thin CLI front end over the pipeline package: it
// reads a binary profile and a JSON IR dump from disk, runs the five-stage
// analysis, and writes the kernel output JSON (optionally a DOT rendering
// alongside it). It is explicitly non-core — every decision of substance
// lives in pipeline and the packages it wires, not here.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
