package main

import (
	"github.com/spf13/cobra"

	"netsense/internal/pipeline"
)

// compareCmd compares two already-simulated directories
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two existing simulation runs without re-simulating",
	Long: `Compares the link and OD performance tables of two directories that
already contain simulation results, and writes the comparison reports. No
simulation is invoked and no network file is edited.

Example:
  netsense compare --baseline Before --modified After --threshold 0.1`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	addComparisonFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := pipeline.New(logger, cfg, nil).CompareOnly(cmd.Context())
	if err != nil {
		return err
	}

	printOutcome(out)
	return nil
}
