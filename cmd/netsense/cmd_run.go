package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"netsense/internal/engine"
	"netsense/internal/pipeline"
)

var (
	thresholdFlag float64
	baselineFlag  string
	modifiedFlag  string
	outputFlag    string
)

// runCmd executes the full sensitivity analysis pipeline
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full sensitivity analysis pipeline",
	Long: `Runs the baseline simulation, applies the configured network
modifications, runs the modified simulation and writes the link and OD
comparison reports.

The modified run's link edit is destructive: the network file in the modified
directory is rewritten in place before the second simulation.

Example:
  netsense run --config netsense.yaml --threshold 1`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func addComparisonFlags(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&thresholdFlag, "threshold", "t", 0, "significance threshold for metric deltas")
	cmd.Flags().StringVar(&baselineFlag, "baseline", "", "baseline simulation directory")
	cmd.Flags().StringVar(&modifiedFlag, "modified", "", "modified simulation directory")
	cmd.Flags().StringVar(&outputFlag, "output", "", "directory for the comparison reports")
}

func init() {
	addComparisonFlags(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runner := engine.NewDTALite(logger, cfg.Engine.Command, cfg.Engine.Args...)
	out, err := pipeline.New(logger, cfg, runner).Run(cmd.Context())
	if err != nil {
		return err
	}

	printOutcome(out)
	return nil
}

func printOutcome(out *pipeline.Outcome) {
	fmt.Printf("Significant links:    %d of %d compared (%s)\n",
		out.Link.Significant.NumRows(), out.Link.Merged.NumRows(), out.LinkOutput)
	fmt.Printf("Significant OD pairs: %d of %d compared (%s)\n",
		out.OD.Significant.NumRows(), out.OD.Merged.NumRows(), out.ODOutput)
}
