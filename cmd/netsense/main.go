package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"netsense/internal/config"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Logger. logLevel is shared with loadConfig so the configured
	// logging.level takes effect once the config is read.
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "netsense",
	Short: "netsense - sensitivity analysis for traffic assignment networks",
	Long: `netsense runs a sensitivity analysis for a road-network traffic
assignment model: it runs a baseline simulation, applies configured edits to
network link attributes, reruns the simulation, and reports which links and
OD pairs changed by more than a threshold.

The traffic assignment itself is delegated to an external engine (DTALite by
default) that reads its input tables from a simulation directory and writes
its result tables back into it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Level = logLevel
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to yaml config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(compareCmd)
}

// loadConfig loads the configured (or default) settings and applies any
// per-command flag overrides the caller changed explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold = thresholdFlag
	}
	if cmd.Flags().Changed("baseline") {
		cfg.BaselineDir = baselineFlag
	}
	if cmd.Flags().Changed("modified") {
		cfg.ModifiedDir = modifiedFlag
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = outputFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// --verbose wins over the configured level.
	if !verbose {
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid logging level %q: %w", cfg.Logging.Level, err)
		}
		logLevel.SetLevel(level)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
