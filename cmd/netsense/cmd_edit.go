package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"netsense/internal/network"
)

// editCmd applies the configured link modifications without simulating
var editCmd = &cobra.Command{
	Use:   "edit [link-file]",
	Short: "Apply link modifications to a network file in place",
	Long: `Applies the configured link modifications to a GMNS link file,
re-sorts the links by (from_node_id, to_node_id) and reassigns sequential
link IDs, then rewrites the file in place.

Without an argument the network file inside the modified simulation
directory is edited.

Example:
  netsense edit --config netsense.yaml After/link.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.ModifiedDir, cfg.NetworkFile)
	if len(args) == 1 {
		path = args[0]
	}
	return network.EditFile(logger, path, cfg.Modifications)
}
