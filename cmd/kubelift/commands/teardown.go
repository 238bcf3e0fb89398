package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/kubelift/cmd/kubelift/handlers"
)

// Teardown returns the command for dismantling the cluster.
//
// Optional flags:
//
//	--config, -c:    Path to cluster configuration YAML file
//	--skip-backup:   Skip the pre-teardown backup
//	--preserve-data: Keep data-bearing components (Longhorn, k3s datastore)
//	--full-reset:    Also destroy the cloud infrastructure
//	--dry-run:       Log every removal instead of applying it
//	--auto-confirm:  Answer destructive gates without prompting
//	--verbose:       Debug-level logging
func Teardown() *cobra.Command {
	var opts handlers.TeardownOptions

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Dismantle the cluster",
		Long: `Dismantle the cluster by replaying the rebuild phase list in reverse:
addons come off first, then the nodes leave, then k3s is uninstalled from
the control plane. With --full-reset the cloud infrastructure is destroyed
too.

A backup runs before anything is removed unless --skip-backup is set; if
that backup produces nothing, teardown aborts.

Every removal asks for confirmation unless --auto-confirm is set. A removal
that fails or gets stuck is logged and the teardown continues, applying a
forced cleanup where one exists.

Examples:
  # Remove the software stack, keep servers and data volumes
  kubelift teardown --preserve-data

  # Burn it all down, including the cloud resources
  kubelift teardown --full-reset --auto-confirm`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Teardown(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: kubelift.yaml)")
	cmd.Flags().BoolVar(&opts.SkipBackup, "skip-backup", false, "Skip the pre-teardown backup")
	cmd.Flags().BoolVar(&opts.PreserveData, "preserve-data", false, "Skip phases whose removal destroys persisted data")
	cmd.Flags().BoolVar(&opts.FullReset, "full-reset", false, "Also destroy the cloud infrastructure")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log removals without applying them")
	cmd.Flags().BoolVar(&opts.AutoConfirm, "auto-confirm", false, "Skip confirmation prompts for destructive phases")
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")

	return cmd
}
