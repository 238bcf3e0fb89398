package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/kubelift/cmd/kubelift/handlers"
)

// NodePrepare returns the command for staging k3s on cluster hosts.
//
// Positional arguments select a subset of the configured nodes; without
// them every node is prepared in configuration order.
//
// Optional flags:
//
//	--config, -c:       Path to cluster configuration YAML file
//	--target-version:   k3s version to stage (default from configuration)
//	--dry-run:          Log every action instead of applying it
//	--verbose:          Debug-level logging
func NodePrepare() *cobra.Command {
	var opts handlers.NodePrepareOptions

	cmd := &cobra.Command{
		Use:   "node-prepare [node...]",
		Short: "Stage a k3s version on cluster hosts",
		Long: `Stage a k3s version on cluster hosts, one host at a time.

Each host is probed first: a host already running the target version is
skipped. Otherwise the OS prerequisites are installed and the k3s
installer reruns pinned to the target version, which upgrades a live
node in place.

Examples:
  # Bring every host to the configured version
  kubelift node-prepare

  # Upgrade a single worker to a specific version
  kubelift node-prepare worker-2 --target-version v1.32.0+k3s1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Nodes = args
			return handlers.NodePrepare(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: kubelift.yaml)")
	cmd.Flags().StringVar(&opts.TargetVersion, "target-version", "", "k3s version to stage (default: configured kubernetes version)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log actions without applying them")
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")

	return cmd
}
