package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/kubelift/cmd/kubelift/handlers"
)

// Verify returns the command for running the cluster health battery.
//
// Optional flags:
//
//	--config, -c:   Path to cluster configuration YAML file
//	--quick:        Run only the core checks
//	--json-output:  Emit the report as a single JSON document
//	--verbose:      Print detail lines for passing checks too
//
// The exit code is non-zero only when at least one check fails; warnings
// never fail the run.
func Verify() *cobra.Command {
	var opts handlers.VerifyOptions

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the cluster health check battery",
		Long: `Run the health check battery against the live cluster: control plane,
nodes, networking, storage, addons, workloads and the cloud servers
underneath.

Checks are read-only and run in parallel on a bounded worker pool.
Each check reports pass, warn or fail; the command exits non-zero only
when something failed. On an interactive terminal the checks stream
into a live view as they complete.

Examples:
  # Full battery, human-readable output
  kubelift verify

  # Just the core checks, machine-readable
  kubelift verify --quick --json-output`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: kubelift.yaml)")
	cmd.Flags().BoolVar(&opts.Quick, "quick", false, "Run only the core checks")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json-output", false, "Emit the report as JSON")
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Show detail lines for passing checks")

	return cmd
}
