package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/kubelift/cmd/kubelift/handlers"
)

// Rebuild returns the command for provisioning or converging the cluster.
//
// Optional flags:
//
//	--config, -c:         Path to cluster configuration YAML file
//	--init-control-plane: Bootstrap k3s on the first control-plane host
//	--skip-init:          Skip host preparation and node joins
//	--skip-observability: Skip the monitoring stack
//	--skip-apps:          Skip the Argo CD app platform
//	--dry-run:            Log every action instead of applying it
//	--auto-confirm:       Answer destructive gates without prompting
//	--verbose:            Debug-level logging
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (needed for the infrastructure phase)
func Rebuild() *cobra.Command {
	var opts handlers.RebuildOptions

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Provision or converge the cluster",
		Long: `Provision or converge the cluster through the ordered phase list:
infrastructure, host preparation, control-plane bootstrap, node joins,
then the addon stack (CNI, storage, ingress, certificates, observability,
app platform).

Each phase probes current state first and is skipped when its resource
already exists, so rerunning rebuild converges an existing cluster instead
of rebuilding it from scratch.

The control-plane bootstrap wipes the k3s datastore on the first
control-plane host and therefore only runs with --init-control-plane.

Examples:
  # Converge the cluster described by kubelift.yaml
  kubelift rebuild

  # First-time bootstrap, including the control plane
  kubelift rebuild --init-control-plane

  # See what would happen without touching anything
  kubelift rebuild --dry-run

  # Reconcile only the addon stack on prepared hosts
  kubelift rebuild --skip-init`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Rebuild(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: kubelift.yaml)")
	cmd.Flags().BoolVar(&opts.InitControlPlane, "init-control-plane", false, "Bootstrap k3s on the first control-plane host (wipes its datastore)")
	cmd.Flags().BoolVar(&opts.SkipInit, "skip-init", false, "Skip host preparation and node joins, reconcile addons only")
	cmd.Flags().BoolVar(&opts.SkipObservability, "skip-observability", false, "Skip the monitoring stack phase")
	cmd.Flags().BoolVar(&opts.SkipApps, "skip-apps", false, "Skip the app platform phase")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log actions without applying them")
	cmd.Flags().BoolVar(&opts.AutoConfirm, "auto-confirm", false, "Skip confirmation prompts for destructive phases")
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")

	return cmd
}
