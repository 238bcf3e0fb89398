package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imamik/kubelift/cmd/kubelift/handlers"
)

// Backup returns the command for exporting cluster state.
//
// Optional flags:
//
//	--config, -c:        Path to cluster configuration YAML file
//	--output-path, -o:   Directory the backup is written under
//	--scope:             What to export: cluster, workloads or all
//	--include-sensitive: Include Secret resources in the export
//	--verbose:           Debug-level logging
func Backup() *cobra.Command {
	var opts handlers.BackupOptions

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export cluster state to a timestamped directory",
		Long: `Export cluster state to a timestamped backup directory.

Scope "cluster" saves the cluster-level resources plus an etcd snapshot
taken on the first control-plane host. Scope "workloads" exports the
workload manifests of the target namespaces. Scope "all" (the default)
does both.

Secrets are left out of the export unless --include-sensitive is set.

Each collection fails independently; a backup succeeds as long as at
least one collection produced artifacts, and the manifest records which
ones did not. When an S3 target is configured the run directory is
uploaded as a tar archive.

Examples:
  # Full backup into the configured output directory
  kubelift backup

  # Workload manifests only, including secrets
  kubelift backup --scope workloads --include-sensitive -o /mnt/backups`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.Scope {
			case handlers.ScopeCluster, handlers.ScopeWorkloads, handlers.ScopeAll:
			default:
				return fmt.Errorf("invalid scope %q: must be cluster, workloads or all", opts.Scope)
			}
			return handlers.Backup(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: kubelift.yaml)")
	cmd.Flags().StringVarP(&opts.OutputPath, "output-path", "o", "", "Backup output directory (default from configuration)")
	cmd.Flags().StringVar(&opts.Scope, "scope", handlers.ScopeAll, "Backup scope: cluster, workloads or all")
	cmd.Flags().BoolVar(&opts.IncludeSensitive, "include-sensitive", false, "Include Secret resources in the export")
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Enable debug logging")

	return cmd
}
