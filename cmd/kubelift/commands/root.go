// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the kubelift CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubelift",
		Short: "Drive the lifecycle of a k3s cluster on Hetzner Cloud",
	}

	// Lifecycle workflows
	cmd.AddCommand(Rebuild())
	cmd.AddCommand(Teardown())
	cmd.AddCommand(NodePrepare())

	// Independent engines
	cmd.AddCommand(Backup())
	cmd.AddCommand(Verify())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
