// Package workflow assembles the phase lists behind the kubelift
// subcommands. Each builder wires the configured collaborators (IaC
// runner, host manager, cluster API, addon installer, cloud API) into
// lifecycle phases; the lifecycle executor then runs them forward for
// rebuild and node-prepare, or in reverse for teardown.
package workflow
