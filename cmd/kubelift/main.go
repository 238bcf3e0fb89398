// Package main is the entry point for the kubelift CLI.
//
// kubelift drives the full lifecycle of a k3s cluster on Hetzner Cloud:
// phased rebuild and teardown, backup of cluster state, an independent
// verification battery, and per-host k3s staging.
//
// Commands: rebuild, teardown, backup, verify, node-prepare.
//
// For detailed usage information, run:
//
//	kubelift --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/kubelift/cmd/kubelift/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
