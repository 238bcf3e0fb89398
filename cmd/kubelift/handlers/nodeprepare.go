package handlers

import (
	"context"

	"github.com/imamik/kubelift/internal/lifecycle"
	"github.com/imamik/kubelift/internal/logging"
	"github.com/imamik/kubelift/internal/workflow"
)

// NodePrepareOptions carries the node-prepare command's flag values.
type NodePrepareOptions struct {
	ConfigPath    string
	Nodes         []string
	TargetVersion string
	DryRun        bool
	Verbose       bool
}

// NodePrepare stages a k3s version on the selected hosts, one host at a
// time in configuration order.
func NodePrepare(ctx context.Context, opts NodePrepareOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.TargetVersion != "" {
		cfg.KubernetesVersion = opts.TargetVersion
	}

	runID := newRunID()
	log, closeLog, err := newRunLogger("node-prepare", runID, opts.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	lock, err := acquireLock(logging.StateDir())
	if err != nil {
		return err
	}
	defer lock.Release()

	timeouts := loadTimeouts()
	deps, err := buildDeps(cfg, timeouts, log)
	if err != nil {
		return err
	}

	phases, err := workflow.NodePrepare(deps, opts.Nodes)
	if err != nil {
		return err
	}

	runCtx := lifecycle.NewContext(ctx, cfg, "node-prepare", log,
		lifecycle.WithRunID(runID),
		lifecycle.WithTimeouts(timeouts),
		lifecycle.WithMode(mode(opts.DryRun)),
	)

	result, err := lifecycle.Run(runCtx, phases)
	if result != nil {
		result.LogSummary(log)
	}
	return err
}
