package handlers

import (
	"context"
	"errors"

	"github.com/imamik/kubelift/internal/lifecycle"
	"github.com/imamik/kubelift/internal/logging"
	"github.com/imamik/kubelift/internal/workflow"
)

// RebuildOptions carries the rebuild command's flag values.
type RebuildOptions struct {
	ConfigPath        string
	InitControlPlane  bool
	SkipInit          bool
	SkipObservability bool
	SkipApps          bool
	DryRun            bool
	AutoConfirm       bool
	Verbose           bool
}

// Rebuild provisions or converges the cluster through the ordered phase
// list. A declined confirmation gate is a clean abort, not an error.
func Rebuild(ctx context.Context, opts RebuildOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := checkInfraPrerequisites(cfg); err != nil {
		return err
	}

	runID := newRunID()
	log, closeLog, err := newRunLogger("rebuild", runID, opts.Verbose)
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

	phases := workflow.Rebuild(deps, workflow.RebuildOptions{
		InitControlPlane:  opts.InitControlPlane,
		SkipInit:          opts.SkipInit,
		SkipObservability: opts.SkipObservability,
		SkipApps:          opts.SkipApps,
	})

	runCtx := lifecycle.NewContext(ctx, cfg, "rebuild", log,
		lifecycle.WithRunID(runID),
		lifecycle.WithTimeouts(timeouts),
		lifecycle.WithMode(mode(opts.DryRun)),
		lifecycle.WithAutoConfirm(opts.AutoConfirm),
		lifecycle.WithConfirmer(newConfirmer()),
	)

	result, err := lifecycle.Run(runCtx, phases)
	if result != nil {
		result.LogSummary(log)
	}
	if errors.Is(err, lifecycle.ErrConfirmationDeclined) {
		log.Info().Msg("aborted by user")
		return nil
	}
	return err
}

func mode(dryRun bool) lifecycle.Mode {
	if dryRun {
		return lifecycle.ModeDryRun
	}
	return lifecycle.ModeApply
}
