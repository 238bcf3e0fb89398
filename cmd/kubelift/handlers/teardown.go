package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/kubelift/internal/lifecycle"
	"github.com/imamik/kubelift/internal/logging"
	"github.com/imamik/kubelift/internal/workflow"
)

// TeardownOptions carries the teardown command's flag values.
type TeardownOptions struct {
	ConfigPath   string
	SkipBackup   bool
	PreserveData bool
	FullReset    bool
	DryRun       bool
	AutoConfirm  bool
	Verbose      bool
}

// Teardown dismantles the cluster by replaying the rebuild phase list in
// reverse. Unless skipped, a backup runs first and teardown aborts when it
// produces nothing.
func Teardown(ctx context.Context, opts TeardownOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.FullReset {
		if err := checkInfraPrerequisites(cfg); err != nil {
			return err
		}
	}

	runID := newRunID()
	log, closeLog, err := newRunLogger("teardown", runID, opts.Verbose)
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

	if !opts.SkipBackup && !opts.DryRun {
		manifest, err := preBackup(ctx, cfg, backupRequest{
			Scope:     ScopeAll,
			OutputDir: cfg.Backup.OutputDir,
			RunID:     runID,
		}, log)
		if err != nil || manifest == nil || manifest.Succeeded == 0 {
			if err == nil {
				err = fmt.Errorf("no backup collection succeeded")
			}
			return fmt.Errorf("pre-teardown backup failed, aborting teardown: %w", err)
		}
		log.Info().Int("collections", manifest.Succeeded).Msg("pre-teardown backup complete")
	}

	phases := workflow.Teardown(deps, workflow.TeardownOptions{
		FullReset: opts.FullReset,
	})

	runCtx := lifecycle.NewContext(ctx, cfg, "teardown", log,
		lifecycle.WithRunID(runID),
		lifecycle.WithTimeouts(timeouts),
		lifecycle.WithMode(mode(opts.DryRun)),
		lifecycle.WithAutoConfirm(opts.AutoConfirm),
		lifecycle.WithPreserveData(opts.PreserveData),
		lifecycle.WithConfirmer(newConfirmer()),
	)

	result, err := lifecycle.RunReverse(runCtx, phases)
	if result != nil {
		result.LogSummary(log)
	}
	if errors.Is(err, lifecycle.ErrConfirmationDeclined) {
		log.Info().Msg("aborted by user")
		return nil
	}
	return err
}
