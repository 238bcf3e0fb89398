package lifecycle

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/imamik/kubelift/internal/util/retry"
)

// Run executes phases in order, first to last.
//
// Phases run strictly one at a time. A fatal failure halts the run and
// leaves the remaining phases PENDING; a warn failure is recorded and
// the run continues. When the context is cancelled the in-flight phase
// finishes, the run is marked cancelled and nothing further executes.
func Run(ctx *Context, phases []Phase) (*Result, error) {
	result := newResult(ctx, phases)
	ctx.Log.Info().
		Int("phases", len(phases)).
		Str("mode", string(ctx.Mode)).
		Msg("starting run")

	for i := range phases {
		phase := &phases[i]
		outcome := &result.Outcomes[i]
		log := ctx.Log.With().Str("phase", phase.Name).Int("step", i+1).Int("total", len(phases)).Logger()

		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			result.finish()
			log.Warn().Msg("run cancelled, remaining phases not executed")
			return result, fmt.Errorf("run cancelled: %w", err)
		}

		probe, probeOK := runProbe(ctx, phase, log)

		if phase.SkipIfPresent && probeOK && probe.Exists {
			outcome.set(StatusSkipped, skipDetail(probe))
			log.Info().Str("resource", probe.ResourceID).Msg("skipped, already present")
			continue
		}

		if ctx.Mode == ModeDryRun {
			outcome.set(StatusSkipped, "simulated")
			outcome.Simulated = true
			log.Info().Msg("SKIPPED (simulated)")
			continue
		}

		if phase.Destructive {
			ok, err := ctx.confirmDestructive(phase)
			if err != nil {
				result.finish()
				return result, err
			}
			if !ok {
				result.Aborted = true
				result.finish()
				log.Info().Msg("aborted by user, nothing further will run")
				return result, ErrConfirmationDeclined
			}
		}

		outcome.Status = StatusRunning
		log.Info().Msg("starting")
		start := time.Now()
		err := phase.Apply(ctx)
		outcome.Duration = time.Since(start)

		if err != nil {
			if phase.Severity == SeverityFatal {
				outcome.set(StatusFailedFatal, err.Error())
				result.finish()
				log.Error().Err(err).Msg("failed, halting run")
				return result, &PhaseError{Phase: phase.Name, Err: err}
			}
			outcome.set(StatusFailedWarn, err.Error())
			log.Warn().Err(err).Msg("failed, continuing")
			continue
		}

		outcome.set(StatusSucceeded, "")
		log.Info().Dur("duration", outcome.Duration).Msg("completed")
	}

	result.finish()
	ctx.Log.Info().Dur("duration", result.Duration()).Msg("run completed")
	return result, nil
}

// RunReverse executes removal actions in reverse declaration order.
//
// Phases whose resource is already gone resolve to SKIPPED, as do
// phases without a removal action and, when data preservation is
// requested, data-destructive phases. After a successful removal the
// probe is polled until the resource disappears; if it never does, the
// phase's forced cleanup runs and the phase is recorded FAILED_WARN so
// the fallback is never silent.
func RunReverse(ctx *Context, phases []Phase) (*Result, error) {
	ordered := make([]Phase, len(phases))
	for i := range phases {
		ordered[len(phases)-1-i] = phases[i]
	}

	result := newResult(ctx, ordered)
	ctx.Log.Info().
		Int("phases", len(ordered)).
		Str("mode", string(ctx.Mode)).
		Msg("starting reverse run")

	for i := range ordered {
		phase := &ordered[i]
		outcome := &result.Outcomes[i]
		log := ctx.Log.With().Str("phase", phase.Name).Int("step", i+1).Int("total", len(ordered)).Logger()

		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			result.finish()
			log.Warn().Msg("run cancelled, remaining phases not executed")
			return result, fmt.Errorf("run cancelled: %w", err)
		}

		if ctx.PreserveData && phase.DataDestructive {
			outcome.set(StatusSkipped, "data preserved")
			log.Info().Msg("skipped, data preservation requested")
			continue
		}

		probe, probeOK := runProbe(ctx, phase, log)

		if phase.Probe != nil && probeOK && !probe.Exists {
			outcome.set(StatusSkipped, "not present")
			log.Info().Str("resource", probe.ResourceID).Msg("skipped, not present")
			continue
		}

		if phase.Remove == nil {
			outcome.set(StatusSkipped, "no removal action")
			log.Info().Msg("skipped, no removal action")
			continue
		}

		if ctx.Mode == ModeDryRun {
			outcome.set(StatusSkipped, "simulated")
			outcome.Simulated = true
			log.Info().Msg("SKIPPED (simulated)")
			continue
		}

		if phase.Destructive {
			ok, err := ctx.confirmDestructive(phase)
			if err != nil {
				result.finish()
				return result, err
			}
			if !ok {
				result.Aborted = true
				result.finish()
				log.Info().Msg("aborted by user, nothing further will run")
				return result, ErrConfirmationDeclined
			}
		}

		outcome.Status = StatusRunning
		log.Info().Msg("removing")
		start := time.Now()
		err := phase.Remove(ctx)
		outcome.Duration = time.Since(start)

		if err != nil {
			if phase.Severity == SeverityFatal {
				outcome.set(StatusFailedFatal, err.Error())
				result.finish()
				log.Error().Err(err).Msg("removal failed, halting run")
				return result, &PhaseError{Phase: phase.Name, Err: err}
			}
			outcome.set(StatusFailedWarn, err.Error())
			log.Warn().Err(err).Msg("removal failed, continuing")
			continue
		}

		if phase.Probe != nil && !waitGone(ctx, phase) {
			resolveStuckRemoval(ctx, phase, outcome, log)
			continue
		}

		outcome.set(StatusSucceeded, "")
		log.Info().Dur("duration", outcome.Duration).Msg("removed")
	}

	result.finish()
	ctx.Log.Info().Dur("duration", result.Duration()).Msg("reverse run completed")
	return result, nil
}

// runProbe runs the phase probe with a bounded number of fixed-delay
// attempts. An inconclusive probe is logged and reported as not OK; the
// caller proceeds with the action rather than failing the phase.
func runProbe(ctx *Context, phase *Phase, log zerolog.Logger) (ProbeResult, bool) {
	if phase.Probe == nil {
		return ProbeResult{}, false
	}

	var probe ProbeResult
	err := retry.Do(ctx, func() error {
		var perr error
		probe, perr = phase.Probe(ctx)
		return perr
	},
		retry.WithMaxAttempts(ctx.Timeouts.ProbeAttempts),
		retry.WithInitialDelay(ctx.Timeouts.ProbeDelay),
		retry.WithFixedBackoff(),
	)
	if err != nil {
		perr := &ProbeError{Phase: phase.Name, Err: err}
		log.Warn().Err(perr).Msg("probe inconclusive, proceeding with action")
		return ProbeResult{}, false
	}
	return probe, true
}

// waitGone polls the probe until the resource disappears or the
// termination wait elapses.
func waitGone(ctx *Context, phase *Phase) bool {
	deadline := time.Now().Add(ctx.Timeouts.TerminationWait)
	for {
		probe, err := phase.Probe(ctx)
		if err == nil && !probe.Exists {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(ctx.Timeouts.PollInterval):
		}
	}
}

// resolveStuckRemoval handles a removal whose resource never disappeared.
func resolveStuckRemoval(ctx *Context, phase *Phase, outcome *Outcome, log zerolog.Logger) {
	if phase.ForceCleanup == nil {
		outcome.set(StatusFailedWarn, fmt.Sprintf("still present after %s", ctx.Timeouts.TerminationWait))
		log.Warn().Msg("resource still present after removal, no forced cleanup available")
		return
	}

	log.Warn().Msg("resource still present after removal, applying forced cleanup")
	if err := phase.ForceCleanup(ctx); err != nil {
		outcome.set(StatusFailedWarn, fmt.Sprintf("forced cleanup failed: %v", err))
		log.Warn().Err(err).Msg("forced cleanup failed")
		return
	}
	outcome.set(StatusFailedWarn, "forced cleanup applied")
	log.Warn().Msg("forced cleanup applied")
}

func skipDetail(probe ProbeResult) string {
	if probe.Detail != "" {
		return probe.Detail
	}
	return "already present"
}
