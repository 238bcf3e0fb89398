package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWorkers bounds check parallelism when neither the config nor the
// environment says otherwise.
const DefaultWorkers = 4

// Runner executes a check battery on a bounded worker pool.
type Runner struct {
	workers int
	timeout time.Duration
	log     zerolog.Logger

	// onResult, when set, receives each result as its check finishes
	// (completion order). The live view streams from it.
	onResult func(index int, result CheckResult)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the worker pool.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCheckTimeout bounds each individual check.
func WithCheckTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithResultCallback streams results as checks complete.
func WithResultCallback(fn func(index int, result CheckResult)) RunnerOption {
	return func(r *Runner) { r.onResult = fn }
}

// NewRunner builds a runner with bounded parallelism.
func NewRunner(log zerolog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		workers: DefaultWorkers,
		timeout: 30 * time.Second,
		log:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the battery and merges results in declaration order. Checks
// are read-only, so they run concurrently; each one is bounded by the
// per-check timeout. A check that returns after cancellation still lands in
// the report, marked failed by its own context error.
func (r *Runner) Run(ctx context.Context, cluster string, checks []Check) *Report {
	report := &Report{
		Cluster:   cluster,
		StartedAt: time.Now(),
		Results:   make([]CheckResult, len(checks)),
	}

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range checks {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := r.runOne(ctx, check)

			mu.Lock()
			report.Results[i] = result
			mu.Unlock()

			if r.onResult != nil {
				r.onResult(i, result)
			}
		}(i, checks[i])
	}
	wg.Wait()

	report.Duration = time.Since(report.StartedAt)
	report.count()
	return report
}

// runOne executes a single check with its timeout and converts panics and
// timeouts into fail results instead of letting them escape the pool.
func (r *Runner) runOne(ctx context.Context, check Check) (result CheckResult) {
	result = CheckResult{Name: check.Name, Category: check.Category}

	defer func() {
		if rec := recover(); rec != nil {
			result.Status = StatusFail
			result.Detail = fmt.Sprintf("check panicked: %v", rec)
			r.log.Error().Str("check", check.Name).Interface("panic", rec).Msg("check panicked")
		}
	}()

	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	status, detail := check.Run(checkCtx)
	if err := checkCtx.Err(); err != nil && status != StatusPass {
		// A check cut short by its deadline reports what it saw; note
		// the timeout so the detail is not mistaken for a settled
		// observation.
		detail = fmt.Sprintf("%s (check deadline exceeded)", detail)
	}

	result.Status = status
	result.Detail = detail

	ev := r.log.Debug()
	switch status {
	case StatusWarn:
		ev = r.log.Warn()
	case StatusFail:
		ev = r.log.Error()
	}
	ev.Str("check", check.Name).Str("status", string(status)).Str("detail", detail).Msg("check complete")
	return result
}

// QuickSubset filters the battery down to the checks marked Quick.
func QuickSubset(checks []Check) []Check {
	var quick []Check
	for _, c := range checks {
		if c.Quick {
			quick = append(quick, c)
		}
	}
	return quick
}
