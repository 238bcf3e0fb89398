package lifecycle

import (
	"time"

	"github.com/rs/zerolog"
)

// Result is the record of one run.
type Result struct {
	Workflow   string
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome

	// Aborted is set when the operator declined the confirmation gate.
	Aborted bool
	// Cancelled is set when the context was cancelled mid-run.
	Cancelled bool
}

// Counts aggregates outcome statuses.
type Counts struct {
	Succeeded int
	Skipped   int
	Warned    int
	Failed    int
	Pending   int
}

func newResult(ctx *Context, phases []Phase) *Result {
	r := &Result{
		Workflow:  ctx.Workflow,
		RunID:     ctx.RunID,
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(phases)),
	}
	for i, p := range phases {
		r.Outcomes[i] = Outcome{Phase: p.Name, Status: StatusPending}
	}
	return r
}

func (r *Result) finish() {
	r.FinishedAt = time.Now()
}

// Duration returns the wall-clock time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts tallies the outcomes by status.
func (r *Result) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSucceeded:
			c.Succeeded++
		case StatusSkipped:
			c.Skipped++
		case StatusFailedWarn:
			c.Warned++
		case StatusFailedFatal:
			c.Failed++
		case StatusPending, StatusRunning:
			c.Pending++
		}
	}
	return c
}

// Failed reports whether any phase failed fatally.
func (r *Result) Failed() bool {
	return r.Counts().Failed > 0
}

// LogSummary writes the per-phase outcomes and totals to the run log.
func (r *Result) LogSummary(log zerolog.Logger) {
	for _, o := range r.Outcomes {
		ev := log.Info()
		switch o.Status {
		case StatusFailedFatal:
			ev = log.Error()
		case StatusFailedWarn:
			ev = log.Warn()
		}
		ev = ev.Str("phase", o.Phase).Str("status", o.StatusLabel())
		if o.Detail != "" {
			ev = ev.Str("detail", o.Detail)
		}
		if o.Duration > 0 {
			ev = ev.Dur("duration", o.Duration)
		}
		ev.Msg("phase outcome")
	}

	c := r.Counts()
	log.Info().
		Str("workflow", r.Workflow).
		Int("succeeded", c.Succeeded).
		Int("skipped", c.Skipped).
		Int("warned", c.Warned).
		Int("failed", c.Failed).
		Int("pending", c.Pending).
		Dur("duration", r.Duration()).
		Bool("aborted", r.Aborted).
		Bool("cancelled", r.Cancelled).
		Msg("run summary")
}
