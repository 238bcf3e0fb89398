package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/imamik/kubelift/internal/config"
)

// Mode selects between executing actions and simulating them.
type Mode string

const (
	// ModeApply executes phase actions.
	ModeApply Mode = "apply"
	// ModeDryRun resolves actionable phases to SKIPPED (simulated).
	// Probes still run; they are read-only.
	ModeDryRun Mode = "dry-run"
)

// Context carries everything a phase needs during a run. It embeds the
// caller's context.Context, so phase functions use it directly for
// cancellation and deadlines.
type Context struct {
	context.Context

	Config   *config.Config
	Timeouts *config.Timeouts
	Log      zerolog.Logger

	Workflow     string
	RunID        string
	StartedAt    time.Time
	Mode         Mode
	AutoConfirm  bool
	PreserveData bool

	Confirmer Confirmer

	// confirmed caches the first affirmative gate answer; one "yes"
	// covers all destructive phases of the run.
	confirmed bool
}

// Option configures a Context.
type Option func(*Context)

// WithMode sets the execution mode.
func WithMode(m Mode) Option {
	return func(c *Context) { c.Mode = m }
}

// WithAutoConfirm pre-approves every confirmation gate.
func WithAutoConfirm(v bool) Option {
	return func(c *Context) { c.AutoConfirm = v }
}

// WithPreserveData makes reverse runs skip data-destructive phases.
func WithPreserveData(v bool) Option {
	return func(c *Context) { c.PreserveData = v }
}

// WithConfirmer sets the confirmation gate implementation.
func WithConfirmer(cf Confirmer) Option {
	return func(c *Context) { c.Confirmer = cf }
}

// WithTimeouts overrides the environment-derived timeouts.
func WithTimeouts(t *config.Timeouts) Option {
	return func(c *Context) { c.Timeouts = t }
}

// WithRunID sets the run identifier, normally shared with the run log.
func WithRunID(id string) Option {
	return func(c *Context) { c.RunID = id }
}

// NewContext creates a run context for the given workflow.
func NewContext(ctx context.Context, cfg *config.Config, workflow string, log zerolog.Logger, opts ...Option) *Context {
	c := &Context{
		Context:   ctx,
		Config:    cfg,
		Timeouts:  config.LoadTimeouts(),
		Log:       log,
		Workflow:  workflow,
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Mode:      ModeApply,
		Confirmer: TerminalConfirmer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// confirmDestructive runs the confirmation gate for a destructive phase.
// The first affirmative answer is cached for the rest of the run. The
// gate is never reached in dry-run mode.
func (c *Context) confirmDestructive(p *Phase) (bool, error) {
	if c.AutoConfirm || c.confirmed {
		return true, nil
	}

	title := fmt.Sprintf("Phase %q is destructive. Continue?", p.Name)
	description := fmt.Sprintf("Cluster %q will be modified irreversibly.", c.Config.ClusterName)
	if p.DataDestructive {
		description = fmt.Sprintf("Persisted data on cluster %q will be destroyed.", c.Config.ClusterName)
	}

	ok, err := c.Confirmer.Confirm(c, title, description)
	if err != nil {
		return false, fmt.Errorf("confirmation gate failed: %w", err)
	}
	if ok {
		c.confirmed = true
	}
	return ok, nil
}
