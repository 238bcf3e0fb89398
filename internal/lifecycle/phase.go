package lifecycle

import "time"

// Status is the lifecycle state of a phase within a run.
type Status string

const (
	// StatusPending means the phase has not been reached yet.
	StatusPending Status = "PENDING"
	// StatusRunning means the phase action is in flight.
	StatusRunning Status = "RUNNING"
	// StatusSkipped means the phase resolved without running its action.
	StatusSkipped Status = "SKIPPED"
	// StatusSucceeded means the phase action completed.
	StatusSucceeded Status = "SUCCEEDED"
	// StatusFailedWarn means the phase failed but the run continued.
	StatusFailedWarn Status = "FAILED_WARN"
	// StatusFailedFatal means the phase failed and halted the run.
	StatusFailedFatal Status = "FAILED_FATAL"
)

// Severity decides how a phase failure affects the rest of the run.
type Severity string

const (
	// SeverityFatal halts the run on failure; later phases stay PENDING.
	SeverityFatal Severity = "fatal"
	// SeverityWarn records the failure and lets the run continue.
	SeverityWarn Severity = "warn"
)

// ProbeResult describes what a probe observed about a phase's resource.
type ProbeResult struct {
	// ResourceID identifies the observed resource (server name, release
	// name, namespace) for logging.
	ResourceID string
	// Exists reports whether the resource is already present.
	Exists bool
	// State is the observed resource state, e.g. "running" or "deployed".
	State string
	// Detail is an optional human-readable elaboration.
	Detail string
}

// ProbeFunc inspects current state without modifying anything.
type ProbeFunc func(ctx *Context) (ProbeResult, error)

// ActionFunc performs a phase's work.
type ActionFunc func(ctx *Context) error

// Phase is one step of a workflow.
type Phase struct {
	// Name identifies the phase in logs and summaries.
	Name string
	// Description is shown in summaries and confirmation prompts.
	Description string

	// Probe checks whether the phase's resource already exists. Optional;
	// phases without a probe always run their action.
	Probe ProbeFunc
	// Apply performs the forward action.
	Apply ActionFunc
	// Remove undoes the phase during teardown. Optional; phases without
	// a removal action are skipped on the reverse path.
	Remove ActionFunc
	// ForceCleanup is the fallback when Remove succeeds but the resource
	// never disappears within the termination wait. Optional.
	ForceCleanup ActionFunc

	// SkipIfPresent skips the forward action when the probe reports the
	// resource as already existing.
	SkipIfPresent bool
	// Severity decides whether a failure halts the run.
	Severity Severity
	// Destructive marks phases that modify or delete existing state and
	// therefore pass the confirmation gate.
	Destructive bool
	// DataDestructive marks phases whose removal destroys persisted data;
	// teardown with data preservation skips them.
	DataDestructive bool
}

// Outcome records how a single phase resolved.
type Outcome struct {
	Phase     string
	Status    Status
	Detail    string
	Simulated bool
	Duration  time.Duration
}

// StatusLabel renders the status for summaries, marking simulated skips.
func (o Outcome) StatusLabel() string {
	if o.Simulated && o.Status == StatusSkipped {
		return "SKIPPED (simulated)"
	}
	return string(o.Status)
}

func (o *Outcome) set(status Status, detail string) {
	o.Status = status
	o.Detail = detail
}
