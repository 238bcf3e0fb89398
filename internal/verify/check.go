package verify

import "context"

// Status classifies one check's outcome.
type Status string

const (
	// StatusPass means the checked component is healthy.
	StatusPass Status = "pass"
	// StatusWarn means the component is degraded but working, or an
	// optional component is absent.
	StatusWarn Status = "warn"
	// StatusFail means the cluster is non-functional for its primary
	// purpose as far as this check is concerned.
	StatusFail Status = "fail"
)

// Check categories, used to group the human-readable report.
const (
	CategoryControlPlane   = "control-plane"
	CategoryNodes          = "nodes"
	CategoryNetwork        = "network"
	CategoryStorage        = "storage"
	CategoryAddons         = "addons"
	CategoryWorkloads      = "workloads"
	CategoryInfrastructure = "infrastructure"
)

// CheckFunc performs one read-only assertion. A returned error becomes a
// fail-status result; checks that want error conditions to surface as warn
// handle them internally.
type CheckFunc func(ctx context.Context) (Status, string)

// Check is one declared unit of the verification battery.
type Check struct {
	// Name identifies the check in the report.
	Name string
	// Category groups related checks in the rendered output.
	Category string
	// Quick marks the subset run by --quick.
	Quick bool
	// Run performs the check.
	Run CheckFunc
}

// CheckResult is one check's recorded outcome.
type CheckResult struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   Status `json:"status"`
	Detail   string `json:"detail,omitempty"`
}
