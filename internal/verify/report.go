package verify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Report aggregates every check outcome of one verification run. Results
// keep the battery's declaration order.
type Report struct {
	Cluster    string        `json:"cluster"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Results    []CheckResult `json:"results"`
	PassCount  int           `json:"pass_count"`
	WarnCount  int           `json:"warn_count"`
	FailCount  int           `json:"fail_count"`
}

// count tallies the pass/warn/fail fields from Results.
func (r *Report) count() {
	r.PassCount, r.WarnCount, r.FailCount = 0, 0, 0
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			r.PassCount++
		case StatusWarn:
			r.WarnCount++
		case StatusFail:
			r.FailCount++
		}
	}
}

// Failed reports whether the run must exit non-zero. Warns alone never
// fail a run.
func (r *Report) Failed() bool {
	return r.FailCount > 0
}

// Summary is the one-line wrap-up printed after every run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d passed, %d warnings, %d failed (%d checks in %s)",
		r.PassCount, r.WarnCount, r.FailCount, len(r.Results), r.Duration.Round(time.Millisecond))
}

// JSON renders the report as a single indented document for machine
// consumption. It is the same data as the human rendering, never a
// divergent view.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}
