// Package tui renders the verification battery live in the terminal while
// the checks run on the worker pool.
package tui

import "github.com/imamik/kubelift/internal/verify"

// CheckDoneMsg reports one finished check, in completion order.
type CheckDoneMsg struct {
	Index  int
	Result verify.CheckResult
}

// ReportMsg carries the final aggregated report; the view quits on it.
type ReportMsg struct {
	Report *verify.Report
}

// TickMsg advances the spinner.
type TickMsg struct{}
