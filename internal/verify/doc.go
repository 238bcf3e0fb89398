// Package verify runs the read-only health-check battery against a live
// cluster and aggregates the outcomes into a single report.
//
// Checks are independent and side-effect-free, so they run on a bounded
// worker pool; results are merged back in declaration order regardless of
// completion order. A check reports fail only when the cluster is broken
// for its primary purpose, warn for degraded-but-working conditions.
// Only the fail count decides the exit status.
package verify
