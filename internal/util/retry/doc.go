// Package retry provides bounded retry logic for calls against external
// systems that fail transiently.
//
// The [Do] function re-runs an operation until it succeeds, the attempt
// budget is spent, the context ends, or the operation returns an error
// marked with [Fatal]. Delays between attempts grow by the configured
// multiplier up to a ceiling; [WithFixedBackoff] pins them to a constant
// interval, which is what existence probes use.
package retry
