// Package lifecycle contains the phased execution engine behind every
// kubelift workflow. A workflow is an ordered list of phases; each phase
// can probe current state, apply a forward action, and remove its work
// again during teardown.
//
// The engine runs phases strictly one at a time. A phase moves from
// PENDING through RUNNING into exactly one terminal status. Fatal
// failures halt the run, warn failures are recorded and the run
// continues. Dry-run mode resolves every phase that would act to
// SKIPPED (simulated) without touching the cluster and without ever
// consulting the confirmation gate.
package lifecycle
