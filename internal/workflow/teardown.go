package workflow

import "github.com/imamik/kubelift/internal/lifecycle"

// TeardownOptions select which teardown phases are built.
type TeardownOptions struct {
	// FullReset includes the infrastructure phase so the cloud resources
	// are destroyed too. Without it teardown stops at the hosts.
	FullReset bool
	// SkipObservability omits the monitoring stack phase.
	SkipObservability bool
	// SkipApps omits the app-platform phase.
	SkipApps bool
}

// Teardown assembles the dismantling phase list. It is the rebuild list
// with every phase downgraded to a warn so a stuck removal never strands
// the rest of the teardown, and marked destructive so each removal passes
// the confirmation gate. The executor walks the list in reverse.
func Teardown(deps *Deps, opts TeardownOptions) []lifecycle.Phase {
	phases := Rebuild(deps, RebuildOptions{
		InitControlPlane:  true,
		SkipObservability: opts.SkipObservability,
		SkipApps:          opts.SkipApps,
	})

	var out []lifecycle.Phase
	for _, phase := range phases {
		if phase.Name == "infrastructure" && !opts.FullReset {
			continue
		}
		phase.Severity = lifecycle.SeverityWarn
		phase.Destructive = true
		out = append(out, phase)
	}
	return out
}
