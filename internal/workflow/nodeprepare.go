package workflow

import (
	"fmt"

	"github.com/imamik/kubelift/internal/config"
	"github.com/imamik/kubelift/internal/lifecycle"
)

// NodePrepare builds one phase per selected host. Each phase stages the
// target k3s version on its host and reruns the installer so an already
// joined node is upgraded in place; the probe skips hosts that already
// run the target version.
func NodePrepare(deps *Deps, names []string) ([]lifecycle.Phase, error) {
	nodes := deps.Config.Nodes
	if len(names) > 0 {
		nodes = make([]config.NodeConfig, 0, len(names))
		for _, name := range names {
			node, ok := deps.Config.NodeByName(name)
			if !ok {
				return nil, fmt.Errorf("unknown node %q", name)
			}
			nodes = append(nodes, node)
		}
	}

	phases := make([]lifecycle.Phase, 0, len(nodes))
	for _, node := range nodes {
		phases = append(phases, nodePreparePhase(deps, node))
	}
	return phases, nil
}

func nodePreparePhase(deps *Deps, node config.NodeConfig) lifecycle.Phase {
	return lifecycle.Phase{
		Name:          "prepare-" + node.Name,
		Description:   fmt.Sprintf("Stage k3s %s on %s", deps.Config.KubernetesVersion, node.Name),
		SkipIfPresent: true,
		Severity:      lifecycle.SeverityFatal,
		Probe: func(ctx *lifecycle.Context) (lifecycle.ProbeResult, error) {
			if !deps.Hosts.Reachable(ctx, node) {
				return lifecycle.ProbeResult{}, fmt.Errorf("%s not reachable over SSH", node.Name)
			}
			installed, err := deps.Hosts.InstalledVersion(ctx, node)
			if err != nil {
				return lifecycle.ProbeResult{ResourceID: node.Name, Detail: "k3s not installed"}, nil
			}
			target := deps.Config.KubernetesVersion
			return lifecycle.ProbeResult{
				ResourceID: node.Name,
				Exists:     installed == target,
				State:      installed,
				Detail:     fmt.Sprintf("installed %s, target %s", installed, target),
			}, nil
		},
		Apply: func(ctx *lifecycle.Context) error {
			version := deps.Config.KubernetesVersion
			if err := deps.Hosts.Prepare(ctx, node, version); err != nil {
				return err
			}

			// Rerunning the installer is how k3s moves a live node to a
			// new version.
			if isInitNode(deps.Config, node) {
				if err := deps.Hosts.InitControlPlane(ctx, node, version); err != nil {
					return err
				}
			} else {
				server, ok := deps.Config.InitNode()
				if !ok {
					return fmt.Errorf("no control-plane node configured")
				}
				token, err := deps.Hosts.NodeToken(ctx, server)
				if err != nil {
					return err
				}
				if err := deps.Hosts.Join(ctx, node, server, token, version); err != nil {
					return err
				}
			}

			// Without a kubeconfig there is nothing to wait on; the host
			// was still prepared.
			kc, err := deps.Kube()
			if err != nil {
				return nil
			}
			return kc.WaitForNodeReady(ctx, node.Name, ctx.Timeouts.NodeJoin)
		},
	}
}
