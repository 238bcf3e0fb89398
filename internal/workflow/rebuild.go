package workflow

import (
	"fmt"
	"strings"

	"github.com/imamik/kubelift/internal/addons"
	"github.com/imamik/kubelift/internal/config"
	"github.com/imamik/kubelift/internal/lifecycle"
	"github.com/imamik/kubelift/internal/platform/hcloud"
)

// RebuildOptions select which rebuild phases are built.
type RebuildOptions struct {
	// InitControlPlane includes the control-plane bootstrap phase.
	InitControlPlane bool
	// SkipInit omits the host-prepare and node-join phases (and the
	// control-plane bootstrap, even when requested) for known-prepared
	// clusters; only the addon stack is reconciled.
	SkipInit bool
	// SkipObservability omits the monitoring stack phase.
	SkipObservability bool
	// SkipApps omits the app-platform phase.
	SkipApps bool
}

// Rebuild assembles the provisioning phase list in its fixed order:
// infrastructure, hosts, control plane, nodes, then the addon stack from
// networking outward. Teardown replays the same list in reverse.
func Rebuild(deps *Deps, opts RebuildOptions) []lifecycle.Phase {
	var phases []lifecycle.Phase

	if deps.Config.Infrastructure.Enabled {
		phases = append(phases, infrastructurePhase(deps))
	}
	if !opts.SkipInit {
		phases = append(phases, hostPreparePhase(deps))
		if opts.InitControlPlane {
			phases = append(phases, controlPlaneInitPhase(deps))
		}
		phases = append(phases, nodeJoinPhase(deps))
	}

	phases = append(phases, addonPhases(deps, opts)...)
	return phases
}

func infrastructurePhase(deps *Deps) lifecycle.Phase {
	phase := lifecycle.Phase{
		Name:          "infrastructure",
		Description:   "Provision cloud resources through the IaC working directory",
		SkipIfPresent: true,
		Severity:      lifecycle.SeverityFatal,
		Apply: func(ctx *lifecycle.Context) error {
			if err := deps.Infra.Init(ctx); err != nil {
				return err
			}
			return deps.Infra.Apply(ctx)
		},
		Remove: func(ctx *lifecycle.Context) error {
			return deps.Infra.Destroy(ctx)
		},
	}

	if deps.Cloud != nil {
		phase.Probe = func(ctx *lifecycle.Context) (lifecycle.ProbeResult, error) {
			return probeServers(ctx, deps)
		}
		phase.ForceCleanup = func(ctx *lifecycle.Context) error {
			return deps.Cloud.CleanupByLabel(ctx, hcloud.ClusterSelector(deps.Config.ClusterName))
		}
	}
	return phase
}

// probeServers reports the infrastructure as present only when every
// configured node has a cloud server.
func probeServers(ctx *lifecycle.Context, deps *Deps) (lifecycle.ProbeResult, error) {
	var missing []string
	for _, node := range deps.Config.Nodes {
		_, exists, err := deps.Cloud.GetServerByName(ctx, node.Name)
		if err != nil {
			return lifecycle.ProbeResult{}, err
		}
		if !exists {
			missing = append(missing, node.Name)
		}
	}

	result := lifecycle.ProbeResult{
		ResourceID: deps.Config.ClusterName,
		Exists:     len(missing) == 0,
	}
	if len(missing) > 0 {
		result.Detail = "servers missing: " + strings.Join(missing, ", ")
	} else {
		result.Detail = fmt.Sprintf("all %d servers present", len(deps.Config.Nodes))
	}
	return result, nil
}

func hostPreparePhase(deps *Deps) lifecycle.Phase {
	return lifecycle.Phase{
		Name:          "host-prepare",
		Description:   "Install OS prerequisites and stage k3s on every host",
		SkipIfPresent: true,
		Severity:      lifecycle.SeverityFatal,
		Probe: func(ctx *lifecycle.Context) (lifecycle.ProbeResult, error) {
			version := deps.Config.KubernetesVersion
			for _, node := range deps.Config.Nodes {
				if !deps.Hosts.Reachable(ctx, node) {
					return lifecycle.ProbeResult{ResourceID: node.Name, Detail: "not reachable over SSH"}, nil
				}
				prepared, err := deps.Hosts.PreparedVersion(ctx, node)
				if err != nil {
					return lifecycle.ProbeResult{}, err
				}
				if prepared != version {
					return lifecycle.ProbeResult{ResourceID: node.Name, Detail: "not prepared for " + version}, nil
				}
			}
			return lifecycle.ProbeResult{
				ResourceID: deps.Config.ClusterName,
				Exists:     true,
				Detail:     fmt.Sprintf("all %d hosts prepared", len(deps.Config.Nodes)),
			}, nil
		},
		Apply: func(ctx *lifecycle.Context) error {
			version := deps.Config.KubernetesVersion
			for _, node := range deps.Config.Nodes {
				prepared, err := deps.Hosts.PreparedVersion(ctx, node)
				if err == nil && prepared == version {
					continue
				}
				if err := deps.Hosts.Prepare(ctx, node, version); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func controlPlaneInitPhase(deps *Deps) lifecycle.Phase {
	return lifecycle.Phase{
		Name:            "control-plane-init",
		Description:     "Bootstrap k3s on the first control-plane host",
		SkipIfPresent:   true,
		Severity:        lifecycle.SeverityFatal,
		Destructive:     true,
		DataDestructive: true,
		Probe: func(ctx *lifecycle.Context) (lifecycle.ProbeResult, error) {
			kc, err := deps.Kube()
			if err != nil {
				// No kubeconfig yet means no control plane.
				return lifecycle.ProbeResult{Detail: "no kubeconfig"}, nil
			}
			version, err := kc.ServerVersion()
			if err != nil {
				return lifecycle.ProbeResult{Detail: "API not answering"}, nil
			}
			return lifecycle.ProbeResult{
				ResourceID: "kube-apiserver",
				Exists:     true,
				State:      version,
				Detail:     "API serving " + version,
			}, nil
		},
		Apply: func(ctx *lifecycle.Context) error {
			node, ok := deps.Config.InitNode()
			if !ok {
				return fmt.Errorf("no control-plane node configured")
			}

			if err := deps.Hosts.InitControlPlane(ctx, node, deps.Config.KubernetesVersion); err != nil {
				return err
			}

			kubeconfig, err := deps.Hosts.Kubeconfig(ctx, node)
			if err != nil {
				return err
			}
			if err := deps.SaveKubeconfig(kubeconfig); err != nil {
				return err
			}

			kc, err := deps.Kube()
			if err != nil {
				return fmt.Errorf("failed to connect with fetched kubeconfig: %w", err)
			}
			return kc.WaitForAPI(ctx, ctx.Timeouts.APIWait)
		},
		Remove: func(ctx *lifecycle.Context) error {
			node, ok := deps.Config.InitNode()
			if !ok {
				return fmt.Errorf("no control-plane node configured")
			}
			return deps.Hosts.Uninstall(ctx, node)
		},
		ForceCleanup: func(ctx *lifecycle.Context) error {
			node, ok := deps.Config.InitNode()
			if !ok {
				return fmt.Errorf("no control-plane node configured")
			}
			return deps.Hosts.KillAll(ctx, node)
		},
	}
}

func nodeJoinPhase(deps *Deps) lifecycle.Phase {
	return lifecycle.Phase{
		Name:          "node-join",
		Description:   "Join every configured host to the cluster",
		SkipIfPresent: true,
		Severity:      lifecycle.SeverityFatal,
		Probe: func(ctx *lifecycle.Context) (lifecycle.ProbeResult, error) {
			kc, err := deps.Kube()
			if err != nil {
				return lifecycle.ProbeResult{Detail: "no kubeconfig"}, nil
			}
			var missing []string
			for _, node := range deps.Config.Nodes {
				registered, err := kc.NodeRegistered(ctx, node.Name)
				if err != nil {
					return lifecycle.ProbeResult{}, err
				}
				if !registered {
					missing = append(missing, node.Name)
				}
			}
			result := lifecycle.ProbeResult{
				ResourceID: deps.Config.ClusterName,
				Exists:     len(missing) == 0,
			}
			if len(missing) > 0 {
				result.Detail = "not registered: " + strings.Join(missing, ", ")
			} else {
				result.Detail = fmt.Sprintf("all %d nodes registered", len(deps.Config.Nodes))
			}
			return result, nil
		},
		Apply: func(ctx *lifecycle.Context) error {
			return joinMissingNodes(ctx, deps)
		},
		Remove: func(ctx *lifecycle.Context) error {
			return removeJoinedNodes(ctx, deps)
		},
		ForceCleanup: func(ctx *lifecycle.Context) error {
			var firstErr error
			for _, node := range deps.Config.Nodes {
				if isInitNode(deps.Config, node) {
					continue
				}
				if err := deps.Hosts.KillAll(ctx, node); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}
}

func joinMissingNodes(ctx *lifecycle.Context, deps *Deps) error {
	server, ok := deps.Config.InitNode()
	if !ok {
		return fmt.Errorf("no control-plane node configured")
	}
	kc, err := deps.Kube()
	if err != nil {
		return fmt.Errorf("cluster API unavailable: %w", err)
	}

	token, err := deps.Hosts.NodeToken(ctx, server)
	if err != nil {
		return err
	}

	for _, node := range deps.Config.Nodes {
		if isInitNode(deps.Config, node) {
			continue
		}
		registered, err := kc.NodeRegistered(ctx, node.Name)
		if err != nil {
			return err
		}
		if registered {
			continue
		}

		if err := deps.Hosts.Join(ctx, node, server, token, deps.Config.KubernetesVersion); err != nil {
			return err
		}
		if err := kc.WaitForNodeReady(ctx, node.Name, ctx.Timeouts.NodeJoin); err != nil {
			return err
		}
	}
	return nil
}

// removeJoinedNodes drains and deletes the non-init nodes from the API,
// then uninstalls k3s on each host. Drain failures are tolerated; on
// teardown the workloads are going away regardless.
func removeJoinedNodes(ctx *lifecycle.Context, deps *Deps) error {
	kc, kubeErr := deps.Kube()

	for i := len(deps.Config.Nodes) - 1; i >= 0; i-- {
		node := deps.Config.Nodes[i]
		if isInitNode(deps.Config, node) {
			continue
		}

		if kubeErr == nil {
			if err := kc.CordonNode(ctx, node.Name); err != nil {
				ctx.Log.Warn().Err(err).Str("node", node.Name).Msg("cordon failed")
			}
			if err := kc.DrainNode(ctx, node.Name, ctx.Timeouts.Drain); err != nil {
				ctx.Log.Warn().Err(err).Str("node", node.Name).Msg("drain failed, deleting anyway")
			}
			if err := kc.DeleteNode(ctx, node.Name); err != nil {
				ctx.Log.Warn().Err(err).Str("node", node.Name).Msg("node deletion failed")
			}
		}

		if err := deps.Hosts.Uninstall(ctx, node); err != nil {
			return err
		}
	}
	return nil
}

func isInitNode(cfg *config.Config, node config.NodeConfig) bool {
	init, ok := cfg.InitNode()
	return ok && init.Name == node.Name
}

// addonSpec pairs an addon build with the phase metadata that differs per
// addon.
type addonSpec struct {
	name            string
	description     string
	severity        lifecycle.Severity
	dataDestructive bool
	enabled         bool
	build           func(cfg *config.Config) addons.Addon
	// post runs after a successful install (issuer manifests, root
	// application). Optional.
	post func(ctx *lifecycle.Context, deps *Deps) error
	// wait blocks until the addon's workload is ready. Optional.
	wait func(ctx *lifecycle.Context, kc Cluster) error
	// forceNamespace, when set, is force-deleted if the uninstall leaves
	// the release behind.
	forceNamespace string
}

func addonPhases(deps *Deps, opts RebuildOptions) []lifecycle.Phase {
	cfg := deps.Config
	specs := []addonSpec{
		{
			name:        "cni",
			description: "Install Cilium networking",
			severity:    lifecycle.SeverityFatal,
			enabled:     cfg.Addons.CNI.Enabled,
			build:       addons.Cilium,
			wait: func(ctx *lifecycle.Context, kc Cluster) error {
				return kc.WaitForDaemonSet(ctx, "kube-system", "cilium", ctx.Timeouts.HelmInstall)
			},
		},
		{
			name:            "storage",
			description:     "Install Longhorn distributed storage",
			severity:        lifecycle.SeverityFatal,
			dataDestructive: true,
			enabled:         cfg.Addons.Storage.Enabled,
			build:           addons.Longhorn,
			wait: func(ctx *lifecycle.Context, kc Cluster) error {
				return kc.WaitForDeployment(ctx, addons.LonghornNamespace, "longhorn-driver-deployer", ctx.Timeouts.HelmInstall)
			},
			forceNamespace: addons.LonghornNamespace,
		},
		{
			name:           "ingress",
			description:    "Install the ingress-nginx controller",
			severity:       lifecycle.SeverityFatal,
			enabled:        cfg.Addons.Ingress.Enabled,
			build:          addons.IngressNginx,
			forceNamespace: "ingress-nginx",
		},
		{
			name:        "certificates",
			description: "Install cert-manager and the cluster issuer",
			severity:    lifecycle.SeverityWarn,
			enabled:     cfg.Addons.CertManager.Enabled,
			build:       addons.CertManager,
			post: func(ctx *lifecycle.Context, deps *Deps) error {
				kc, err := deps.Kube()
				if err != nil {
					return err
				}
				return addons.EnsureClusterIssuer(ctx, kc, deps.Config)
			},
			forceNamespace: "cert-manager",
		},
		{
			name:           "observability",
			description:    "Install the kube-prometheus monitoring stack",
			severity:       lifecycle.SeverityWarn,
			enabled:        cfg.Addons.Monitoring.Enabled && !opts.SkipObservability,
			build:          addons.Monitoring,
			forceNamespace: addons.MonitoringNamespace,
		},
		{
			name:        "app-platform",
			description: "Install Argo CD and the root application",
			severity:    lifecycle.SeverityWarn,
			enabled:     cfg.Addons.ArgoCD.Enabled && !opts.SkipApps,
			build:       addons.ArgoCD,
			post: func(ctx *lifecycle.Context, deps *Deps) error {
				kc, err := deps.Kube()
				if err != nil {
					return err
				}
				return addons.EnsureRootApplication(ctx, kc, deps.Config)
			},
			forceNamespace: "argocd",
		},
	}

	var phases []lifecycle.Phase
	for _, spec := range specs {
		if spec.enabled {
			phases = append(phases, addonPhase(deps, spec))
		}
	}
	return phases
}

func addonPhase(deps *Deps, spec addonSpec) lifecycle.Phase {
	phase := lifecycle.Phase{
		Name:            spec.name,
		Description:     spec.description,
		SkipIfPresent:   true,
		Severity:        spec.severity,
		DataDestructive: spec.dataDestructive,
		Probe: func(ctx *lifecycle.Context) (lifecycle.ProbeResult, error) {
			installer, err := deps.Addons()
			if err != nil {
				return lifecycle.ProbeResult{Detail: "no kubeconfig"}, nil
			}
			addon := spec.build(deps.Config)
			installed, err := installer.Installed(addon)
			if err != nil {
				return lifecycle.ProbeResult{}, err
			}
			result := lifecycle.ProbeResult{ResourceID: addon.ReleaseName, Exists: installed}
			if installed {
				result.State = "deployed"
				result.Detail = "release " + addon.ReleaseName + " already deployed"
			}
			return result, nil
		},
		Apply: func(ctx *lifecycle.Context) error {
			installer, err := deps.Addons()
			if err != nil {
				return fmt.Errorf("cluster API unavailable: %w", err)
			}
			if err := installer.Install(ctx, spec.build(deps.Config)); err != nil {
				return err
			}
			if spec.post != nil {
				if err := spec.post(ctx, deps); err != nil {
					return err
				}
			}
			if spec.wait != nil {
				kc, err := deps.Kube()
				if err != nil {
					return err
				}
				return spec.wait(ctx, kc)
			}
			return nil
		},
		Remove: func(ctx *lifecycle.Context) error {
			installer, err := deps.Addons()
			if err != nil {
				return fmt.Errorf("cluster API unavailable: %w", err)
			}
			return installer.Uninstall(spec.build(deps.Config))
		},
	}

	if spec.forceNamespace != "" {
		phase.ForceCleanup = func(ctx *lifecycle.Context) error {
			kc, err := deps.Kube()
			if err != nil {
				return err
			}
			return kc.ForceFinalizeNamespace(ctx, spec.forceNamespace)
		}
	}
	return phase
}
