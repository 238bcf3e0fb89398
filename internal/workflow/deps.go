package workflow

import (
	"context"
	"time"

	"github.com/imamik/kubelift/internal/addons"
	"github.com/imamik/kubelift/internal/config"
)

// InfraRunner is the opaque infrastructure-as-code step.
type InfraRunner interface {
	Init(ctx context.Context) error
	Apply(ctx context.Context) error
	Destroy(ctx context.Context) error
}

// HostManager drives k3s on the cluster hosts over SSH.
type HostManager interface {
	Reachable(ctx context.Context, node config.NodeConfig) bool
	PreparedVersion(ctx context.Context, node config.NodeConfig) (string, error)
	InstalledVersion(ctx context.Context, node config.NodeConfig) (string, error)
	Prepare(ctx context.Context, node config.NodeConfig, version string) error
	InitControlPlane(ctx context.Context, node config.NodeConfig, version string) error
	NodeToken(ctx context.Context, node config.NodeConfig) (string, error)
	Kubeconfig(ctx context.Context, node config.NodeConfig) ([]byte, error)
	Join(ctx context.Context, node, server config.NodeConfig, token, version string) error
	Uninstall(ctx context.Context, node config.NodeConfig) error
	KillAll(ctx context.Context, node config.NodeConfig) error
}

// Cluster is the control-plane API surface the phases consume.
type Cluster interface {
	ServerVersion() (string, error)
	WaitForAPI(ctx context.Context, timeout time.Duration) error
	NodeRegistered(ctx context.Context, name string) (bool, error)
	WaitForNodeReady(ctx context.Context, name string, timeout time.Duration) error
	WaitForDeployment(ctx context.Context, namespace, name string, timeout time.Duration) error
	WaitForDaemonSet(ctx context.Context, namespace, name string, timeout time.Duration) error
	CordonNode(ctx context.Context, name string) error
	DrainNode(ctx context.Context, name string, timeout time.Duration) error
	DeleteNode(ctx context.Context, name string) error
	DeleteNamespace(ctx context.Context, name string) error
	ForceFinalizeNamespace(ctx context.Context, name string) error
	Apply(ctx context.Context, manifest string) error
	CreateSecret(ctx context.Context, namespace, name string, data map[string][]byte) error
}

// AddonInstaller manages chart releases on the cluster.
type AddonInstaller interface {
	Install(ctx context.Context, addon addons.Addon) error
	Uninstall(addon addons.Addon) error
	Installed(addon addons.Addon) (bool, error)
}

// CloudClient probes and force-cleans the cloud resources behind the
// cluster.
type CloudClient interface {
	GetServerByName(ctx context.Context, name string) (string, bool, error)
	CleanupByLabel(ctx context.Context, labels map[string]string) error
}

// Deps bundles the collaborators a workflow's phases run against. Infra and
// Cloud may be nil (infrastructure phase disabled, no cloud token); Kube and
// Addons are lazy because the kubeconfig only exists once the control plane
// is up, and must cache their first success.
type Deps struct {
	Config *config.Config

	Infra InfraRunner
	Hosts HostManager
	Cloud CloudClient

	Kube   func() (Cluster, error)
	Addons func() (AddonInstaller, error)

	// SaveKubeconfig persists the admin kubeconfig fetched during
	// control-plane init so the lazy Kube factory can connect.
	SaveKubeconfig func(data []byte) error
}
