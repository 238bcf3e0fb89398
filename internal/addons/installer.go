package addons

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"helm.sh/helm/v3/pkg/release"

	"github.com/imamik/kubelift/internal/addons/helm"
)

// helmClient is the per-namespace surface the installer needs from the Helm
// layer.
type helmClient interface {
	InstallOrUpgrade(ctx context.Context, releaseName, repoURL, chartName, version string, values map[string]interface{}) (*release.Release, error)
	Uninstall(releaseName string) error
	ReleaseExists(releaseName string) (bool, error)
}

// newHelmClient builds the Helm client for a namespace. Package-level so
// tests can substitute a fake without a cluster.
var newHelmClient = func(kubeconfig []byte, namespace string, timeout time.Duration) (helmClient, error) {
	return helm.NewClient(kubeconfig, namespace, timeout)
}

// Installer deploys addons onto one cluster. It is cheap to construct; the
// Helm machinery is built per call because each addon targets its own
// namespace.
type Installer struct {
	kubeconfig []byte
	timeout    time.Duration
	log        zerolog.Logger
}

// NewInstaller returns an installer bound to the cluster the kubeconfig
// points at. A zero timeout falls back to the Helm client default.
func NewInstaller(kubeconfig []byte, timeout time.Duration, log zerolog.Logger) *Installer {
	return &Installer{
		kubeconfig: kubeconfig,
		timeout:    timeout,
		log:        log,
	}
}

// Install resolves the addon chart and installs it, upgrading in place when
// the release already exists.
func (i *Installer) Install(ctx context.Context, addon Addon) error {
	client, err := newHelmClient(i.kubeconfig, addon.Namespace, i.timeout)
	if err != nil {
		return fmt.Errorf("failed to build helm client for %s: %w", addon.Name, err)
	}

	i.log.Info().
		Str("addon", addon.Name).
		Str("chart", addon.Chart).
		Str("version", addon.Version).
		Str("namespace", addon.Namespace).
		Msg("installing addon")

	if i.log.Debug().Enabled() {
		if out, yerr := addon.Values.ToYAML(); yerr == nil {
			i.log.Debug().Str("addon", addon.Name).Msg("resolved chart values\n" + string(out))
		}
	}

	rel, err := client.InstallOrUpgrade(ctx, addon.ReleaseName, addon.RepoURL, addon.Chart, addon.Version, addon.Values)
	if err != nil {
		return fmt.Errorf("failed to install %s: %w", addon.Name, err)
	}

	event := i.log.Info().Str("addon", addon.Name).Int("revision", rel.Version)
	if rel.Info != nil {
		event = event.Str("status", rel.Info.Status.String())
	}
	event.Msg("addon release deployed")

	return nil
}

// Uninstall removes the addon release and waits for its resources to go.
func (i *Installer) Uninstall(addon Addon) error {
	client, err := newHelmClient(i.kubeconfig, addon.Namespace, i.timeout)
	if err != nil {
		return fmt.Errorf("failed to build helm client for %s: %w", addon.Name, err)
	}

	i.log.Info().Str("addon", addon.Name).Str("namespace", addon.Namespace).Msg("uninstalling addon")

	if err := client.Uninstall(addon.ReleaseName); err != nil {
		return fmt.Errorf("failed to uninstall %s: %w", addon.Name, err)
	}
	return nil
}

// Installed reports whether the addon release exists in its namespace.
func (i *Installer) Installed(addon Addon) (bool, error) {
	client, err := newHelmClient(i.kubeconfig, addon.Namespace, i.timeout)
	if err != nil {
		return false, fmt.Errorf("failed to build helm client for %s: %w", addon.Name, err)
	}
	return client.ReleaseExists(addon.ReleaseName)
}
