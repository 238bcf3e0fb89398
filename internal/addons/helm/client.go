package helm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/repo"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// DefaultTimeout bounds chart installs and upgrades when the caller does not
// supply one.
const DefaultTimeout = 10 * time.Minute

// Client runs Helm operations against a single namespace. Release state is
// stored in cluster secrets, matching what the helm CLI would write.
type Client struct {
	settings     *cli.EnvSettings
	actionConfig *action.Configuration
	namespace    string
	timeout      time.Duration
}

// NewClient builds a Helm client from kubeconfig bytes. A zero timeout means
// DefaultTimeout.
func NewClient(kubeconfig []byte, namespace string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	actionConfig := new(action.Configuration)
	restGetter := NewInMemoryRESTClientGetter(kubeconfig, namespace)

	// The debug callback is required but its output is noise here.
	if err := actionConfig.Init(restGetter, namespace, "secret", func(format string, v ...interface{}) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
	}

	return &Client{
		settings:     cli.New(),
		actionConfig: actionConfig,
		namespace:    namespace,
		timeout:      timeout,
	}, nil
}

// InstallOrUpgrade resolves the chart from its repository and installs the
// release, or upgrades it in place when one already exists.
func (c *Client) InstallOrUpgrade(ctx context.Context, releaseName, repoURL, chartName, version string, values map[string]interface{}) (*release.Release, error) {
	chrt, err := c.loadChart(repoURL, chartName, version)
	if err != nil {
		return nil, err
	}

	histClient := action.NewHistory(c.actionConfig)
	histClient.Max = 1
	_, err = histClient.Run(releaseName)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return c.install(ctx, releaseName, chrt, values)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history of release %s: %w", releaseName, err)
	}

	return c.upgrade(ctx, releaseName, chrt, values)
}

func (c *Client) install(ctx context.Context, releaseName string, chrt *chart.Chart, values map[string]interface{}) (*release.Release, error) {
	installClient := action.NewInstall(c.actionConfig)
	installClient.ReleaseName = releaseName
	installClient.Namespace = c.namespace
	installClient.CreateNamespace = true
	installClient.Wait = true
	installClient.Timeout = c.timeout

	return installClient.RunWithContext(ctx, chrt, values)
}

func (c *Client) upgrade(ctx context.Context, releaseName string, chrt *chart.Chart, values map[string]interface{}) (*release.Release, error) {
	upgradeClient := action.NewUpgrade(c.actionConfig)
	upgradeClient.Namespace = c.namespace
	upgradeClient.Wait = true
	upgradeClient.Timeout = c.timeout
	// Rebuilds must converge on the declared values, not inherit drift.
	upgradeClient.ReuseValues = false

	return upgradeClient.RunWithContext(ctx, releaseName, chrt, values)
}

// loadChart downloads the chart archive from the repository index and parses
// it. The archive is removed once loaded.
func (c *Client) loadChart(repoURL, chartName, version string) (*chart.Chart, error) {
	chartPath, err := repo.FindChartInRepoURL(
		repoURL,
		chartName,
		version,
		"", "", "",
		getter.All(c.settings),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find chart %s in repo %s: %w", chartName, repoURL, err)
	}

	defer func() {
		_ = os.Remove(chartPath)
	}()

	return loader.Load(chartPath)
}

// Uninstall removes a release and waits for its resources to be deleted.
// A release that is already gone is not an error.
func (c *Client) Uninstall(releaseName string) error {
	uninstallClient := action.NewUninstall(c.actionConfig)
	uninstallClient.Wait = true
	uninstallClient.Timeout = c.timeout

	_, err := uninstallClient.Run(releaseName)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return nil
	}
	return err
}

// ReleaseExists reports whether a release of that name is recorded in the
// namespace.
func (c *Client) ReleaseExists(releaseName string) (bool, error) {
	histClient := action.NewHistory(c.actionConfig)
	histClient.Max = 1
	_, err := histClient.Run(releaseName)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read history of release %s: %w", releaseName, err)
	}
	return true, nil
}
