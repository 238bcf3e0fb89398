package addons

import (
	"context"

	"github.com/imamik/kubelift/internal/addons/helm"
)

// Addon is one chart-managed cluster component, fully resolved: where the
// chart comes from, where it lands, and the values it is installed with.
type Addon struct {
	Name        string
	ReleaseName string
	Namespace   string
	RepoURL     string
	Chart       string
	Version     string
	Values      helm.Values
}

// Applier is the slice of the Kubernetes client used for the raw manifests
// some addons need beyond their chart.
type Applier interface {
	Apply(ctx context.Context, manifest string) error
	CreateSecret(ctx context.Context, namespace, name string, data map[string][]byte) error
}

func versionOr(version, fallback string) string {
	if version != "" {
		return version
	}
	return fallback
}
