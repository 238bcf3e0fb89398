package addons

import (
	"context"
	"fmt"

	"github.com/imamik/kubelift/internal/addons/helm"
	"github.com/imamik/kubelift/internal/config"
)

const (
	argoRepoURL          = "https://argoproj.github.io/argo-helm"
	argoCDChart          = "argo-cd"
	defaultArgoCDVersion = "7.7.11"

	argoCDNamespace = "argocd"
)

// ArgoCD builds the GitOps addon. The chart only bootstraps the controller;
// the workloads themselves arrive through the root application.
func ArgoCD(cfg *config.Config) Addon {
	return Addon{
		Name:        "argocd",
		ReleaseName: "argocd",
		Namespace:   argoCDNamespace,
		RepoURL:     argoRepoURL,
		Chart:       argoCDChart,
		Version:     versionOr(cfg.Addons.ArgoCD.Version, defaultArgoCDVersion),
		Values:      buildArgoCDValues(cfg),
	}
}

func buildArgoCDValues(cfg *config.Config) helm.Values {
	values := helm.Values{
		// TLS terminates at the ingress controller.
		"configs": helm.Values{
			"params": helm.Values{
				"server.insecure": true,
			},
		},
		"dex": helm.Values{
			"enabled": false,
		},
		"notifications": helm.Values{
			"enabled": false,
		},
	}

	return helm.Merge(values, cfg.Addons.ArgoCD.Values)
}

// EnsureRootApplication applies the app-of-apps entry point so the controller
// starts syncing the cluster's workloads from git. Skipped silently when no
// repository is configured; the controller alone is still useful.
func EnsureRootApplication(ctx context.Context, client Applier, cfg *config.Config) error {
	repoURL := cfg.Addons.ArgoCD.RepoURL
	if repoURL == "" {
		return nil
	}

	path := cfg.Addons.ArgoCD.Path
	if path == "" {
		path = "."
	}

	if err := client.Apply(ctx, buildRootApplication(repoURL, path)); err != nil {
		return fmt.Errorf("failed to apply root application: %w", err)
	}
	return nil
}

func buildRootApplication(repoURL, path string) string {
	return fmt.Sprintf(`apiVersion: argoproj.io/v1alpha1
kind: Application
metadata:
  name: root
  namespace: %s
spec:
  project: default
  source:
    repoURL: %s
    path: %s
    targetRevision: HEAD
  destination:
    server: https://kubernetes.default.svc
  syncPolicy:
    automated:
      prune: true
      selfHeal: true
    syncOptions:
    - CreateNamespace=true
`, argoCDNamespace, repoURL, path)
}
