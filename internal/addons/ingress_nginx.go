package addons

import (
	"github.com/imamik/kubelift/internal/addons/helm"
	"github.com/imamik/kubelift/internal/config"
)

const (
	ingressNginxRepoURL        = "https://kubernetes.github.io/ingress-nginx"
	ingressNginxChart          = "ingress-nginx"
	defaultIngressNginxVersion = "4.12.0"
)

// IngressNginx builds the ingress controller addon. The controller service is
// a LoadBalancer; on k3s the bundled service load balancer binds it to the
// node addresses.
func IngressNginx(cfg *config.Config) Addon {
	return Addon{
		Name:        "ingress-nginx",
		ReleaseName: "ingress-nginx",
		Namespace:   "ingress-nginx",
		RepoURL:     ingressNginxRepoURL,
		Chart:       ingressNginxChart,
		Version:     versionOr(cfg.Addons.Ingress.Version, defaultIngressNginxVersion),
		Values:      buildIngressNginxValues(cfg),
	}
}

func buildIngressNginxValues(cfg *config.Config) helm.Values {
	replicas := 1
	if len(cfg.WorkerNodes()) > 1 {
		replicas = 2
	}

	values := helm.Values{
		"controller": helm.Values{
			"replicaCount":             replicas,
			"watchIngressWithoutClass": true,
			"service": helm.Values{
				"type": "LoadBalancer",
			},
			"metrics": helm.Values{
				"enabled": cfg.Addons.Monitoring.Enabled,
			},
		},
	}

	return helm.Merge(values, cfg.Addons.Ingress.Values)
}
