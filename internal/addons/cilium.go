package addons

import (
	"github.com/imamik/kubelift/internal/addons/helm"
	"github.com/imamik/kubelift/internal/config"
)

const (
	ciliumRepoURL        = "https://helm.cilium.io"
	ciliumChart          = "cilium"
	defaultCiliumVersion = "1.16.5"
)

// Cilium builds the CNI addon. The cluster is installed with flannel and
// kube-proxy disabled, so Cilium carries pod networking and service routing
// itself.
func Cilium(cfg *config.Config) Addon {
	return Addon{
		Name:        "cilium",
		ReleaseName: "cilium",
		Namespace:   "kube-system",
		RepoURL:     ciliumRepoURL,
		Chart:       ciliumChart,
		Version:     versionOr(cfg.Addons.CNI.Version, defaultCiliumVersion),
		Values:      buildCiliumValues(cfg),
	}
}

func buildCiliumValues(cfg *config.Config) helm.Values {
	operatorReplicas := 1
	if len(cfg.ControlPlaneNodes()) > 1 {
		operatorReplicas = 2
	}

	values := helm.Values{
		"kubeProxyReplacement": true,
		"routingMode":          "tunnel",
		"ipam": helm.Values{
			"mode": "kubernetes",
		},
		"operator": helm.Values{
			"replicas": operatorReplicas,
		},
	}

	// With kube-proxy replacement the agent must reach the API server
	// directly instead of through the service VIP.
	if node, ok := cfg.InitNode(); ok {
		values["k8sServiceHost"] = node.Address
		values["k8sServicePort"] = config.KubeAPIPort
	}

	return helm.Merge(values, cfg.Addons.CNI.Values)
}
