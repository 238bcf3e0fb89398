package addons

import (
	"github.com/imamik/kubelift/internal/addons/helm"
	"github.com/imamik/kubelift/internal/config"
)

const (
	prometheusCommunityRepoURL = "https://prometheus-community.github.io/helm-charts"
	kubePrometheusStackChart   = "kube-prometheus-stack"
	defaultMonitoringVersion   = "67.5.0"

	// MonitoringNamespace holds Prometheus state. Teardown treats it as
	// holding persisted data when metrics are stored on volumes.
	MonitoringNamespace = "monitoring"
)

// Monitoring builds the kube-prometheus-stack addon: Prometheus, Alertmanager
// and Grafana with the default dashboard set.
func Monitoring(cfg *config.Config) Addon {
	return Addon{
		Name:        "monitoring",
		ReleaseName: "kube-prometheus-stack",
		Namespace:   MonitoringNamespace,
		RepoURL:     prometheusCommunityRepoURL,
		Chart:       kubePrometheusStackChart,
		Version:     versionOr(cfg.Addons.Monitoring.Version, defaultMonitoringVersion),
		Values:      buildMonitoringValues(cfg),
	}
}

func buildMonitoringValues(cfg *config.Config) helm.Values {
	prometheusSpec := helm.Values{
		"retention": "15d",
	}

	// Persist metrics on the storage addon when it is part of the cluster;
	// without it Prometheus runs on emptyDir and loses history on restart.
	if cfg.Addons.Storage.Enabled {
		prometheusSpec["storageSpec"] = helm.Values{
			"volumeClaimTemplate": helm.Values{
				"spec": helm.Values{
					"storageClassName": "longhorn",
					"accessModes":      []string{"ReadWriteOnce"},
					"resources": helm.Values{
						"requests": helm.Values{
							"storage": "20Gi",
						},
					},
				},
			},
		}
	}

	values := helm.Values{
		"prometheus": helm.Values{
			"prometheusSpec": prometheusSpec,
		},
		"grafana": helm.Values{
			"defaultDashboardsEnabled": true,
		},
		// Etcd and the scheduler are reachable only through the k3s process,
		// not as separate pods, so their stock probes produce noise.
		"kubeEtcd": helm.Values{
			"enabled": false,
		},
		"kubeScheduler": helm.Values{
			"enabled": false,
		},
		"kubeControllerManager": helm.Values{
			"enabled": false,
		},
	}

	return helm.Merge(values, cfg.Addons.Monitoring.Values)
}
