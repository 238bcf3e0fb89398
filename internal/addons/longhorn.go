package addons

import (
	"github.com/imamik/kubelift/internal/addons/helm"
	"github.com/imamik/kubelift/internal/config"
)

const (
	longhornRepoURL        = "https://charts.longhorn.io"
	longhornChart          = "longhorn"
	defaultLonghornVersion = "1.7.2"

	// LonghornNamespace is where volume state lives. Teardown treats this
	// namespace as holding persisted data.
	LonghornNamespace = "longhorn-system"
)

// Longhorn builds the distributed storage addon.
func Longhorn(cfg *config.Config) Addon {
	return Addon{
		Name:        "longhorn",
		ReleaseName: "longhorn",
		Namespace:   LonghornNamespace,
		RepoURL:     longhornRepoURL,
		Chart:       longhornChart,
		Version:     versionOr(cfg.Addons.Storage.Version, defaultLonghornVersion),
		Values:      buildLonghornValues(cfg),
	}
}

func buildLonghornValues(cfg *config.Config) helm.Values {
	replicas := storageReplicaCount(cfg)

	values := helm.Values{
		"defaultSettings": helm.Values{
			"defaultReplicaCount":                 replicas,
			"upgradeChecker":                      false,
			"allowCollectingLonghornUsageMetrics": false,
		},
		"persistence": helm.Values{
			"defaultClassReplicaCount": replicas,
		},
		"preUpgradeChecker": helm.Values{
			"jobEnabled": false,
		},
	}

	return helm.Merge(values, cfg.Addons.Storage.Values)
}

// storageReplicaCount sizes volume replication to the nodes that can hold
// data, capped at three. Workers carry volumes when present; on a
// control-plane-only cluster every node does.
func storageReplicaCount(cfg *config.Config) int {
	count := len(cfg.WorkerNodes())
	if count == 0 {
		count = len(cfg.Nodes)
	}
	if count > 3 {
		count = 3
	}
	if count < 1 {
		count = 1
	}
	return count
}
