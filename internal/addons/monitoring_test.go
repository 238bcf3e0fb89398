package addons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/kubelift/internal/addons/helm"
)

func TestBuildMonitoringValues_WithStorage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(1, 2)
	cfg.Addons.Storage.Enabled = true

	values := buildMonitoringValues(cfg)

	prometheus, ok := values["prometheus"].(helm.Values)
	require.True(t, ok)
	spec, ok := prometheus["prometheusSpec"].(helm.Values)
	require.True(t, ok)

	assert.Equal(t, "15d", spec["retention"])
	assert.Contains(t, spec, "storageSpec")
}

func TestBuildMonitoringValues_WithoutStorage(t *testing.T) {
	t.Parallel()

	values := buildMonitoringValues(testConfig(1, 2))

	prometheus, ok := values["prometheus"].(helm.Values)
	require.True(t, ok)
	spec, ok := prometheus["prometheusSpec"].(helm.Values)
	require.True(t, ok)

	assert.NotContains(t, spec, "storageSpec")

	etcd, ok := values["kubeEtcd"].(helm.Values)
	require.True(t, ok)
	assert.Equal(t, false, etcd["enabled"])
}

func TestMonitoring(t *testing.T) {
	t.Parallel()

	addon := Monitoring(testConfig(1, 1))

	assert.Equal(t, "monitoring", addon.Name)
	assert.Equal(t, "kube-prometheus-stack", addon.ReleaseName)
	assert.Equal(t, MonitoringNamespace, addon.Namespace)
	assert.Equal(t, defaultMonitoringVersion, addon.Version)
}
