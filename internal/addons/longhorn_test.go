package addons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/kubelift/internal/addons/helm"
)

func TestStorageReplicaCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		controlPlanes int
		workers       int
		expected      int
	}{
		{name: "workers carry volumes", controlPlanes: 3, workers: 2, expected: 2},
		{name: "capped at three", controlPlanes: 3, workers: 5, expected: 3},
		{name: "control-plane-only cluster counts all nodes", controlPlanes: 3, workers: 0, expected: 3},
		{name: "single node floor", controlPlanes: 1, workers: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(tt.controlPlanes, tt.workers)
			assert.Equal(t, tt.expected, storageReplicaCount(cfg))
		})
	}
}

func TestBuildLonghornValues(t *testing.T) {
	t.Parallel()

	values := buildLonghornValues(testConfig(3, 2))

	settings, ok := values["defaultSettings"].(helm.Values)
	require.True(t, ok)
	assert.Equal(t, 2, settings["defaultReplicaCount"])
	assert.Equal(t, false, settings["upgradeChecker"])

	persistence, ok := values["persistence"].(helm.Values)
	require.True(t, ok)
	assert.Equal(t, 2, persistence["defaultClassReplicaCount"])
}

func TestBuildLonghornValues_OperatorOverrideWins(t *testing.T) {
	t.Parallel()

	cfg := testConfig(1, 1)
	cfg.Addons.Storage.Values = map[string]interface{}{
		"persistence": map[string]interface{}{"defaultClass": false},
	}

	values := buildLonghornValues(cfg)
	persistence, ok := values["persistence"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, persistence["defaultClass"])
}

func TestLonghorn(t *testing.T) {
	t.Parallel()

	addon := Longhorn(testConfig(1, 1))

	assert.Equal(t, "longhorn", addon.Name)
	assert.Equal(t, LonghornNamespace, addon.Namespace)
	assert.Equal(t, defaultLonghornVersion, addon.Version)
}
