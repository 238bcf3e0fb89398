package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
cluster_name: homelab
nodes:
  - name: cp-1
    role: control-plane
    address: 10.0.1.11
  - name: worker-1
    role: worker
    address: 10.0.1.21
ssh:
  user: ops
  key_path: /tmp/id_ed25519
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Minimal(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "homelab", cfg.ClusterName)
	assert.Equal(t, DefaultKubernetesVersion, cfg.KubernetesVersion)
	assert.Equal(t, 22, cfg.SSH.Port)
	assert.Equal(t, "ops", cfg.SSH.User)
	assert.Len(t, cfg.Nodes, 2)
}

func TestLoadFile_AddonDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	// Core addons default on, the rest is opt-in.
	assert.True(t, cfg.Addons.CNI.Enabled)
	assert.True(t, cfg.Addons.Storage.Enabled)
	assert.True(t, cfg.Addons.Ingress.Enabled)
	assert.False(t, cfg.Addons.CertManager.Enabled)
	assert.False(t, cfg.Addons.Monitoring.Enabled)
	assert.False(t, cfg.Addons.ArgoCD.Enabled)
}

func TestLoadFile_ExplicitDisableRespected(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalYAML+`
addons:
  storage:
    enabled: false
`))
	require.NoError(t, err)

	assert.True(t, cfg.Addons.CNI.Enabled)
	assert.False(t, cfg.Addons.Storage.Enabled)
}

func TestLoadFile_InfrastructureEnabledByWorkDir(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalYAML+`
infrastructure:
  work_dir: ./tofu
`))
	require.NoError(t, err)

	assert.True(t, cfg.Infrastructure.Enabled)
	assert.Equal(t, "tofu", cfg.Infrastructure.Binary)
}

func TestLoadFile_InfrastructureExplicitlyDisabled(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalYAML+`
infrastructure:
  enabled: false
  work_dir: ./tofu
`))
	require.NoError(t, err)

	assert.False(t, cfg.Infrastructure.Enabled)
}

func TestLoadFile_BackupDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "./backups", cfg.Backup.OutputDir)
	assert.Equal(t, "KUBELIFT_S3_ACCESS_KEY", cfg.Backup.S3.AccessKeyEnv)
	assert.Equal(t, 4, cfg.Verify.Workers)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "cluster_name: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal yaml")
}

func TestLoadFile_ValidationFailureSurfaces(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `
cluster_name: homelab
ssh:
  user: ops
  key_path: /tmp/id_ed25519
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestNodeHelpers(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cps := cfg.ControlPlaneNodes()
	require.Len(t, cps, 1)
	assert.Equal(t, "cp-1", cps[0].Name)

	init, ok := cfg.InitNode()
	require.True(t, ok)
	assert.Equal(t, "cp-1", init.Name)

	workers := cfg.WorkerNodes()
	require.Len(t, workers, 1)
	assert.Equal(t, "worker-1", workers[0].Name)

	_, found := cfg.NodeByName("missing")
	assert.False(t, found)

	assert.Equal(t, []string{"cp-1", "worker-1"}, cfg.NodeNames())
}
