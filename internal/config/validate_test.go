package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ClusterName:       "homelab",
		KubernetesVersion: "v1.31.4+k3s2",
		SSH:               SSHConfig{User: "ops", Port: 22, KeyPath: "/tmp/key"},
		Nodes: []NodeConfig{
			{Name: "cp-1", Role: RoleControlPlane, Address: "10.0.1.11"},
			{Name: "worker-1", Role: RoleWorker, Address: "10.0.1.21"},
		},
		Backup: BackupConfig{OutputDir: "./backups"},
		Verify: VerifyConfig{Workers: 4},
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing cluster name",
			mutate:  func(c *Config) { c.ClusterName = "" },
			wantErr: "cluster_name is required",
		},
		{
			name:    "cluster name not a DNS label",
			mutate:  func(c *Config) { c.ClusterName = "My Cluster" },
			wantErr: "must be a lowercase DNS label",
		},
		{
			name:    "cluster name too long",
			mutate:  func(c *Config) { c.ClusterName = strings.Repeat("a", 64) },
			wantErr: "must be a lowercase DNS label",
		},
		{
			name:    "version without v prefix",
			mutate:  func(c *Config) { c.KubernetesVersion = "1.31.4+k3s2" },
			wantErr: "must start with 'v'",
		},
		{
			name:    "no nodes",
			mutate:  func(c *Config) { c.Nodes = nil },
			wantErr: "at least one node is required",
		},
		{
			name: "duplicate node name",
			mutate: func(c *Config) {
				c.Nodes = append(c.Nodes, NodeConfig{Name: "cp-1", Role: RoleWorker, Address: "10.0.1.31"})
			},
			wantErr: "used more than once",
		},
		{
			name:    "node without address",
			mutate:  func(c *Config) { c.Nodes[1].Address = "" },
			wantErr: "address is required",
		},
		{
			name:    "invalid role",
			mutate:  func(c *Config) { c.Nodes[1].Role = "master" },
			wantErr: "invalid role",
		},
		{
			name: "no control plane",
			mutate: func(c *Config) {
				c.Nodes = []NodeConfig{{Name: "worker-1", Role: RoleWorker, Address: "10.0.1.21"}}
			},
			wantErr: "at least one control-plane node is required",
		},
		{
			name: "even control plane count",
			mutate: func(c *Config) {
				c.Nodes = append(c.Nodes, NodeConfig{Name: "cp-2", Role: RoleControlPlane, Address: "10.0.1.12"})
			},
			wantErr: "must be odd",
		},
		{
			name:    "missing ssh user",
			mutate:  func(c *Config) { c.SSH.User = "" },
			wantErr: "ssh.user is required",
		},
		{
			name:    "missing ssh key",
			mutate:  func(c *Config) { c.SSH.KeyPath = "" },
			wantErr: "ssh.key_path is required",
		},
		{
			name:    "ssh port out of range",
			mutate:  func(c *Config) { c.SSH.Port = 70000 },
			wantErr: "ssh.port must be between",
		},
		{
			name: "infrastructure without workdir",
			mutate: func(c *Config) {
				c.Infrastructure = InfraConfig{Enabled: true, Binary: "tofu"}
			},
			wantErr: "infrastructure.work_dir is required",
		},
		{
			name: "infrastructure with unknown binary",
			mutate: func(c *Config) {
				c.Infrastructure = InfraConfig{Enabled: true, Binary: "pulumi", WorkDir: "./infra"}
			},
			wantErr: "invalid infrastructure.binary",
		},
		{
			name: "argocd without repo",
			mutate: func(c *Config) {
				c.Addons.ArgoCD.Enabled = true
			},
			wantErr: "addons.argocd.repo_url is required",
		},
		{
			name: "cert-manager without acme email",
			mutate: func(c *Config) {
				c.Addons.CertManager.Enabled = true
			},
			wantErr: "addons.cert_manager.acme_email is required",
		},
		{
			name: "s3 enabled without endpoint",
			mutate: func(c *Config) {
				c.Backup.S3 = S3Config{Enabled: true, Bucket: "backups"}
			},
			wantErr: "backup.s3.endpoint is required",
		},
		{
			name: "s3 enabled without bucket",
			mutate: func(c *Config) {
				c.Backup.S3 = S3Config{Enabled: true, Endpoint: "https://fsn1.example.com"}
			},
			wantErr: "backup.s3.bucket is required",
		},
		{
			name:    "verify workers out of range",
			mutate:  func(c *Config) { c.Verify.Workers = 0 },
			wantErr: "verify.workers must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
