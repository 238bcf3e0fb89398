package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked for in the working directory when no --config
// flag is given.
const DefaultFileName = "kubelift.yaml"

// LoadFile reads and parses the configuration from a YAML file, applies
// defaults, and validates the result.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults(rawConfig)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills unset fields. The raw map is consulted where an unset
// bool must be distinguished from an explicit false.
func (c *Config) applyDefaults(rawConfig map[string]interface{}) {
	if c.KubernetesVersion == "" {
		c.KubernetesVersion = DefaultKubernetesVersion
	}
	if c.Kubeconfig == "" && c.ClusterName != "" {
		c.Kubeconfig = filepath.Join("~", ".kubelift", c.ClusterName+"-kubeconfig.yaml")
	}
	c.Kubeconfig = expandHome(c.Kubeconfig)

	if c.SSH.Port == 0 {
		c.SSH.Port = 22
	}
	if c.SSH.User == "" {
		c.SSH.User = "root"
	}
	c.SSH.KeyPath = expandHome(c.SSH.KeyPath)

	// The infrastructure phase turns on when a working directory is
	// configured, unless it was explicitly disabled.
	if !c.Infrastructure.Enabled && c.Infrastructure.WorkDir != "" {
		c.Infrastructure.Enabled = !explicitlyDisabled(rawConfig, "infrastructure")
	}
	if c.Infrastructure.Binary == "" {
		c.Infrastructure.Binary = "tofu"
	}
	c.Infrastructure.WorkDir = expandHome(c.Infrastructure.WorkDir)

	// Networking, storage, and ingress are on unless switched off; the
	// rest of the stack is opt-in.
	if !c.Addons.CNI.Enabled {
		c.Addons.CNI.Enabled = !explicitlyDisabled(rawConfig, "addons", "cni")
	}
	if !c.Addons.Storage.Enabled {
		c.Addons.Storage.Enabled = !explicitlyDisabled(rawConfig, "addons", "storage")
	}
	if !c.Addons.Ingress.Enabled {
		c.Addons.Ingress.Enabled = !explicitlyDisabled(rawConfig, "addons", "ingress")
	}

	if c.Backup.OutputDir == "" {
		c.Backup.OutputDir = "./backups"
	}
	c.Backup.OutputDir = expandHome(c.Backup.OutputDir)
	if c.Backup.S3.Region == "" {
		c.Backup.S3.Region = "eu-central-1"
	}
	if c.Backup.S3.AccessKeyEnv == "" {
		c.Backup.S3.AccessKeyEnv = "KUBELIFT_S3_ACCESS_KEY"
	}
	if c.Backup.S3.SecretKeyEnv == "" {
		c.Backup.S3.SecretKeyEnv = "KUBELIFT_S3_SECRET_KEY"
	}

	if c.Verify.Workers == 0 {
		c.Verify.Workers = 4
	}
}

// explicitlyDisabled reports whether the section at the given path carries
// an explicit "enabled: false" in the raw config.
func explicitlyDisabled(rawConfig map[string]interface{}, path ...string) bool {
	current := rawConfig
	for _, key := range path {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}

	val, set := current["enabled"]
	if !set {
		return false
	}
	enabled, ok := val.(bool)
	return ok && !enabled
}
