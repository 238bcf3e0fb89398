package config

import (
	"fmt"
	"regexp"
)

var clusterNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidInfraBinaries lists the accepted infrastructure-as-code executables.
var ValidInfraBinaries = map[string]bool{
	"tofu":      true,
	"terraform": true,
}

// Validate checks the configuration for common errors and returns a
// detailed error if validation fails.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if !clusterNamePattern.MatchString(c.ClusterName) || len(c.ClusterName) > 63 {
		return fmt.Errorf("invalid cluster_name %q: must be a lowercase DNS label", c.ClusterName)
	}
	if c.KubernetesVersion != "" && c.KubernetesVersion[0] != 'v' {
		return fmt.Errorf("invalid kubernetes_version %q: must start with 'v'", c.KubernetesVersion)
	}

	if err := c.validateNodes(); err != nil {
		return fmt.Errorf("node validation failed: %w", err)
	}
	if err := c.validateSSH(); err != nil {
		return fmt.Errorf("ssh validation failed: %w", err)
	}
	if err := c.validateInfrastructure(); err != nil {
		return fmt.Errorf("infrastructure validation failed: %w", err)
	}
	if err := c.validateAddons(); err != nil {
		return fmt.Errorf("addon validation failed: %w", err)
	}
	if err := c.validateBackup(); err != nil {
		return fmt.Errorf("backup validation failed: %w", err)
	}
	if c.Verify.Workers < 1 || c.Verify.Workers > 64 {
		return fmt.Errorf("verify.workers must be between 1 and 64, got %d", c.Verify.Workers)
	}

	return nil
}

func (c *Config) validateNodes() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}

	seen := make(map[string]bool, len(c.Nodes))
	controlPlanes := 0
	for i, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("node %d: name is required", i)
		}
		if seen[n.Name] {
			return fmt.Errorf("node name %q is used more than once", n.Name)
		}
		seen[n.Name] = true

		if n.Address == "" {
			return fmt.Errorf("node %s: address is required", n.Name)
		}
		switch n.Role {
		case RoleControlPlane:
			controlPlanes++
		case RoleWorker:
		default:
			return fmt.Errorf("node %s: invalid role %q (must be %q or %q)",
				n.Name, n.Role, RoleControlPlane, RoleWorker)
		}
	}

	if controlPlanes == 0 {
		return fmt.Errorf("at least one control-plane node is required")
	}
	if controlPlanes%2 == 0 {
		return fmt.Errorf("control-plane count must be odd for HA (got %d)", controlPlanes)
	}

	return nil
}

func (c *Config) validateSSH() error {
	if c.SSH.User == "" {
		return fmt.Errorf("ssh.user is required")
	}
	if c.SSH.KeyPath == "" {
		return fmt.Errorf("ssh.key_path is required")
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port must be between 1 and 65535, got %d", c.SSH.Port)
	}
	return nil
}

func (c *Config) validateInfrastructure() error {
	if !c.Infrastructure.Enabled {
		return nil
	}
	if c.Infrastructure.WorkDir == "" {
		return fmt.Errorf("infrastructure.work_dir is required when the infrastructure phase is enabled")
	}
	if !ValidInfraBinaries[c.Infrastructure.Binary] {
		return fmt.Errorf("invalid infrastructure.binary %q: must be one of [tofu terraform]", c.Infrastructure.Binary)
	}
	return nil
}

func (c *Config) validateAddons() error {
	if c.Addons.ArgoCD.Enabled && c.Addons.ArgoCD.RepoURL == "" {
		return fmt.Errorf("addons.argocd.repo_url is required when argocd is enabled")
	}
	if c.Addons.CertManager.Enabled && c.Addons.CertManager.AcmeEmail == "" {
		return fmt.Errorf("addons.cert_manager.acme_email is required when cert_manager is enabled")
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.OutputDir == "" {
		return fmt.Errorf("backup.output_dir is required")
	}
	if c.Backup.S3.Enabled {
		if c.Backup.S3.Endpoint == "" {
			return fmt.Errorf("backup.s3.endpoint is required when s3 upload is enabled")
		}
		if c.Backup.S3.Bucket == "" {
			return fmt.Errorf("backup.s3.bucket is required when s3 upload is enabled")
		}
	}
	return nil
}
