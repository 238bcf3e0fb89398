package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Node roles.
const (
	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"
)

// Config is the root configuration for a cluster.
type Config struct {
	ClusterName       string         `mapstructure:"cluster_name"`
	KubernetesVersion string         `mapstructure:"kubernetes_version"`
	Kubeconfig        string         `mapstructure:"kubeconfig"`
	SSH               SSHConfig      `mapstructure:"ssh"`
	Nodes             []NodeConfig   `mapstructure:"nodes"`
	Infrastructure    InfraConfig    `mapstructure:"infrastructure"`
	Addons            AddonsConfig   `mapstructure:"addons"`
	Backup            BackupConfig   `mapstructure:"backup"`
	Verify            VerifyConfig   `mapstructure:"verify"`
}

// NodeConfig describes a single cluster host.
type NodeConfig struct {
	Name    string `mapstructure:"name"`
	Role    string `mapstructure:"role"`
	Address string `mapstructure:"address"`
}

// SSHConfig holds the access settings shared by all hosts.
type SSHConfig struct {
	User    string `mapstructure:"user"`
	Port    int    `mapstructure:"port"`
	KeyPath string `mapstructure:"key_path"`
}

// InfraConfig points at the infrastructure-as-code working directory. The
// resource definitions inside it are opaque to kubelift; only apply and
// destroy are invoked.
type InfraConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Binary  string `mapstructure:"binary"`
	WorkDir string `mapstructure:"work_dir"`
	VarFile string `mapstructure:"var_file"`
}

// AddonsConfig selects and pins the addon stack.
type AddonsConfig struct {
	CNI         AddonConfig       `mapstructure:"cni"`
	Storage     AddonConfig       `mapstructure:"storage"`
	Ingress     AddonConfig       `mapstructure:"ingress"`
	CertManager CertManagerConfig `mapstructure:"cert_manager"`
	Monitoring  AddonConfig       `mapstructure:"monitoring"`
	ArgoCD      ArgoCDConfig      `mapstructure:"argocd"`
}

// AddonConfig is the common shape for a chart-installed addon.
type AddonConfig struct {
	Enabled bool                   `mapstructure:"enabled"`
	Version string                 `mapstructure:"version"`
	Values  map[string]interface{} `mapstructure:"values"`
}

// CertManagerConfig extends the addon shape with issuer settings. The
// Cloudflare token is read from the named environment variable, never from
// the file.
type CertManagerConfig struct {
	Enabled            bool                   `mapstructure:"enabled"`
	Version            string                 `mapstructure:"version"`
	AcmeEmail          string                 `mapstructure:"acme_email"`
	CloudflareTokenEnv string                 `mapstructure:"cloudflare_token_env"`
	Values             map[string]interface{} `mapstructure:"values"`
}

// ArgoCDConfig extends the addon shape with the root application source.
type ArgoCDConfig struct {
	Enabled bool                   `mapstructure:"enabled"`
	Version string                 `mapstructure:"version"`
	RepoURL string                 `mapstructure:"repo_url"`
	Path    string                 `mapstructure:"path"`
	Values  map[string]interface{} `mapstructure:"values"`
}

// BackupConfig controls export targets for the backup workflow.
type BackupConfig struct {
	OutputDir  string   `mapstructure:"output_dir"`
	Namespaces []string `mapstructure:"namespaces"`
	S3         S3Config `mapstructure:"s3"`
}

// S3Config describes the optional offsite target. Credentials are read from
// the named environment variables.
type S3Config struct {
	Enabled      bool   `mapstructure:"enabled"`
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKeyEnv string `mapstructure:"access_key_env"`
	SecretKeyEnv string `mapstructure:"secret_key_env"`
}

// VerifyConfig tunes the verification engine.
type VerifyConfig struct {
	Workers int `mapstructure:"workers"`
}

// ControlPlaneNodes returns the nodes with the control-plane role, in
// declaration order.
func (c *Config) ControlPlaneNodes() []NodeConfig {
	var nodes []NodeConfig
	for _, n := range c.Nodes {
		if n.Role == RoleControlPlane {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// WorkerNodes returns the nodes with the worker role, in declaration order.
func (c *Config) WorkerNodes() []NodeConfig {
	var nodes []NodeConfig
	for _, n := range c.Nodes {
		if n.Role == RoleWorker {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// InitNode returns the first control-plane node, which bootstraps the
// cluster and serves the datastore.
func (c *Config) InitNode() (NodeConfig, bool) {
	cps := c.ControlPlaneNodes()
	if len(cps) == 0 {
		return NodeConfig{}, false
	}
	return cps[0], true
}

// NodeByName looks a node up by its configured name.
func (c *Config) NodeByName(name string) (NodeConfig, bool) {
	for _, n := range c.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeConfig{}, false
}

// NodeNames returns all node names in declaration order.
func (c *Config) NodeNames() []string {
	names := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		names = append(names, n.Name)
	}
	return names
}

// expandHome replaces a leading ~ with the current user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
