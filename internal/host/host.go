package host

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/imamik/kubelift/internal/config"
)

const (
	// preparedMarker records that a host went through Prepare and which
	// k3s version was staged. Probes read it to skip re-preparation.
	preparedMarker = "/etc/kubelift/prepared"

	// installScript is where Prepare stages the pinned k3s installer.
	installScript = "/usr/local/lib/kubelift/install-k3s.sh"

	kubeconfigPath = "/etc/rancher/k3s/k3s.yaml"
	nodeTokenPath  = "/var/lib/rancher/k3s/server/node-token"
)

// serverArgs disables the k3s built-ins the addon stack replaces: Cilium
// carries networking and service routing, ingress-nginx replaces traefik.
var serverArgs = []string{
	"--flannel-backend=none",
	"--disable-network-policy",
	"--disable-kube-proxy",
	"--disable=traefik",
	"--disable=servicelb",
}

// Runner is the SSH surface the manager drives hosts through.
type Runner interface {
	Run(ctx context.Context, host, command string) (string, error)
	ReadFile(ctx context.Context, host, path string) ([]byte, error)
	Reachable(ctx context.Context, host string) bool
}

// Manager executes k3s lifecycle operations on cluster hosts.
type Manager struct {
	runner Runner
	log    zerolog.Logger
}

// NewManager returns a manager running commands through the given runner.
func NewManager(runner Runner, log zerolog.Logger) *Manager {
	return &Manager{runner: runner, log: log}
}

// Reachable reports whether the host answers on SSH.
func (m *Manager) Reachable(ctx context.Context, node config.NodeConfig) bool {
	return m.runner.Reachable(ctx, node.Address)
}

// PreparedVersion returns the k3s version staged on the host, or "" when the
// host was never prepared.
func (m *Manager) PreparedVersion(ctx context.Context, node config.NodeConfig) (string, error) {
	out, err := m.runner.Run(ctx, node.Address, fmt.Sprintf("cat %s 2>/dev/null || true", preparedMarker))
	if err != nil {
		return "", fmt.Errorf("failed to read prepared marker on %s: %w", node.Name, err)
	}
	return strings.TrimSpace(out), nil
}

// InstalledVersion returns the k3s version running on the host, or "" when
// k3s is not installed.
func (m *Manager) InstalledVersion(ctx context.Context, node config.NodeConfig) (string, error) {
	out, err := m.runner.Run(ctx, node.Address, "k3s --version 2>/dev/null || true")
	if err != nil {
		return "", fmt.Errorf("failed to read k3s version on %s: %w", node.Name, err)
	}
	// First line reads "k3s version v1.31.4+k3s2 (hash)".
	fields := strings.Fields(strings.SplitN(out, "\n", 2)[0])
	if len(fields) < 3 || fields[0] != "k3s" {
		return "", nil
	}
	return fields[2], nil
}

// Prepare installs OS prerequisites and stages the pinned k3s installer on
// the host, then writes the prepared marker. It does not start k3s.
func (m *Manager) Prepare(ctx context.Context, node config.NodeConfig, version string) error {
	m.log.Info().Str("host", node.Name).Str("version", version).Msg("preparing host")

	cmds := []string{
		// open-iscsi and nfs-common are Longhorn host requirements.
		"export DEBIAN_FRONTEND=noninteractive; apt-get update -q && apt-get install -qy curl open-iscsi nfs-common",
		"systemctl enable --now iscsid",
		fmt.Sprintf("mkdir -p %s %s", "/etc/kubelift", "/usr/local/lib/kubelift"),
		fmt.Sprintf("curl -sfL https://get.k3s.io -o %s && chmod 0755 %s", installScript, installScript),
		fmt.Sprintf("printf '%%s\\n' %q > %s", version, preparedMarker),
	}
	for _, cmd := range cmds {
		if out, err := m.runner.Run(ctx, node.Address, cmd); err != nil {
			return fmt.Errorf("failed to prepare %s: %w (output: %s)", node.Name, err, strings.TrimSpace(out))
		}
	}
	return nil
}

// InitControlPlane bootstraps k3s on the first control-plane host with an
// embedded etcd datastore.
func (m *Manager) InitControlPlane(ctx context.Context, node config.NodeConfig, version string) error {
	m.log.Info().Str("host", node.Name).Str("version", version).Msg("initializing control plane")

	args := append([]string{"server", "--cluster-init", "--tls-san", node.Address}, serverArgs...)
	cmd := fmt.Sprintf("INSTALL_K3S_VERSION=%q sh %s %s", version, installScript, strings.Join(args, " "))
	if out, err := m.runner.Run(ctx, node.Address, cmd); err != nil {
		return fmt.Errorf("failed to init control plane on %s: %w (output: %s)", node.Name, err, strings.TrimSpace(out))
	}
	return nil
}

// NodeToken reads the join token from an initialized control-plane host.
func (m *Manager) NodeToken(ctx context.Context, node config.NodeConfig) (string, error) {
	data, err := m.runner.ReadFile(ctx, node.Address, nodeTokenPath)
	if err != nil {
		return "", fmt.Errorf("failed to read node token from %s: %w", node.Name, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("empty node token on %s", node.Name)
	}
	return token, nil
}

// Kubeconfig fetches the admin kubeconfig from an initialized control-plane
// host, rewritten to point at the host's address instead of localhost.
func (m *Manager) Kubeconfig(ctx context.Context, node config.NodeConfig) ([]byte, error) {
	data, err := m.runner.ReadFile(ctx, node.Address, kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch kubeconfig from %s: %w", node.Name, err)
	}
	server := fmt.Sprintf("https://%s:%d", node.Address, config.KubeAPIPort)
	return bytes.ReplaceAll(data, []byte("https://127.0.0.1:6443"), []byte(server)), nil
}

// Join adds a host to an existing cluster. Control-plane nodes join as
// additional servers, workers as agents.
func (m *Manager) Join(ctx context.Context, node config.NodeConfig, server config.NodeConfig, token, version string) error {
	m.log.Info().Str("host", node.Name).Str("role", node.Role).Msg("joining cluster")

	serverURL := fmt.Sprintf("https://%s:%d", server.Address, config.KubeAPIPort)
	var args []string
	if node.Role == config.RoleControlPlane {
		args = append([]string{"server", "--server", serverURL, "--tls-san", node.Address}, serverArgs...)
	} else {
		args = []string{"agent", "--server", serverURL}
	}

	cmd := fmt.Sprintf("INSTALL_K3S_VERSION=%q K3S_TOKEN=%q sh %s %s",
		version, token, installScript, strings.Join(args, " "))
	if out, err := m.runner.Run(ctx, node.Address, cmd); err != nil {
		return fmt.Errorf("failed to join %s: %w (output: %s)", node.Name, err, strings.TrimSpace(out))
	}
	return nil
}

// Uninstall removes k3s from the host using the role-appropriate uninstall
// script and clears the prepared marker. Hosts without k3s are a no-op.
func (m *Manager) Uninstall(ctx context.Context, node config.NodeConfig) error {
	m.log.Info().Str("host", node.Name).Str("role", node.Role).Msg("uninstalling k3s")

	script := "/usr/local/bin/k3s-uninstall.sh"
	if node.Role == config.RoleWorker {
		script = "/usr/local/bin/k3s-agent-uninstall.sh"
	}
	cmd := fmt.Sprintf("if [ -x %s ]; then %s; fi; rm -f %s", script, script, preparedMarker)
	if out, err := m.runner.Run(ctx, node.Address, cmd); err != nil {
		return fmt.Errorf("failed to uninstall k3s on %s: %w (output: %s)", node.Name, err, strings.TrimSpace(out))
	}
	return nil
}

// KillAll force-stops every k3s process and container on the host. Teardown
// uses it as the fallback when a clean uninstall leaves processes behind.
func (m *Manager) KillAll(ctx context.Context, node config.NodeConfig) error {
	m.log.Warn().Str("host", node.Name).Msg("force-stopping k3s")

	cmd := "if [ -x /usr/local/bin/k3s-killall.sh ]; then /usr/local/bin/k3s-killall.sh; fi"
	if out, err := m.runner.Run(ctx, node.Address, cmd); err != nil {
		return fmt.Errorf("failed to force-stop k3s on %s: %w (output: %s)", node.Name, err, strings.TrimSpace(out))
	}
	return nil
}
