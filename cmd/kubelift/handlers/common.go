// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/imamik/kubelift/internal/addons"
	"github.com/imamik/kubelift/internal/config"
	"github.com/imamik/kubelift/internal/host"
	"github.com/imamik/kubelift/internal/lifecycle"
	"github.com/imamik/kubelift/internal/logging"
	"github.com/imamik/kubelift/internal/platform/hcloud"
	"github.com/imamik/kubelift/internal/platform/iac"
	"github.com/imamik/kubelift/internal/platform/kube"
	"github.com/imamik/kubelift/internal/platform/ssh"
	"github.com/imamik/kubelift/internal/util/prerequisites"
	"github.com/imamik/kubelift/internal/workflow"
)

// defaultConfigFile is looked for in the working directory when no
// --config flag is given.
const defaultConfigFile = "kubelift.yaml"

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// loadConfigFile loads and validates the cluster configuration.
	loadConfigFile = config.LoadFile

	// loadTimeouts reads the timeout overrides from the environment.
	loadTimeouts = config.LoadTimeouts

	// newLogger creates the per-invocation logger and run log.
	newLogger = logging.New

	// acquireLock takes the single-invocation lock for mutating workflows.
	acquireLock = lifecycle.AcquireLock

	// buildDeps assembles the workflow collaborators from configuration.
	buildDeps = defaultDeps

	// verifyPrerequisites checks that required local tools are installed.
	verifyPrerequisites = prerequisites.Verify

	// newRunID stamps the invocation.
	newRunID = uuid.NewString

	// newConfirmer builds the confirmation gate for destructive phases.
	newConfirmer = func() lifecycle.Confirmer { return lifecycle.TerminalConfirmer{} }
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newRunLogger builds the invocation logger; the returned closer flushes
// the run log file.
func newRunLogger(workflowName, runID string, verbose bool) (zerolog.Logger, func(), error) {
	log, runLog, err := newLogger(logging.Options{
		Workflow: workflowName,
		RunID:    runID,
		Verbose:  verbose,
	})
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return log, func() { _ = runLog.Close() }, nil
}

// defaultDeps wires the real collaborators: the IaC runner when
// infrastructure is managed, the SSH-backed host manager, the cloud client
// when a token is present, and lazy kube/helm clients that only connect
// once a kubeconfig exists.
func defaultDeps(cfg *config.Config, timeouts *config.Timeouts, log zerolog.Logger) (*workflow.Deps, error) {
	deps := &workflow.Deps{Config: cfg}

	if cfg.Infrastructure.Enabled {
		runner, err := iac.NewRunner(cfg.Infrastructure.Binary, cfg.Infrastructure.WorkDir,
			iac.WithVarFile(cfg.Infrastructure.VarFile),
			iac.WithLogger(log))
		if err != nil {
			return nil, err
		}
		deps.Infra = runner
	}

	key, err := os.ReadFile(cfg.SSH.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key %s: %w", cfg.SSH.KeyPath, err)
	}
	sshClient, err := ssh.NewClient(&ssh.Config{
		User:       cfg.SSH.User,
		Port:       cfg.SSH.Port,
		PrivateKey: key,
	})
	if err != nil {
		return nil, err
	}
	deps.Hosts = host.NewManager(sshClient, log)

	if token := os.Getenv("HCLOUD_TOKEN"); token != "" {
		deps.Cloud = &cloudAdapter{client: hcloud.NewRealClient(token, hcloud.WithLogger(log))}
	}

	var cachedKube *kube.Client
	connect := func() (*kube.Client, error) {
		if cachedKube != nil {
			return cachedKube, nil
		}
		client, err := kube.NewClient(cfg.Kubeconfig)
		if err != nil {
			return nil, err
		}
		cachedKube = client
		return client, nil
	}

	deps.Kube = func() (workflow.Cluster, error) {
		return connect()
	}
	deps.Addons = newAddonFactory(cfg, timeouts, log)
	deps.SaveKubeconfig = func(data []byte) error {
		if err := os.WriteFile(cfg.Kubeconfig, data, 0o600); err != nil {
			return fmt.Errorf("failed to write kubeconfig %s: %w", cfg.Kubeconfig, err)
		}
		log.Info().Str("path", cfg.Kubeconfig).Msg("kubeconfig written")
		return nil
	}

	return deps, nil
}

// newAddonFactory returns the lazy helm installer factory. The kubeconfig
// is read per connection attempt because control-plane init writes it
// mid-run; the first working installer is cached.
func newAddonFactory(cfg *config.Config, timeouts *config.Timeouts, log zerolog.Logger) func() (workflow.AddonInstaller, error) {
	var cached *addons.Installer
	return func() (workflow.AddonInstaller, error) {
		if cached != nil {
			return cached, nil
		}
		kubeconfig, err := os.ReadFile(cfg.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read kubeconfig %s: %w", cfg.Kubeconfig, err)
		}
		cached = addons.NewInstaller(kubeconfig, timeouts.HelmInstall, log)
		return cached, nil
	}
}

// cloudAdapter narrows the hcloud client to what the phases need: does a
// server exist and what state is it in.
type cloudAdapter struct {
	client hcloud.Client
}

func (a *cloudAdapter) GetServerByName(ctx context.Context, name string) (string, bool, error) {
	server, err := a.client.GetServerByName(ctx, name)
	if err != nil {
		return "", false, err
	}
	if server == nil {
		return "", false, nil
	}
	return string(server.Status), true, nil
}

func (a *cloudAdapter) CleanupByLabel(ctx context.Context, labels map[string]string) error {
	return a.client.CleanupByLabel(ctx, labels)
}

// checkInfraPrerequisites refuses to start a workflow whose infrastructure
// phase would fail on a missing local binary.
func checkInfraPrerequisites(cfg *config.Config) error {
	if !cfg.Infrastructure.Enabled {
		return nil
	}
	return verifyPrerequisites([]prerequisites.Tool{prerequisites.IaCTool(cfg.Infrastructure.Binary)})
}
