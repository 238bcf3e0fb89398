package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/imamik/kubelift/internal/addons"
	"github.com/imamik/kubelift/internal/config"
	"github.com/imamik/kubelift/internal/lifecycle"
	"github.com/imamik/kubelift/internal/logging"
	"github.com/imamik/kubelift/internal/util/prerequisites"
	"github.com/imamik/kubelift/internal/workflow"
)

// saveAndRestoreFactories snapshots every injectable factory and restores
// it when the test finishes.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()

	origLoadConfigFile := loadConfigFile
	origLoadTimeouts := loadTimeouts
	origNewLogger := newLogger
	origAcquireLock := acquireLock
	origBuildDeps := buildDeps
	origVerifyPrerequisites := verifyPrerequisites
	origNewRunID := newRunID
	origNewConfirmer := newConfirmer
	origNewExporter := newExporter
	origNewSnapshotRunner := newSnapshotRunner
	origUploadArchive := uploadArchive
	origPreBackup := preBackup
	origNewBattery := newBattery
	origIsInteractive := isInteractive
	origRunInteractive := runInteractive
	origVerifyOut := verifyOut

	t.Cleanup(func() {
		loadConfigFile = origLoadConfigFile
		loadTimeouts = origLoadTimeouts
		newLogger = origNewLogger
		acquireLock = origAcquireLock
		buildDeps = origBuildDeps
		verifyPrerequisites = origVerifyPrerequisites
		newRunID = origNewRunID
		newConfirmer = origNewConfirmer
		newExporter = origNewExporter
		newSnapshotRunner = origNewSnapshotRunner
		uploadArchive = origUploadArchive
		preBackup = origPreBackup
		newBattery = origNewBattery
		isInteractive = origIsInteractive
		runInteractive = origRunInteractive
		verifyOut = origVerifyOut
	})
}

func stubConfig() *config.Config {
	return &config.Config{
		ClusterName:       "test",
		KubernetesVersion: "v1.31.4+k3s2",
		Kubeconfig:        "kubeconfig.yaml",
		SSH:               config.SSHConfig{User: "root", Port: 22, KeyPath: "id_ed25519"},
		Nodes: []config.NodeConfig{
			{Name: "cp1", Role: config.RoleControlPlane, Address: "10.0.0.1"},
			{Name: "w1", Role: config.RoleWorker, Address: "10.0.0.2"},
		},
		Addons: config.AddonsConfig{
			CNI:     config.AddonConfig{Enabled: true},
			Storage: config.AddonConfig{Enabled: true},
		},
		Backup: config.BackupConfig{OutputDir: "backups"},
	}
}

func shortTimeouts() *config.Timeouts {
	return &config.Timeouts{
		APIWait:         time.Second,
		NodeJoin:        time.Second,
		HelmInstall:     time.Second,
		Drain:           time.Second,
		Check:           time.Second,
		TerminationWait: 50 * time.Millisecond,
		PollInterval:    5 * time.Millisecond,
		ProbeAttempts:   1,
		ProbeDelay:      time.Millisecond,
	}
}

// stubAmbient replaces configuration loading, logging, locking and
// prerequisite checks with inert fakes and returns the config the stubs
// hand out.
func stubAmbient(t *testing.T) *config.Config {
	t.Helper()
	cfg := stubConfig()

	loadConfigFile = func(string) (*config.Config, error) { return cfg, nil }
	loadTimeouts = shortTimeouts
	newLogger = func(logging.Options) (zerolog.Logger, *logging.RunLog, error) {
		return zerolog.Nop(), &logging.RunLog{}, nil
	}
	acquireLock = func(string) (*lifecycle.Lock, error) { return nil, nil }
	verifyPrerequisites = func([]prerequisites.Tool) error { return nil }
	newRunID = func() string { return "test-run" }

	return cfg
}

// hostState is the shared cluster state behind the stub collaborators.
type hostState struct {
	prepared       map[string]string
	installed      map[string]string
	controlPlane   bool
	kubeconfig     bool
	registered     map[string]bool
	releases       map[string]bool
	calls          []string
}

func newHostState() *hostState {
	return &hostState{
		prepared:   map[string]string{},
		installed:  map[string]string{},
		registered: map[string]bool{},
		releases:   map[string]bool{},
	}
}

// provisioned flips the state to a fully built cluster.
func (s *hostState) provisioned(version string, releases ...string) {
	for _, n := range []string{"cp1", "w1"} {
		s.prepared[n] = version
		s.installed[n] = version
		s.registered[n] = true
	}
	s.controlPlane = true
	s.kubeconfig = true
	for _, r := range releases {
		s.releases[r] = true
	}
}

func (s *hostState) record(call string) { s.calls = append(s.calls, call) }

type stubHosts struct{ s *hostState }

func (f *stubHosts) Reachable(context.Context, config.NodeConfig) bool { return true }

func (f *stubHosts) PreparedVersion(_ context.Context, n config.NodeConfig) (string, error) {
	return f.s.prepared[n.Name], nil
}

func (f *stubHosts) InstalledVersion(_ context.Context, n config.NodeConfig) (string, error) {
	v, ok := f.s.installed[n.Name]
	if !ok {
		return "", errors.New("not installed")
	}
	return v, nil
}

func (f *stubHosts) Prepare(_ context.Context, n config.NodeConfig, version string) error {
	f.s.record("prepare." + n.Name)
	f.s.prepared[n.Name] = version
	return nil
}

func (f *stubHosts) InitControlPlane(_ context.Context, n config.NodeConfig, version string) error {
	f.s.record("init." + n.Name)
	f.s.controlPlane = true
	f.s.installed[n.Name] = version
	f.s.registered[n.Name] = true
	return nil
}

func (f *stubHosts) NodeToken(context.Context, config.NodeConfig) (string, error) {
	return "token", nil
}

func (f *stubHosts) Kubeconfig(context.Context, config.NodeConfig) ([]byte, error) {
	return []byte("kubeconfig"), nil
}

func (f *stubHosts) Join(_ context.Context, n, _ config.NodeConfig, _, version string) error {
	f.s.record("join." + n.Name)
	f.s.installed[n.Name] = version
	f.s.registered[n.Name] = true
	return nil
}

func (f *stubHosts) Uninstall(_ context.Context, n config.NodeConfig) error {
	f.s.record("uninstall." + n.Name)
	delete(f.s.installed, n.Name)
	if n.Role == config.RoleControlPlane {
		f.s.controlPlane = false
	}
	return nil
}

func (f *stubHosts) KillAll(_ context.Context, n config.NodeConfig) error {
	f.s.record("killall." + n.Name)
	return nil
}

type stubCluster struct{ s *hostState }

func (f *stubCluster) ServerVersion() (string, error) {
	if !f.s.controlPlane {
		return "", errors.New("connection refused")
	}
	return "v1.31.4+k3s2", nil
}

func (f *stubCluster) WaitForAPI(context.Context, time.Duration) error { return nil }

func (f *stubCluster) NodeRegistered(_ context.Context, name string) (bool, error) {
	return f.s.registered[name], nil
}

func (f *stubCluster) WaitForNodeReady(context.Context, string, time.Duration) error { return nil }

func (f *stubCluster) WaitForDeployment(context.Context, string, string, time.Duration) error {
	return nil
}

func (f *stubCluster) WaitForDaemonSet(context.Context, string, string, time.Duration) error {
	return nil
}

func (f *stubCluster) CordonNode(context.Context, string) error { return nil }

func (f *stubCluster) DrainNode(context.Context, string, time.Duration) error { return nil }

func (f *stubCluster) DeleteNode(_ context.Context, name string) error {
	delete(f.s.registered, name)
	return nil
}

func (f *stubCluster) DeleteNamespace(context.Context, string) error { return nil }

func (f *stubCluster) ForceFinalizeNamespace(context.Context, string) error { return nil }

func (f *stubCluster) Apply(context.Context, string) error { return nil }

func (f *stubCluster) CreateSecret(context.Context, string, string, map[string][]byte) error {
	return nil
}

type stubAddons struct{ s *hostState }

func (f *stubAddons) Install(_ context.Context, a addons.Addon) error {
	f.s.record("install." + a.ReleaseName)
	f.s.releases[a.ReleaseName] = true
	return nil
}

func (f *stubAddons) Uninstall(a addons.Addon) error {
	f.s.record("remove." + a.ReleaseName)
	delete(f.s.releases, a.ReleaseName)
	return nil
}

func (f *stubAddons) Installed(a addons.Addon) (bool, error) {
	return f.s.releases[a.ReleaseName], nil
}

// stubDeps makes buildDeps hand out collaborators backed by the returned
// state.
func stubDeps(s *hostState) {
	buildDeps = func(cfg *config.Config, _ *config.Timeouts, _ zerolog.Logger) (*workflow.Deps, error) {
		return &workflow.Deps{
			Config: cfg,
			Hosts:  &stubHosts{s: s},
			Kube: func() (workflow.Cluster, error) {
				if !s.kubeconfig {
					return nil, errors.New("no kubeconfig")
				}
				return &stubCluster{s: s}, nil
			},
			Addons: func() (workflow.AddonInstaller, error) {
				if !s.kubeconfig {
					return nil, errors.New("no kubeconfig")
				}
				return &stubAddons{s: s}, nil
			},
			SaveKubeconfig: func([]byte) error {
				s.kubeconfig = true
				return nil
			},
		}, nil
	}
}

type stubConfirmer struct{ answer bool }

func (c stubConfirmer) Confirm(context.Context, string, string) (bool, error) {
	return c.answer, nil
}
