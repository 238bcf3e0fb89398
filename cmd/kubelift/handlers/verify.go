package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"k8s.io/client-go/kubernetes/scheme"
	crclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/kubelift/internal/config"
	"github.com/imamik/kubelift/internal/host"
	"github.com/imamik/kubelift/internal/platform/hcloud"
	"github.com/imamik/kubelift/internal/platform/kube"
	"github.com/imamik/kubelift/internal/platform/ssh"
	"github.com/imamik/kubelift/internal/ui/tui"
	"github.com/imamik/kubelift/internal/verify"
)

// VerifyOptions carries the verify command's flag values.
type VerifyOptions struct {
	ConfigPath string
	Quick      bool
	JSONOutput bool
	Verbose    bool
}

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// newBattery assembles the check battery from configuration.
	newBattery = defaultBattery

	// isInteractive reports whether the live view can be used.
	isInteractive = tui.IsInteractive

	// runInteractive streams check results into the live view.
	runInteractive = tui.RunVerify

	// verifyOut is where reports are printed.
	verifyOut io.Writer = os.Stdout
)

// Verify runs the health check battery and renders the report. The
// returned error is non-nil only when at least one check failed; warnings
// alone exit clean.
func Verify(ctx context.Context, opts VerifyOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	runID := newRunID()
	log, closeLog, err := newRunLogger("verify", runID, opts.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	checks := newBattery(cfg, log).Checks()
	if opts.Quick {
		checks = verify.QuickSubset(checks)
	}

	runnerOpts := []verify.RunnerOption{
		verify.WithWorkers(verifyWorkers(cfg)),
		verify.WithCheckTimeout(loadTimeouts().Check),
	}

	var report *verify.Report
	switch {
	case opts.JSONOutput:
		report = verify.NewRunner(log, runnerOpts...).Run(ctx, cfg.ClusterName, checks)
		data, err := report.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(verifyOut, string(data))
	case isInteractive():
		report, err = runInteractive(ctx, cfg.ClusterName, checks,
			func(onResult func(int, verify.CheckResult)) *verify.Report {
				opts := append(runnerOpts, verify.WithResultCallback(onResult))
				return verify.NewRunner(log, opts...).Run(ctx, cfg.ClusterName, checks)
			})
		if err != nil {
			return err
		}
	default:
		report = verify.NewRunner(log, runnerOpts...).Run(ctx, cfg.ClusterName, checks)
		fmt.Fprint(verifyOut, verify.Render(report, opts.Verbose, false))
	}

	if report.Failed() {
		return fmt.Errorf("verification failed: %d of %d checks failed",
			report.FailCount, len(report.Results))
	}
	return nil
}

// verifyWorkers resolves the worker pool size: environment override, then
// configuration, then the default.
func verifyWorkers(cfg *config.Config) int {
	if env := os.Getenv("KUBELIFT_VERIFY_WORKERS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	if cfg.Verify.Workers > 0 {
		return cfg.Verify.Workers
	}
	return verify.DefaultWorkers
}

// defaultBattery wires the real collaborators. A collaborator that cannot
// be built is left nil; the affected checks report that instead of the
// command erroring out, since verify must be able to describe a broken
// cluster.
func defaultBattery(cfg *config.Config, log zerolog.Logger) *verify.Battery {
	battery := &verify.Battery{Cfg: cfg}

	if client, err := kube.NewClient(cfg.Kubeconfig); err == nil {
		battery.ServerVersion = client.ServerVersion
	} else {
		log.Warn().Err(err).Msg("cluster API client unavailable")
	}
	if reader, err := newClusterReader(cfg.Kubeconfig); err == nil {
		battery.Reader = reader
	}

	if token := os.Getenv("HCLOUD_TOKEN"); token != "" {
		battery.Cloud = hcloud.NewRealClient(token, hcloud.WithLogger(log))
	}

	if key, err := os.ReadFile(cfg.SSH.KeyPath); err == nil {
		if sshClient, err := ssh.NewClient(&ssh.Config{
			User:       cfg.SSH.User,
			Port:       cfg.SSH.Port,
			PrivateKey: key,
		}); err == nil {
			battery.Hosts = host.NewManager(sshClient, log)
		}
	}

	return battery
}

func newClusterReader(kubeconfigPath string) (crclient.Reader, error) {
	restCfg, err := kube.RESTConfig(kubeconfigPath)
	if err != nil {
		return nil, err
	}
	return crclient.New(restCfg, crclient.Options{Scheme: scheme.Scheme})
}
