package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/imamik/kubelift/internal/backup"
	"github.com/imamik/kubelift/internal/config"
	"github.com/imamik/kubelift/internal/platform/kube"
	"github.com/imamik/kubelift/internal/platform/s3"
	"github.com/imamik/kubelift/internal/platform/ssh"
)

// Backup scopes.
const (
	ScopeCluster   = "cluster"
	ScopeWorkloads = "workloads"
	ScopeAll       = "all"
)

// BackupOptions carries the backup command's flag values.
type BackupOptions struct {
	ConfigPath       string
	OutputPath       string
	Scope            string
	IncludeSensitive bool
	Verbose          bool
}

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// newExporter connects the resource export client.
	newExporter = func(kubeconfigPath string) (backup.ResourceExporter, error) {
		return kube.NewClient(kubeconfigPath)
	}

	// newSnapshotRunner connects the SSH channel the etcd snapshot runs
	// over.
	newSnapshotRunner = func(cfg *config.Config) (backup.SnapshotRunner, error) {
		key, err := os.ReadFile(cfg.SSH.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key %s: %w", cfg.SSH.KeyPath, err)
		}
		return ssh.NewClient(&ssh.Config{
			User:       cfg.SSH.User,
			Port:       cfg.SSH.Port,
			PrivateKey: key,
		})
	}

	// uploadArchive ships a packed backup to the configured S3 target.
	uploadArchive = uploadToS3

	// preBackup runs the backup engine ahead of a teardown.
	preBackup = runBackup
)

// Backup exports cluster state into a timestamped directory and optionally
// uploads it. The run succeeds as long as the manifest was written and at
// least one collection produced artifacts.
func Backup(ctx context.Context, opts BackupOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	runID := newRunID()
	log, closeLog, err := newRunLogger("backup", runID, opts.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	outputDir := opts.OutputPath
	if outputDir == "" {
		outputDir = cfg.Backup.OutputDir
	}

	manifest, err := runBackup(ctx, cfg, backupRequest{
		Scope:            opts.Scope,
		OutputDir:        outputDir,
		RunID:            runID,
		IncludeSensitive: opts.IncludeSensitive,
	}, log)
	if err != nil {
		return err
	}

	log.Info().
		Int("succeeded", manifest.Succeeded).
		Int("failed", manifest.Failed).
		Int("items", manifest.TotalItems).
		Int64("bytes", manifest.TotalBytes).
		Msg("backup complete")
	return nil
}

// backupRequest is the resolved input of one backup engine run.
type backupRequest struct {
	Scope            string
	OutputDir        string
	RunID            string
	IncludeSensitive bool
}

// runBackup assembles the collections for the requested scope and runs the
// engine. Teardown reuses it for the pre-teardown backup.
func runBackup(ctx context.Context, cfg *config.Config, req backupRequest, log zerolog.Logger) (*backup.Manifest, error) {
	if req.OutputDir == "" {
		req.OutputDir = "backups"
	}
	if req.Scope == "" {
		req.Scope = ScopeAll
	}

	exporter, err := newExporter(cfg.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the cluster API: %w", err)
	}

	var collections []backup.Collection
	if req.Scope == ScopeCluster || req.Scope == ScopeAll {
		collections = append(collections, backup.ClusterResources(exporter))
		if node, ok := cfg.InitNode(); ok {
			runner, err := newSnapshotRunner(cfg)
			if err != nil {
				return nil, err
			}
			collections = append(collections,
				backup.EtcdSnapshot(runner, node.Address, "kubelift-"+req.RunID))
		} else {
			log.Warn().Msg("no control-plane node configured, skipping etcd snapshot")
		}
	}
	if req.Scope == ScopeWorkloads || req.Scope == ScopeAll {
		collections = append(collections,
			backup.Resources(exporter, cfg.Backup.Namespaces, req.IncludeSensitive))
	}

	engine := backup.NewEngine(cfg.ClusterName, req.OutputDir, req.RunID, log,
		backup.WithScope(req.Scope))
	manifest, dir, err := engine.Run(ctx, collections)
	if err != nil {
		return manifest, err
	}

	if cfg.Backup.S3.Enabled {
		if err := uploadArchive(ctx, cfg, dir, log); err != nil {
			// The local backup is intact; the offsite copy failing is a
			// warning, not a failed backup.
			log.Warn().Err(err).Msg("S3 upload failed, local backup kept")
		}
	}
	return manifest, nil
}

func uploadToS3(ctx context.Context, cfg *config.Config, dir string, log zerolog.Logger) error {
	s3cfg := cfg.Backup.S3
	accessKey := os.Getenv(s3cfg.AccessKeyEnv)
	secretKey := os.Getenv(s3cfg.SecretKeyEnv)
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("S3 credentials not set in %s/%s", s3cfg.AccessKeyEnv, s3cfg.SecretKeyEnv)
	}

	client, err := s3.NewClient(s3cfg.Endpoint, s3cfg.Region, s3cfg.Bucket, accessKey, secretKey)
	if err != nil {
		return err
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return err
	}

	archive, err := backup.Pack(dir)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(archive) // #nosec G304 - path derives from the backup dir we created
	if err != nil {
		return err
	}

	key := filepath.Base(archive)
	if err := client.Upload(ctx, key, data); err != nil {
		return err
	}
	log.Info().Str("key", key).Int("bytes", len(data)).Msg("backup uploaded")
	return nil
}
