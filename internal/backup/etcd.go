package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SnapshotRunner is the SSH surface the etcd collection drives.
type SnapshotRunner interface {
	Run(ctx context.Context, host, command string) (string, error)
	ReadFile(ctx context.Context, host, path string) ([]byte, error)
}

// snapshotDir is where k3s places on-demand etcd snapshots.
const snapshotDir = "/var/lib/rancher/k3s/server/db/snapshots"

// EtcdSnapshot builds the collection that saves a named etcd snapshot on the
// given control-plane host and copies it into the backup.
func EtcdSnapshot(runner SnapshotRunner, host, name string) Collection {
	return Collection{
		Name: "etcd",
		Run: func(ctx context.Context, dir string) (Stats, error) {
			return saveEtcdSnapshot(ctx, runner, host, name, dir)
		},
	}
}

func saveEtcdSnapshot(ctx context.Context, runner SnapshotRunner, host, name, dir string) (Stats, error) {
	var stats Stats

	saveCmd := fmt.Sprintf("k3s etcd-snapshot save --name %s", name)
	if _, err := runner.Run(ctx, host, saveCmd); err != nil {
		return stats, fmt.Errorf("failed to save etcd snapshot on %s: %w", host, err)
	}

	// k3s appends the node name and a timestamp, so list to find the file
	// the save produced.
	listCmd := fmt.Sprintf("ls -1 %s | grep '^%s' | tail -1", snapshotDir, name)
	out, err := runner.Run(ctx, host, listCmd)
	if err != nil {
		return stats, fmt.Errorf("failed to locate snapshot %s on %s: %w", name, host, err)
	}
	file := strings.TrimSpace(out)
	if file == "" {
		return stats, fmt.Errorf("snapshot %s not found under %s on %s", name, snapshotDir, host)
	}

	data, err := runner.ReadFile(ctx, host, path.Join(snapshotDir, file))
	if err != nil {
		return stats, fmt.Errorf("failed to fetch snapshot %s from %s: %w", file, host, err)
	}

	if err := os.WriteFile(filepath.Join(dir, file), data, 0o600); err != nil {
		return stats, fmt.Errorf("failed to write snapshot locally: %w", err)
	}

	stats.Items = 1
	stats.Bytes = int64(len(data))
	return stats, nil
}
