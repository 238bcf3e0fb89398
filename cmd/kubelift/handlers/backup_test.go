package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/kubelift/internal/backup"
	"github.com/imamik/kubelift/internal/config"
)

type stubExporter struct{}

func (stubExporter) ListNamespaces(context.Context) ([]string, error) {
	return []string{"default"}, nil
}

func (stubExporter) ExportList(_ context.Context, gvr schema.GroupVersionResource, _ string) ([]unstructured.Unstructured, error) {
	if gvr.Resource != "nodes" && gvr.Resource != "namespaces" && gvr.Resource != "configmaps" {
		return nil, nil
	}
	obj := unstructured.Unstructured{}
	obj.SetAPIVersion("v1")
	obj.SetKind(strings.TrimSuffix(gvr.Resource, "s"))
	obj.SetName("demo")
	return []unstructured.Unstructured{obj}, nil
}

type stubSnapshotRunner struct{}

func (stubSnapshotRunner) Run(_ context.Context, _ string, command string) (string, error) {
	if strings.HasPrefix(command, "ls -1") {
		return "kubelift-test-run-cp1-0001\n", nil
	}
	return "", nil
}

func (stubSnapshotRunner) ReadFile(context.Context, string, string) ([]byte, error) {
	return []byte("snapshot-bytes"), nil
}

func stubBackupCollaborators() {
	newExporter = func(string) (backup.ResourceExporter, error) {
		return stubExporter{}, nil
	}
	newSnapshotRunner = func(*config.Config) (backup.SnapshotRunner, error) {
		return stubSnapshotRunner{}, nil
	}
}

func TestBackup_ClusterScope(t *testing.T) {
	saveAndRestoreFactories(t)
	stubAmbient(t)
	stubBackupCollaborators()
	outputDir := t.TempDir()

	err := Backup(context.Background(), BackupOptions{
		Scope:      ScopeCluster,
		OutputPath: outputDir,
	})
	require.NoError(t, err)

	dirs, err := filepath.Glob(filepath.Join(outputDir, "test-*"))
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	manifest, err := backup.ReadManifest(filepath.Join(dirs[0], backup.ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "test", manifest.Cluster)
	assert.Equal(t, ScopeCluster, manifest.Scope)
	assert.Equal(t, 2, manifest.Succeeded)

	snapshots, err := filepath.Glob(filepath.Join(dirs[0], "etcd", "kubelift-*"))
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestBackup_AllScopeRunsEveryCollection(t *testing.T) {
	saveAndRestoreFactories(t)
	stubAmbient(t)
	stubBackupCollaborators()
	outputDir := t.TempDir()

	err := Backup(context.Background(), BackupOptions{
		Scope:      ScopeAll,
		OutputPath: outputDir,
	})
	require.NoError(t, err)

	dirs, err := filepath.Glob(filepath.Join(outputDir, "test-*"))
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	manifest, err := backup.ReadManifest(filepath.Join(dirs[0], backup.ManifestName))
	require.NoError(t, err)

	var names []string
	for _, col := range manifest.Collections {
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"cluster-resources", "etcd", "resources"}, names)
}

func TestBackup_NoAPIConnection(t *testing.T) {
	saveAndRestoreFactories(t)
	stubAmbient(t)
	newExporter = func(string) (backup.ResourceExporter, error) {
		return nil, errors.New("kubeconfig missing")
	}

	err := Backup(context.Background(), BackupOptions{Scope: ScopeAll, OutputPath: t.TempDir()})
	assert.ErrorContains(t, err, "cluster API")
}

func TestBackup_IsolatesCollectionFailure(t *testing.T) {
	saveAndRestoreFactories(t)
	stubAmbient(t)
	stubBackupCollaborators()
	newSnapshotRunner = func(*config.Config) (backup.SnapshotRunner, error) {
		return failingSnapshotRunner{}, nil
	}
	outputDir := t.TempDir()

	err := Backup(context.Background(), BackupOptions{
		Scope:      ScopeCluster,
		OutputPath: outputDir,
	})
	require.NoError(t, err, "one failing collection must not fail the backup")

	dirs, err := filepath.Glob(filepath.Join(outputDir, "test-*"))
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	manifest, err := backup.ReadManifest(filepath.Join(dirs[0], backup.ManifestName))
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Succeeded)
	assert.Equal(t, 1, manifest.Failed)
}

type failingSnapshotRunner struct{}

func (failingSnapshotRunner) Run(context.Context, string, string) (string, error) {
	return "", errors.New("ssh: connect refused")
}

func (failingSnapshotRunner) ReadFile(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("ssh: connect refused")
}
