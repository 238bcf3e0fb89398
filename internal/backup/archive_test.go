package backup

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "prod-20260821-120000")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "resources", "default"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resources", "default", "cm.yaml"), []byte("kind: ConfigMap"), 0o600))

	archivePath, err := Pack(dir)
	require.NoError(t, err)
	assert.Equal(t, dir+".tar.gz", archivePath)

	entries := readArchive(t, archivePath)
	assert.Equal(t, "{}", entries["prod-20260821-120000/manifest.json"])
	assert.Equal(t, "kind: ConfigMap", entries["prod-20260821-120000/resources/default/cm.yaml"])
}

func TestPack_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := Pack(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

// readArchive maps file entry names to their contents.
func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}
	return entries
}
