package lifecycle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLock(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	require.NoError(t, err)
	require.NotNil(t, lock)
	defer lock.Release()

	// A second run against the same state directory must refuse to start.
	second, err := AcquireLock(dir)
	require.Error(t, err)
	assert.Nil(t, second)
	assert.Contains(t, err.Error(), "already in progress")

	// After release the lock can be taken again.
	lock.Release()
	third, err := AcquireLock(dir)
	require.NoError(t, err)
	third.Release()
}

func TestAcquireLock_CreatesStateDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "state")

	lock, err := AcquireLock(dir)
	require.NoError(t, err)
	lock.Release()
}

func TestLock_ReleaseNil(t *testing.T) {
	t.Parallel()
	var lock *Lock
	lock.Release()
}
