package addons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/release"

	"github.com/imamik/kubelift/internal/addons/helm"
)

type fakeHelmClient struct {
	namespace   string
	installed   []string
	uninstalled []string
	values      map[string]interface{}
	installErr  error
	exists      bool
}

func (f *fakeHelmClient) InstallOrUpgrade(_ context.Context, releaseName, _, _, _ string, values map[string]interface{}) (*release.Release, error) {
	if f.installErr != nil {
		return nil, f.installErr
	}
	f.installed = append(f.installed, releaseName)
	f.values = values
	return &release.Release{
		Name:    releaseName,
		Version: 1,
		Info:    &release.Info{Status: release.StatusDeployed},
	}, nil
}

func (f *fakeHelmClient) Uninstall(releaseName string) error {
	f.uninstalled = append(f.uninstalled, releaseName)
	return nil
}

func (f *fakeHelmClient) ReleaseExists(string) (bool, error) {
	return f.exists, nil
}

// withFakeHelmClient swaps the client factory for the duration of the test.
// Tests using it must not run in parallel.
func withFakeHelmClient(t *testing.T, fake *fakeHelmClient) {
	t.Helper()

	orig := newHelmClient
	newHelmClient = func(_ []byte, namespace string, _ time.Duration) (helmClient, error) {
		fake.namespace = namespace
		return fake, nil
	}
	t.Cleanup(func() { newHelmClient = orig })
}

func testAddon() Addon {
	return Addon{
		Name:        "demo",
		ReleaseName: "demo-release",
		Namespace:   "demo-system",
		RepoURL:     "https://charts.example.com",
		Chart:       "demo",
		Version:     "1.0.0",
		Values:      helm.Values{"replicaCount": 2},
	}
}

func TestInstaller_Install(t *testing.T) {
	fake := &fakeHelmClient{}
	withFakeHelmClient(t, fake)

	installer := NewInstaller([]byte("kubeconfig"), time.Minute, zerolog.Nop())
	err := installer.Install(context.Background(), testAddon())
	require.NoError(t, err)

	assert.Equal(t, []string{"demo-release"}, fake.installed)
	assert.Equal(t, "demo-system", fake.namespace)
	assert.Equal(t, 2, fake.values["replicaCount"])
}

func TestInstaller_InstallError(t *testing.T) {
	fake := &fakeHelmClient{installErr: errors.New("chart not found")}
	withFakeHelmClient(t, fake)

	installer := NewInstaller([]byte("kubeconfig"), time.Minute, zerolog.Nop())
	err := installer.Install(context.Background(), testAddon())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to install demo")
	assert.Contains(t, err.Error(), "chart not found")
}

func TestInstaller_Uninstall(t *testing.T) {
	fake := &fakeHelmClient{}
	withFakeHelmClient(t, fake)

	installer := NewInstaller([]byte("kubeconfig"), time.Minute, zerolog.Nop())
	err := installer.Uninstall(testAddon())
	require.NoError(t, err)

	assert.Equal(t, []string{"demo-release"}, fake.uninstalled)
}

func TestInstaller_Installed(t *testing.T) {
	fake := &fakeHelmClient{exists: true}
	withFakeHelmClient(t, fake)

	installer := NewInstaller([]byte("kubeconfig"), time.Minute, zerolog.Nop())
	installed, err := installer.Installed(testAddon())
	require.NoError(t, err)

	assert.True(t, installed)
}
