package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

type fakeExporter struct {
	namespaces []string
	objects    map[string][]unstructured.Unstructured
	listErr    error
}

func (f *fakeExporter) ListNamespaces(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.namespaces, nil
}

func (f *fakeExporter) ExportList(_ context.Context, gvr schema.GroupVersionResource, namespace string) ([]unstructured.Unstructured, error) {
	return f.objects[namespace+"/"+gvr.Resource], nil
}

func testObject(kind, apiVersion, ns, name string) unstructured.Unstructured {
	var obj unstructured.Unstructured
	obj.Object = map[string]interface{}{}
	obj.SetKind(kind)
	obj.SetAPIVersion(apiVersion)
	obj.SetNamespace(ns)
	obj.SetName(name)
	obj.SetResourceVersion("42")
	return obj
}

func TestResources_ExportsPerNamespace(t *testing.T) {
	t.Parallel()

	fake := &fakeExporter{
		namespaces: []string{"default", "kube-system", "apps"},
		objects: map[string][]unstructured.Unstructured{
			"default/configmaps": {testObject("ConfigMap", "v1", "default", "app-config")},
			"apps/deployments":   {testObject("Deployment", "apps/v1", "apps", "web")},
		},
	}

	dir := t.TempDir()
	stats, err := Resources(fake, nil, false).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Items)
	assert.Positive(t, stats.Bytes)

	data, err := os.ReadFile(filepath.Join(dir, "default", "configmaps-app-config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: ConfigMap")
	assert.NotContains(t, string(data), "resourceVersion")

	assert.FileExists(t, filepath.Join(dir, "apps", "deployments-web.yaml"))
	assert.NoDirExists(t, filepath.Join(dir, "kube-system"))
}

func TestResources_ExplicitNamespacesSkipDiscovery(t *testing.T) {
	t.Parallel()

	fake := &fakeExporter{
		listErr: errors.New("discovery must not be called"),
		objects: map[string][]unstructured.Unstructured{
			"kube-system/configmaps": {testObject("ConfigMap", "v1", "kube-system", "coredns")},
		},
	}

	dir := t.TempDir()
	stats, err := Resources(fake, []string{"kube-system"}, false).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Items)
	assert.FileExists(t, filepath.Join(dir, "kube-system", "configmaps-coredns.yaml"))
}

func TestResources_SecretsOnlyWhenSensitiveIncluded(t *testing.T) {
	t.Parallel()

	fake := &fakeExporter{
		objects: map[string][]unstructured.Unstructured{
			"apps/secrets": {testObject("Secret", "v1", "apps", "db-credentials")},
		},
	}

	dir := t.TempDir()
	stats, err := Resources(fake, []string{"apps"}, false).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Items)
	assert.NoFileExists(t, filepath.Join(dir, "apps", "secrets-db-credentials.yaml"))

	dir = t.TempDir()
	stats, err = Resources(fake, []string{"apps"}, true).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Items)
	assert.FileExists(t, filepath.Join(dir, "apps", "secrets-db-credentials.yaml"))
}

func TestResources_DiscoveryError(t *testing.T) {
	t.Parallel()

	fake := &fakeExporter{listErr: errors.New("api unreachable")}

	_, err := Resources(fake, nil, false).Run(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to discover namespaces")
}
