package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/kubelift/internal/platform/kube"
)

// ResourceExporter is the slice of the Kubernetes client the resource
// collection reads through.
type ResourceExporter interface {
	ListNamespaces(ctx context.Context) ([]string, error)
	ExportList(ctx context.Context, gvr schema.GroupVersionResource, namespace string) ([]unstructured.Unstructured, error)
}

// exportedResources lists what a rebuild cannot recreate from charts alone:
// workload manifests, configuration and bindings. Runtime objects like pods
// and endpoints are deliberately absent. Secrets join the list only on
// request; a backup readable by anyone must not carry credentials by
// default.
var exportedResources = []schema.GroupVersionResource{
	{Version: "v1", Resource: "configmaps"},
	{Version: "v1", Resource: "services"},
	{Version: "v1", Resource: "serviceaccounts"},
	{Version: "v1", Resource: "persistentvolumeclaims"},
	{Group: "apps", Version: "v1", Resource: "deployments"},
	{Group: "apps", Version: "v1", Resource: "statefulsets"},
	{Group: "apps", Version: "v1", Resource: "daemonsets"},
	{Group: "batch", Version: "v1", Resource: "cronjobs"},
	{Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "roles"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "rolebindings"},
}

// systemNamespaces are skipped when namespaces are auto-discovered. Their
// contents are owned by the cluster build itself.
var systemNamespaces = map[string]bool{
	"kube-system":     true,
	"kube-public":     true,
	"kube-node-lease": true,
}

var secretsGVR = schema.GroupVersionResource{Version: "v1", Resource: "secrets"}

// Resources builds the collection exporting API objects as YAML, one file
// per object, grouped by namespace. An empty namespace list means every
// non-system namespace found on the cluster. Secrets are exported only when
// includeSensitive is set.
func Resources(client ResourceExporter, namespaces []string, includeSensitive bool) Collection {
	return Collection{
		Name: "resources",
		Run: func(ctx context.Context, dir string) (Stats, error) {
			return exportResources(ctx, client, namespaces, includeSensitive, dir)
		},
	}
}

func exportResources(ctx context.Context, client ResourceExporter, namespaces []string, includeSensitive bool, dir string) (Stats, error) {
	var stats Stats

	resources := exportedResources
	if includeSensitive {
		resources = append(append([]schema.GroupVersionResource{}, resources...), secretsGVR)
	}

	if len(namespaces) == 0 {
		discovered, err := client.ListNamespaces(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to discover namespaces: %w", err)
		}
		for _, ns := range discovered {
			if !systemNamespaces[ns] {
				namespaces = append(namespaces, ns)
			}
		}
	}

	for _, ns := range namespaces {
		for _, gvr := range resources {
			objs, err := client.ExportList(ctx, gvr, ns)
			if err != nil {
				return stats, fmt.Errorf("failed to export %s in namespace %s: %w", gvr.Resource, ns, err)
			}

			for i := range objs {
				obj := &objs[i]
				kube.CleanForExport(obj)
				data, err := kube.EncodeYAML(obj)
				if err != nil {
					return stats, err
				}

				path := filepath.Join(dir, ns, fmt.Sprintf("%s-%s.yaml", gvr.Resource, obj.GetName()))
				if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
					return stats, fmt.Errorf("failed to create namespace directory: %w", err)
				}
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return stats, fmt.Errorf("failed to write %s: %w", path, err)
				}

				stats.Items++
				stats.Bytes += int64(len(data))
			}
		}
	}

	return stats, nil
}
