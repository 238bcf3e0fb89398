package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/kubelift/internal/platform/kube"
)

// clusterScopedResources are the cluster-level objects a restore needs
// before any namespaced workload comes back.
var clusterScopedResources = []schema.GroupVersionResource{
	{Version: "v1", Resource: "nodes"},
	{Version: "v1", Resource: "namespaces"},
	{Group: "storage.k8s.io", Version: "v1", Resource: "storageclasses"},
	{Group: "cert-manager.io", Version: "v1", Resource: "clusterissuers"},
}

// ClusterResources builds the collection exporting cluster-scoped objects
// as YAML, one file per object. Resource types whose API is not installed
// (no cert-manager, for instance) are skipped rather than failed.
func ClusterResources(client ResourceExporter) Collection {
	return Collection{
		Name: "cluster-resources",
		Run: func(ctx context.Context, dir string) (Stats, error) {
			return exportClusterResources(ctx, client, dir)
		},
	}
}

func exportClusterResources(ctx context.Context, client ResourceExporter, dir string) (Stats, error) {
	var stats Stats

	var exported int
	for _, gvr := range clusterScopedResources {
		objs, err := client.ExportList(ctx, gvr, "")
		if err != nil {
			// Optional APIs may be absent; the remaining resource
			// types still have to be attempted.
			continue
		}
		exported++

		for i := range objs {
			obj := &objs[i]
			kube.CleanForExport(obj)
			data, err := kube.EncodeYAML(obj)
			if err != nil {
				return stats, err
			}

			path := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", gvr.Resource, obj.GetName()))
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return stats, fmt.Errorf("failed to write %s: %w", path, err)
			}

			stats.Items++
			stats.Bytes += int64(len(data))
		}
	}

	if exported == 0 {
		return stats, fmt.Errorf("no cluster-scoped resource type could be listed")
	}
	return stats, nil
}
