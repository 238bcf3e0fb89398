package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ClusterLabel is the label key applied to every cloud resource that
// belongs to a cluster. The OpenTofu modules set it during provisioning;
// probes and cleanup select on it.
const ClusterLabel = "kubelift.io/cluster"

// Client is the Hetzner Cloud surface consumed by phases and checks.
type Client interface {
	// GetServerByName returns the server with the given name, or nil if
	// no such server exists.
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)

	// ListServersByLabel returns all servers matching the label selector.
	ListServersByLabel(ctx context.Context, labelSelector string) ([]*hcloud.Server, error)

	// CleanupByLabel deletes every resource matching the given labels,
	// in dependency order. Failures are accumulated and returned as a
	// single error after all resource types have been attempted.
	CleanupByLabel(ctx context.Context, labels map[string]string) error
}

// ClusterSelector returns the label set identifying all resources of the
// named cluster.
func ClusterSelector(clusterName string) map[string]string {
	return map[string]string{ClusterLabel: clusterName}
}

// buildLabelSelector converts a map of labels to a Hetzner Cloud label
// selector string.
func buildLabelSelector(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	selector := ""
	for k, v := range labels {
		if selector != "" {
			selector += ","
		}
		selector += fmt.Sprintf("%s=%s", k, v)
	}
	return selector
}
