package hcloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/rs/zerolog"
)

// CleanupError represents accumulated errors from cleanup operations.
type CleanupError struct {
	Errors []error
}

func (e *CleanupError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("cleanup encountered %d errors: %v", len(e.Errors), e.Errors)
}

func (e *CleanupError) Unwrap() error {
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return errors.Join(e.Errors...)
}

func (e *CleanupError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *CleanupError) HasErrors() bool {
	return len(e.Errors) > 0
}

// resource is a constraint for Hetzner Cloud resources that have Name and ID fields.
type resource interface {
	*hcloud.Server | *hcloud.LoadBalancer | *hcloud.FloatingIP | *hcloud.Firewall |
		*hcloud.Network | *hcloud.PlacementGroup | *hcloud.SSHKey | *hcloud.Certificate
}

// resourceInfo extracts common fields from a resource for logging.
type resourceInfo struct {
	Name string
	ID   int64
}

// getResourceInfo extracts name and ID from various resource types.
func getResourceInfo[T resource](r T) resourceInfo {
	switch v := any(r).(type) {
	case *hcloud.Server:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.LoadBalancer:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.FloatingIP:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.Firewall:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.Network:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.PlacementGroup:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.SSHKey:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.Certificate:
		return resourceInfo{Name: v.Name, ID: v.ID}
	default:
		return resourceInfo{}
	}
}

// deleteResourcesByLabel is a generic helper for deleting resources by label selector.
// Deletion of resources that no longer exist is treated as success. Returns an error
// if listing fails, or a combined error of all deletion failures.
func deleteResourcesByLabel[T resource](
	ctx context.Context,
	log zerolog.Logger,
	resourceType string,
	listFn func(context.Context) ([]T, error),
	deleteFn func(context.Context, T) error,
) error {
	resources, err := listFn(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", resourceType, err)
	}

	var deleteErrs []error
	for _, r := range resources {
		info := getResourceInfo(r)
		log.Info().Str("type", resourceType).Str("name", info.Name).Int64("id", info.ID).Msg("deleting resource")
		if err := deleteFn(ctx, r); err != nil && !IsNotFound(err) {
			log.Warn().Str("type", resourceType).Str("name", info.Name).Err(err).Msg("failed to delete resource")
			deleteErrs = append(deleteErrs, fmt.Errorf("%s %q: %w", resourceType, info.Name, err))
		}
	}

	if len(deleteErrs) > 0 {
		return errors.Join(deleteErrs...)
	}
	return nil
}

// CleanupByLabel deletes all Hetzner Cloud resources matching the given labels.
// Used by full cluster resets to remove anything the provisioning left behind.
// Returns a CleanupError containing all errors encountered during cleanup.
// The function attempts to delete all resource types even if some deletions fail.
func (c *RealClient) CleanupByLabel(ctx context.Context, labels map[string]string) error {
	c.log.Info().Interface("labels", labels).Msg("starting resource cleanup")

	labelString := buildLabelSelector(labels)
	cleanupErrs := &CleanupError{}

	// Delete in order to respect dependencies:
	// 1. Servers (must be deleted before networks, load balancers)
	// 2. Load Balancers
	// 3. Floating IPs
	// 4. Firewalls
	// 5. Networks
	// 6. Placement Groups
	// 7. SSH Keys
	// 8. Certificates

	if err := c.deleteServersByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("servers: %w", err))
	}

	if err := c.deleteLoadBalancersByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("load balancers: %w", err))
	}

	if err := c.deleteFloatingIPsByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("floating IPs: %w", err))
	}

	if err := c.deleteFirewallsByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("firewalls: %w", err))
	}

	if err := c.deleteNetworksByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("networks: %w", err))
	}

	if err := c.deletePlacementGroupsByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("placement groups: %w", err))
	}

	if err := c.deleteSSHKeysByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("SSH keys: %w", err))
	}

	if err := c.deleteCertificatesByLabel(ctx, labelString); err != nil {
		cleanupErrs.Add(fmt.Errorf("certificates: %w", err))
	}

	if cleanupErrs.HasErrors() {
		c.log.Warn().Int("errors", len(cleanupErrs.Errors)).Msg("cleanup completed with errors")
		return cleanupErrs
	}

	c.log.Info().Msg("cleanup complete")
	return nil
}

// deleteServersByLabel deletes all servers matching the label selector
// and waits for them to be fully deleted.
func (c *RealClient) deleteServersByLabel(ctx context.Context, labelSelector string) error {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
	})
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}

	var deleteErrs []error
	for _, s := range servers {
		c.log.Info().Str("type", "server").Str("name", s.Name).Int64("id", s.ID).Msg("deleting resource")
		if _, _, err := c.client.Server.DeleteWithResult(ctx, s); err != nil && !IsNotFound(err) {
			c.log.Warn().Str("type", "server").Str("name", s.Name).Err(err).Msg("failed to delete resource")
			deleteErrs = append(deleteErrs, fmt.Errorf("server %q: %w", s.Name, err))
		}
	}

	// Wait for all servers to be fully deleted; networks and placement
	// groups cannot be removed while servers still reference them.
	if len(servers) > 0 {
		c.log.Info().Int("count", len(servers)).Msg("waiting for servers to be deleted")
		for i := 0; i < 60; i++ { // Wait up to 5 minutes (60 * 5s)
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			remaining, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
			})
			if err != nil {
				c.log.Warn().Err(err).Msg("failed to check remaining servers")
				break
			}
			if len(remaining) == 0 {
				break
			}
			time.Sleep(5 * time.Second)
		}
	}

	if len(deleteErrs) > 0 {
		return errors.Join(deleteErrs...)
	}
	return nil
}

// deleteLoadBalancersByLabel deletes all load balancers matching the label selector.
func (c *RealClient) deleteLoadBalancersByLabel(ctx context.Context, labelSelector string) error {
	return deleteResourcesByLabel(ctx, c.log, "load balancer",
		func(ctx context.Context) ([]*hcloud.LoadBalancer, error) {
			return c.client.LoadBalancer.AllWithOpts(ctx, hcloud.LoadBalancerListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
			})
		},
		func(ctx context.Context, lb *hcloud.LoadBalancer) error {
			_, err := c.client.LoadBalancer.Delete(ctx, lb)
			return err
		},
	)
}

// deleteFloatingIPsByLabel deletes all floating IPs matching the label selector.
func (c *RealClient) deleteFloatingIPsByLabel(ctx context.Context, labelSelector string) error {
	return deleteResourcesByLabel(ctx, c.log, "floating IP",
		func(ctx context.Context) ([]*hcloud.FloatingIP, error) {
			return c.client.FloatingIP.AllWithOpts(ctx, hcloud.FloatingIPListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
			})
		},
		func(ctx context.Context, fip *hcloud.FloatingIP) error {
			_, err := c.client.FloatingIP.Delete(ctx, fip)
			return err
		},
	)
}

// deleteFirewallsByLabel deletes all firewalls matching the label selector.
// It retries if the firewall is still in use (e.g., servers being deleted).
func (c *RealClient) deleteFirewallsByLabel(ctx context.Context, labelSelector string) error {
	firewalls, err := c.client.Firewall.AllWithOpts(ctx, hcloud.FirewallListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
	})
	if err != nil {
		return fmt.Errorf("failed to list firewalls: %w", err)
	}

	var deleteErrs []error
	for _, fw := range firewalls {
		c.log.Info().Str("type", "firewall").Str("name", fw.Name).Int64("id", fw.ID).Msg("deleting resource")

		// Retry up to 30 times (2.5 minutes) in case firewall is still in use
		for i := 0; i < 30; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			_, err := c.client.Firewall.Delete(ctx, fw)
			if err == nil || IsNotFound(err) {
				break
			}

			if isResourceInUse(err) && i < 29 {
				c.log.Debug().Str("name", fw.Name).Msg("firewall still in use, waiting")
				time.Sleep(5 * time.Second)
				continue
			}

			c.log.Warn().Str("type", "firewall").Str("name", fw.Name).Err(err).Msg("failed to delete resource")
			deleteErrs = append(deleteErrs, fmt.Errorf("firewall %q: %w", fw.Name, err))
			break
		}
	}

	if len(deleteErrs) > 0 {
		return errors.Join(deleteErrs...)
	}
	return nil
}

// deleteNetworksByLabel deletes all networks matching the label selector.
func (c *RealClient) deleteNetworksByLabel(ctx context.Context, labelSelector string) error {
	return deleteResourcesByLabel(ctx, c.log, "network",
		func(ctx context.Context) ([]*hcloud.Network, error) {
			return c.client.Network.AllWithOpts(ctx, hcloud.NetworkListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
			})
		},
		func(ctx context.Context, n *hcloud.Network) error {
			_, err := c.client.Network.Delete(ctx, n)
			return err
		},
	)
}

// deletePlacementGroupsByLabel deletes all placement groups matching the label selector.
func (c *RealClient) deletePlacementGroupsByLabel(ctx context.Context, labelSelector string) error {
	return deleteResourcesByLabel(ctx, c.log, "placement group",
		func(ctx context.Context) ([]*hcloud.PlacementGroup, error) {
			return c.client.PlacementGroup.AllWithOpts(ctx, hcloud.PlacementGroupListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
			})
		},
		func(ctx context.Context, pg *hcloud.PlacementGroup) error {
			_, err := c.client.PlacementGroup.Delete(ctx, pg)
			return err
		},
	)
}

// deleteSSHKeysByLabel deletes all SSH keys matching the label selector.
func (c *RealClient) deleteSSHKeysByLabel(ctx context.Context, labelSelector string) error {
	return deleteResourcesByLabel(ctx, c.log, "SSH key",
		func(ctx context.Context) ([]*hcloud.SSHKey, error) {
			return c.client.SSHKey.AllWithOpts(ctx, hcloud.SSHKeyListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
			})
		},
		func(ctx context.Context, k *hcloud.SSHKey) error {
			_, err := c.client.SSHKey.Delete(ctx, k)
			return err
		},
	)
}

// deleteCertificatesByLabel deletes all certificates matching the label selector.
func (c *RealClient) deleteCertificatesByLabel(ctx context.Context, labelSelector string) error {
	return deleteResourcesByLabel(ctx, c.log, "certificate",
		func(ctx context.Context) ([]*hcloud.Certificate, error) {
			return c.client.Certificate.AllWithOpts(ctx, hcloud.CertificateListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
			})
		},
		func(ctx context.Context, cert *hcloud.Certificate) error {
			_, err := c.client.Certificate.Delete(ctx, cert)
			return err
		},
	)
}
