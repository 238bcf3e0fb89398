package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/rs/zerolog"
)

// RealClient implements Client using the Hetzner Cloud API.
type RealClient struct {
	client *hcloud.Client
	log    zerolog.Logger
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithLogger sets the logger used for cleanup progress.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *RealClient) {
		c.log = log
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = hc
	}
}

// NewRealClient creates a new RealClient with optional configuration.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client: hcloud.NewClient(hcloud.WithToken(token)),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HCloudClient returns the underlying hcloud.Client for operations not
// exposed through the Client interface.
func (c *RealClient) HCloudClient() *hcloud.Client {
	return c.client
}

// GetServerByName returns the server with the given name, or nil if no
// such server exists.
func (c *RealClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	server, _, err := c.client.Server.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server %q: %w", name, err)
	}
	return server, nil
}

// ListServersByLabel returns all servers matching the label selector.
func (c *RealClient) ListServersByLabel(ctx context.Context, labelSelector string) ([]*hcloud.Server, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}
