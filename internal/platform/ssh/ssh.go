package ssh

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/kubelift/internal/util/retry"
)

const (
	defaultPort         = 22
	defaultDialTimeout  = 10 * time.Second
	defaultDialAttempts = 30
	defaultRetryDelay   = 5 * time.Second
)

// Config holds the access settings shared by all hosts.
type Config struct {
	User       string
	Port       int
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// DialAttempts is the number of connection attempts per host.
	// If zero, defaultDialAttempts is used.
	DialAttempts int

	// RetryDelay is the fixed delay between connection attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used (suitable for ephemeral infrastructure).
	// For production environments with persistent servers, provide proper host key verification.
	HostKeyCallback ssh.HostKeyCallback
}

// Client executes commands on cluster hosts. The private key is parsed
// once during construction; connections are created per call.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a fleet client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.DialAttempts == 0 {
		configCopy.DialAttempts = defaultDialAttempts
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Default for ephemeral infrastructure
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Run executes a command on the named host and returns its combined
// output.
func (c *Client) Run(ctx context.Context, host, command string) (string, error) {
	client, err := c.connect(ctx, host)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session on %s: %w", host, err)
	}
	defer func() { _ = session.Close() }()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("command failed on %s: %w\nCommand: %s\nOutput: %s",
			host, err, command, string(output))
	}

	return string(output), nil
}

// ReadFile streams a remote file's contents. Stdout only, so binary
// payloads like datastore snapshots survive the trip.
func (c *Client) ReadFile(ctx context.Context, host, path string) ([]byte, error) {
	client, err := c.connect(ctx, host)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", host, err)
	}
	defer func() { _ = session.Close() }()

	data, err := session.Output(fmt.Sprintf("cat %q", path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", path, host, err)
	}
	return data, nil
}

// Reachable reports whether the host accepts an SSH connection within a
// single dial attempt.
func (c *Client) Reachable(ctx context.Context, host string) bool {
	client, err := ssh.Dial("tcp", c.addr(host), c.clientConfig())
	if err != nil {
		return false
	}
	_ = client.Close()
	return true
}

// connect establishes an SSH connection with retry. Freshly created
// servers can take minutes before sshd answers.
func (c *Client) connect(ctx context.Context, host string) (*ssh.Client, error) {
	addr := c.addr(host)
	var client *ssh.Client

	err := retry.Do(ctx, func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, c.clientConfig())
		return dialErr
	},
		retry.WithMaxAttempts(c.config.DialAttempts),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithFixedBackoff(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s after %d attempts: %w",
			addr, c.config.DialAttempts, err)
	}

	return client, nil
}

func (c *Client) clientConfig() *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(c.signer),
		},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}
}

func (c *Client) addr(host string) string {
	return fmt.Sprintf("%s:%d", host, c.config.Port)
}
