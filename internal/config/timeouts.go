package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	APIWait         time.Duration // Waiting for the cluster API to answer
	NodeJoin        time.Duration // Waiting for a node to register and turn Ready
	HelmInstall     time.Duration // Chart install/upgrade operations
	Drain           time.Duration // Draining a node before removal
	EtcdSnapshot    time.Duration // Datastore snapshot during backup
	TerminationWait time.Duration // Waiting for removed resources to disappear
	Check           time.Duration // Per-check budget in the verification engine
	PollInterval    time.Duration // Interval between readiness polls
	ProbeAttempts   int           // Attempts per idempotency probe
	ProbeDelay      time.Duration // Fixed delay between probe attempts
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - KUBELIFT_TIMEOUT_API_WAIT (default: 5m)
//   - KUBELIFT_TIMEOUT_NODE_JOIN (default: 5m)
//   - KUBELIFT_TIMEOUT_HELM_INSTALL (default: 10m)
//   - KUBELIFT_TIMEOUT_DRAIN (default: 2m)
//   - KUBELIFT_TIMEOUT_ETCD_SNAPSHOT (default: 5m)
//   - KUBELIFT_TIMEOUT_TERMINATION_WAIT (default: 3m)
//   - KUBELIFT_TIMEOUT_CHECK (default: 30s)
//   - KUBELIFT_POLL_INTERVAL (default: 5s)
//   - KUBELIFT_PROBE_ATTEMPTS (default: 3)
//   - KUBELIFT_PROBE_DELAY (default: 2s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		APIWait:         parseDuration("KUBELIFT_TIMEOUT_API_WAIT", 5*time.Minute),
		NodeJoin:        parseDuration("KUBELIFT_TIMEOUT_NODE_JOIN", 5*time.Minute),
		HelmInstall:     parseDuration("KUBELIFT_TIMEOUT_HELM_INSTALL", 10*time.Minute),
		Drain:           parseDuration("KUBELIFT_TIMEOUT_DRAIN", 2*time.Minute),
		EtcdSnapshot:    parseDuration("KUBELIFT_TIMEOUT_ETCD_SNAPSHOT", 5*time.Minute),
		TerminationWait: parseDuration("KUBELIFT_TIMEOUT_TERMINATION_WAIT", 3*time.Minute),
		Check:           parseDuration("KUBELIFT_TIMEOUT_CHECK", 30*time.Second),
		PollInterval:    parseDuration("KUBELIFT_POLL_INTERVAL", 5*time.Second),
		ProbeAttempts:   parseInt("KUBELIFT_PROBE_ATTEMPTS", 3),
		ProbeDelay:      parseDuration("KUBELIFT_PROBE_DELAY", 2*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
