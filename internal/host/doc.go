// Package host drives k3s on the cluster's Linux hosts over SSH. It covers
// preparing a host, bootstrapping the first control-plane node, joining
// further nodes, reading installed state for idempotency probes, and
// uninstalling k3s again during teardown.
package host
