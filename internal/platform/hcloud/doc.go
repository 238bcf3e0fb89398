// Package hcloud wraps the Hetzner Cloud API for the operations the
// lifecycle engine needs: looking up servers that back cluster nodes,
// listing them by label, and deleting every labelled resource when a
// cluster is fully reset.
//
// Provisioning itself is delegated to OpenTofu; this package only
// observes and removes. Cleanup deletes resources in dependency order
// (servers before networks, networks before nothing) and accumulates
// per-resource failures instead of stopping at the first one.
package hcloud
