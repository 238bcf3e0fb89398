// Package config defines the configuration model shared by all kubelift
// workflows.
//
// The [Config] struct is the canonical description of a cluster: its nodes
// and their roles, SSH access, the infrastructure-as-code working directory,
// the addon stack, and backup/verification settings. It is loaded from a
// single YAML file; operational timeouts come from KUBELIFT_* environment
// variables so they can be tuned without touching the cluster definition.
package config
