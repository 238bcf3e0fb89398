// Package addons defines the chart-managed components layered onto a freshly
// built cluster and the installer that deploys them.
//
// Each addon is a value: a chart coordinate plus the values kubelift derives
// from the cluster configuration. Builders live one per file and return the
// fully resolved Addon, with operator overrides from the configuration merged
// last so they always win. A few addons also ship raw manifests (issuers,
// bootstrap applications) that have no chart to live in.
package addons
