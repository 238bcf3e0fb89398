// Package backup captures what a rebuild cannot recreate: API objects and
// the etcd keyspace. Collections run in order but are isolated from each
// other, so a failing snapshot still leaves the resource export on disk. The
// run is summarized in a manifest written alongside the artifacts; a backup
// is usable as long as the manifest exists and at least one collection
// succeeded.
package backup
