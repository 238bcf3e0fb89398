// Package ssh provides the command-execution channel to cluster hosts.
//
// One Client serves the whole fleet: it parses the private key once and
// dials hosts on demand, retrying while a freshly provisioned machine is
// still booting. Host preparation, cluster init and join, node removal,
// and datastore snapshots all run through it.
package ssh
