// Package helm wraps the Helm SDK for in-cluster chart management without a
// kubeconfig file on disk. Charts are resolved from their upstream HTTP
// repositories and installed through the action API, so no helm binary is
// required on the machine running kubelift.
package helm
