package config

// DefaultKubernetesVersion pins the k3s release installed when the config
// does not specify one.
const DefaultKubernetesVersion = "v1.31.4+k3s2"

// KubeAPIPort is the standard Kubernetes API server port.
const KubeAPIPort = 6443
