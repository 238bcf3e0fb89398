// Package kube wraps the Kubernetes API operations used by lifecycle
// phases, backup exports, and verification checks.
package kube

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps the typed and dynamic Kubernetes clients behind the
// operations kubelift needs.
type Client struct {
	clientset *kubernetes.Clientset
	dynamic   dynamic.Interface
}

// NewClient creates a client from a kubeconfig file.
func NewClient(kubeconfigPath string) (*Client, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}
	return newClient(config)
}

// NewClientFromBytes creates a client from kubeconfig bytes.
func NewClientFromBytes(kubeconfigData []byte) (*Client, error) {
	config, err := clientcmd.RESTConfigFromKubeConfig(kubeconfigData)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig from bytes: %w", err)
	}
	return newClient(config)
}

func newClient(config *rest.Config) (*Client, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &Client{
		clientset: clientset,
		dynamic:   dynamicClient,
	}, nil
}

// RESTConfig loads a rest.Config from a kubeconfig file for callers that
// build their own client on top (the verification engine).
func RESTConfig(kubeconfigPath string) (*rest.Config, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}
	return config, nil
}

// Clientset exposes the typed client.
func (c *Client) Clientset() *kubernetes.Clientset {
	return c.clientset
}

// Dynamic exposes the dynamic client.
func (c *Client) Dynamic() dynamic.Interface {
	return c.dynamic
}

// ServerVersion queries the API server version. It doubles as the
// reachability probe for the control plane.
func (c *Client) ServerVersion() (string, error) {
	info, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return info.GitVersion, nil
}

// Apply applies a multi-document YAML manifest with create-then-update
// semantics, which keeps repeated applies idempotent.
func (c *Client) Apply(ctx context.Context, manifest string) error {
	decoder := yaml.NewYAMLOrJSONDecoder(strings.NewReader(manifest), 4096)

	for {
		var obj unstructured.Unstructured
		err := decoder.Decode(&obj)
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return fmt.Errorf("failed to decode manifest: %w", err)
		}
		if len(obj.Object) == 0 {
			continue
		}

		gvk := obj.GroupVersionKind()
		gvr := schema.GroupVersionResource{
			Group:    gvk.Group,
			Version:  gvk.Version,
			Resource: resourceForKind(gvk.Kind),
		}

		var iface dynamic.ResourceInterface = c.dynamic.Resource(gvr)
		if !clusterScopedResources[gvr.Resource] {
			namespace := obj.GetNamespace()
			if namespace == "" {
				namespace = "default"
			}
			iface = c.dynamic.Resource(gvr).Namespace(namespace)
		}

		if _, err := iface.Create(ctx, &obj, metav1.CreateOptions{}); err != nil {
			if _, err := iface.Update(ctx, &obj, metav1.UpdateOptions{}); err != nil {
				return fmt.Errorf("failed to apply resource %s/%s: %w", obj.GetKind(), obj.GetName(), err)
			}
		}
	}

	return nil
}

// CreateSecret creates or updates an opaque secret.
func (c *Client) CreateSecret(ctx context.Context, namespace, name string, data map[string][]byte) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Data: data,
		Type: corev1.SecretTypeOpaque,
	}

	_, err := c.clientset.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
	if err != nil {
		_, err = c.clientset.CoreV1().Secrets(namespace).Update(ctx, secret, metav1.UpdateOptions{})
		if err != nil {
			return fmt.Errorf("failed to create or update secret %s/%s: %w", namespace, name, err)
		}
	}
	return nil
}

// SecretExists reports whether the named secret exists.
func (c *Client) SecretExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get secret %s/%s: %w", namespace, name, err)
	}
	return true, nil
}

// ListNodes returns all nodes in the cluster.
func (c *Client) ListNodes(ctx context.Context) ([]corev1.Node, error) {
	nodeList, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodeList.Items, nil
}

// NodeRegistered reports whether a node with the given name exists.
func (c *Client) NodeRegistered(ctx context.Context, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get node %s: %w", name, err)
	}
	return true, nil
}

// GetPods returns pods matching a label selector in a namespace. An empty
// namespace lists across all namespaces.
func (c *Client) GetPods(ctx context.Context, namespace, labelSelector string) ([]corev1.Pod, error) {
	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	return podList.Items, nil
}

// clusterScopedResources lists the resources Apply must not namespace.
var clusterScopedResources = map[string]bool{
	"namespaces":                      true,
	"nodes":                           true,
	"clusterroles":                    true,
	"clusterrolebindings":             true,
	"storageclasses":                  true,
	"persistentvolumes":               true,
	"customresourcedefinitions":       true,
	"clusterissuers":                  true,
	"priorityclasses":                 true,
	"validatingwebhookconfigurations": true,
	"mutatingwebhookconfigurations":   true,
}

// resourceForKind maps a Kubernetes kind to its resource name.
// This is a simplified mapping for common resources.
func resourceForKind(kind string) string {
	switch kind {
	case "Deployment":
		return "deployments"
	case "Service":
		return "services"
	case "ConfigMap":
		return "configmaps"
	case "Secret":
		return "secrets"
	case "DaemonSet":
		return "daemonsets"
	case "StatefulSet":
		return "statefulsets"
	case "ServiceAccount":
		return "serviceaccounts"
	case "Role":
		return "roles"
	case "RoleBinding":
		return "rolebindings"
	case "ClusterRole":
		return "clusterroles"
	case "ClusterRoleBinding":
		return "clusterrolebindings"
	case "Namespace":
		return "namespaces"
	case "PersistentVolumeClaim":
		return "persistentvolumeclaims"
	case "PersistentVolume":
		return "persistentvolumes"
	case "StorageClass":
		return "storageclasses"
	case "Ingress":
		return "ingresses"
	case "NetworkPolicy":
		return "networkpolicies"
	case "ClusterIssuer":
		return "clusterissuers"
	case "Certificate":
		return "certificates"
	default:
		return strings.ToLower(kind) + "s"
	}
}
