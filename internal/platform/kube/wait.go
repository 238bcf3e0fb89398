package kube

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

const pollInterval = 5 * time.Second

// WaitForAPI waits for the API server to answer version queries.
func (c *Client) WaitForAPI(ctx context.Context, timeout time.Duration) error {
	return wait.PollImmediate(pollInterval, timeout, func() (bool, error) {
		if _, err := c.ServerVersion(); err != nil {
			return false, nil
		}
		return true, nil
	})
}

// WaitForNodeReady waits for the named node to report the Ready condition.
func (c *Client) WaitForNodeReady(ctx context.Context, name string, timeout time.Duration) error {
	return wait.PollImmediate(pollInterval, timeout, func() (bool, error) {
		node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		return IsNodeReady(node), nil
	})
}

// WaitForDeployment waits for a deployment to become ready.
func (c *Client) WaitForDeployment(ctx context.Context, namespace, name string, timeout time.Duration) error {
	return wait.PollImmediate(pollInterval, timeout, func() (bool, error) {
		deployment, err := c.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		return IsDeploymentReady(deployment), nil
	})
}

// WaitForDaemonSet waits for a daemonset to become ready on all nodes.
func (c *Client) WaitForDaemonSet(ctx context.Context, namespace, name string, timeout time.Duration) error {
	return wait.PollImmediate(pollInterval, timeout, func() (bool, error) {
		daemonSet, err := c.clientset.AppsV1().DaemonSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		return IsDaemonSetReady(daemonSet), nil
	})
}

// WaitForNamespaceGone waits for a deleted namespace to finish terminating.
func (c *Client) WaitForNamespaceGone(ctx context.Context, name string, timeout time.Duration) error {
	return wait.PollImmediate(pollInterval, timeout, func() (bool, error) {
		_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if isNotFound(err) {
				return true, nil
			}
			return false, nil
		}
		return false, nil
	})
}

// IsDeploymentReady checks if a deployment has all replicas updated and
// available.
func IsDeploymentReady(deployment *appsv1.Deployment) bool {
	if deployment.Spec.Replicas == nil {
		return false
	}
	if deployment.Status.UpdatedReplicas != *deployment.Spec.Replicas {
		return false
	}
	if deployment.Status.Replicas != *deployment.Spec.Replicas {
		return false
	}
	if deployment.Status.AvailableReplicas != *deployment.Spec.Replicas {
		return false
	}

	for _, condition := range deployment.Status.Conditions {
		if condition.Type == appsv1.DeploymentAvailable &&
			condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

// IsDaemonSetReady checks if a daemonset is scheduled and ready everywhere
// it should be.
func IsDaemonSetReady(daemonSet *appsv1.DaemonSet) bool {
	return daemonSet.Status.DesiredNumberScheduled > 0 &&
		daemonSet.Status.NumberReady == daemonSet.Status.DesiredNumberScheduled &&
		daemonSet.Status.NumberAvailable == daemonSet.Status.DesiredNumberScheduled
}

// IsNodeReady checks the node Ready condition.
func IsNodeReady(node *corev1.Node) bool {
	for _, condition := range node.Status.Conditions {
		if condition.Type == corev1.NodeReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}
