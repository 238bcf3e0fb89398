package kube

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
)

// DeleteNamespace deletes a namespace. A missing namespace is not an error.
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	err := c.clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete namespace %s: %w", name, err)
	}
	return nil
}

// ForceFinalizeNamespace clears the finalizers of a namespace stuck in
// Terminating so the API server can drop it.
func (c *Client) ForceFinalizeNamespace(ctx context.Context, name string) error {
	ns, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to get namespace %s: %w", name, err)
	}

	ns.Spec.Finalizers = nil
	if _, err := c.clientset.CoreV1().Namespaces().Finalize(ctx, ns, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to finalize namespace %s: %w", name, err)
	}
	return nil
}

// StripFinalizers removes finalizers from every object of the given
// resource in a namespace. Used on resources whose controllers are already
// gone during teardown.
func (c *Client) StripFinalizers(ctx context.Context, gvr schema.GroupVersionResource, namespace string) error {
	items, err := c.ExportList(ctx, gvr, namespace)
	if err != nil {
		return err
	}

	patch := []byte(`{"metadata":{"finalizers":null}}`)
	for _, obj := range items {
		if len(obj.GetFinalizers()) == 0 {
			continue
		}
		_, err := c.dynamic.Resource(gvr).Namespace(namespace).
			Patch(ctx, obj.GetName(), types.MergePatchType, patch, metav1.PatchOptions{})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to strip finalizers from %s/%s: %w", gvr.Resource, obj.GetName(), err)
		}
	}
	return nil
}

// CordonNode marks a node unschedulable.
func (c *Client) CordonNode(ctx context.Context, name string) error {
	node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get node %s: %w", name, err)
	}
	if node.Spec.Unschedulable {
		return nil
	}

	node.Spec.Unschedulable = true
	if _, err := c.clientset.CoreV1().Nodes().Update(ctx, node, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to cordon node %s: %w", name, err)
	}
	return nil
}

// DrainNode cordons the node and deletes its pods, skipping daemonset and
// mirror pods, then waits for them to disappear.
func (c *Client) DrainNode(ctx context.Context, name string, timeout time.Duration) error {
	if err := c.CordonNode(ctx, name); err != nil {
		return err
	}

	pods, err := c.podsOnNode(ctx, name)
	if err != nil {
		return err
	}
	for _, pod := range pods {
		err := c.clientset.CoreV1().Pods(pod.Namespace).Delete(ctx, pod.Name, metav1.DeleteOptions{})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete pod %s/%s: %w", pod.Namespace, pod.Name, err)
		}
	}

	return wait.PollImmediate(pollInterval, timeout, func() (bool, error) {
		remaining, err := c.podsOnNode(ctx, name)
		if err != nil {
			return false, nil
		}
		return len(remaining) == 0, nil
	})
}

// DeleteNode removes a node object from the API. A missing node is not an
// error.
func (c *Client) DeleteNode(ctx context.Context, name string) error {
	err := c.clientset.CoreV1().Nodes().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete node %s: %w", name, err)
	}
	return nil
}

// podsOnNode lists the pods bound to a node that a drain should evict.
func (c *Client) podsOnNode(ctx context.Context, name string) ([]corev1.Pod, error) {
	podList, err := c.clientset.CoreV1().Pods("").List(ctx, metav1.ListOptions{
		FieldSelector: "spec.nodeName=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods on node %s: %w", name, err)
	}

	var pods []corev1.Pod
	for _, pod := range podList.Items {
		if isDaemonSetPod(&pod) || isMirrorPod(&pod) {
			continue
		}
		if pod.Status.Phase == corev1.PodSucceeded || pod.Status.Phase == corev1.PodFailed {
			continue
		}
		pods = append(pods, pod)
	}
	return pods, nil
}

func isDaemonSetPod(pod *corev1.Pod) bool {
	for _, ref := range pod.OwnerReferences {
		if ref.Kind == "DaemonSet" {
			return true
		}
	}
	return false
}

func isMirrorPod(pod *corev1.Pod) bool {
	_, ok := pod.Annotations[corev1.MirrorPodAnnotationKey]
	return ok
}

func isNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}
