package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/imamik/kubelift/internal/config"
	"github.com/imamik/kubelift/internal/platform/kube"
)

// CloudProber is the cloud API slice the infrastructure checks read
// through.
type CloudProber interface {
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)
}

// HostProber answers whether a host is reachable over SSH.
type HostProber interface {
	Reachable(ctx context.Context, node config.NodeConfig) bool
}

// Battery builds the check list for one cluster. Nil collaborators degrade
// the affected checks instead of crashing: without a kubeconfig every
// API-backed check fails, without a cloud token or SSH key the
// infrastructure checks warn that they were skipped.
type Battery struct {
	Cfg *config.Config

	// Reader serves typed and unstructured reads from the cluster API.
	Reader client.Reader
	// ServerVersion asks the API server for its version string.
	ServerVersion func() (string, error)

	Cloud CloudProber
	Hosts HostProber
}

// Checks returns the battery in its fixed declaration order.
func (b *Battery) Checks() []Check {
	return []Check{
		{Name: "kube-api", Category: CategoryControlPlane, Quick: true, Run: b.checkAPI},
		{Name: "nodes-ready", Category: CategoryNodes, Quick: true, Run: b.checkNodes},
		{Name: "coredns", Category: CategoryControlPlane, Quick: true, Run: b.checkCoreDNS},
		{Name: "cni", Category: CategoryNetwork, Quick: true, Run: b.checkCNI},
		{Name: "storage", Category: CategoryStorage, Run: b.checkStorage},
		{Name: "ingress", Category: CategoryNetwork, Run: b.checkIngress},
		{Name: "cert-manager", Category: CategoryAddons, Run: b.checkCertManager},
		{Name: "certificates", Category: CategoryAddons, Run: b.checkCertificates},
		{Name: "observability", Category: CategoryAddons, Run: b.checkObservability},
		{Name: "app-platform", Category: CategoryAddons, Run: b.checkAppPlatform},
		{Name: "workload-hygiene", Category: CategoryWorkloads, Run: b.checkWorkloads},
		{Name: "unbound-pvcs", Category: CategoryStorage, Run: b.checkPVCs},
		{Name: "cloud-servers", Category: CategoryInfrastructure, Run: b.checkCloudServers},
		{Name: "ssh-reachability", Category: CategoryInfrastructure, Run: b.checkSSH},
	}
}

func (b *Battery) checkAPI(_ context.Context) (Status, string) {
	if b.ServerVersion == nil {
		return StatusFail, "no kubeconfig available"
	}
	version, err := b.ServerVersion()
	if err != nil {
		return StatusFail, fmt.Sprintf("API server unreachable: %v", err)
	}
	return StatusPass, "server version " + version
}

func (b *Battery) checkNodes(ctx context.Context) (Status, string) {
	if b.Reader == nil {
		return StatusFail, "no kubeconfig available"
	}

	var nodes corev1.NodeList
	if err := b.Reader.List(ctx, &nodes); err != nil {
		return StatusFail, fmt.Sprintf("failed to list nodes: %v", err)
	}

	expected := len(b.Cfg.Nodes)
	ready := 0
	var notReady []string
	for i := range nodes.Items {
		if kube.IsNodeReady(&nodes.Items[i]) {
			ready++
		} else {
			notReady = append(notReady, nodes.Items[i].Name)
		}
	}

	detail := fmt.Sprintf("%d/%d nodes ready", ready, expected)
	switch {
	case ready == 0:
		return StatusFail, detail
	case ready < expected || len(notReady) > 0:
		return StatusWarn, detail + ", not ready: " + strings.Join(notReady, ", ")
	default:
		return StatusPass, detail
	}
}

func (b *Battery) checkCoreDNS(ctx context.Context) (Status, string) {
	return b.deploymentCheck(ctx, "kube-system", "coredns", StatusFail)
}

func (b *Battery) checkCNI(ctx context.Context) (Status, string) {
	if b.Reader == nil {
		return StatusFail, "no kubeconfig available"
	}

	ds, err := getDaemonSet(ctx, b.Reader, "kube-system", "cilium")
	if apierrors.IsNotFound(err) {
		return StatusFail, "cilium daemonset not found"
	}
	if err != nil {
		return StatusFail, fmt.Sprintf("failed to read cilium daemonset: %v", err)
	}
	if !kube.IsDaemonSetReady(ds) {
		return StatusWarn, fmt.Sprintf("cilium ready on %d/%d nodes",
			ds.Status.NumberReady, ds.Status.DesiredNumberScheduled)
	}
	return StatusPass, fmt.Sprintf("cilium ready on %d nodes", ds.Status.NumberReady)
}

func (b *Battery) checkStorage(ctx context.Context) (Status, string) {
	if !b.Cfg.Addons.Storage.Enabled {
		return StatusPass, "disabled"
	}
	if b.Reader == nil {
		return StatusFail, "no kubeconfig available"
	}

	ds, err := getDaemonSet(ctx, b.Reader, "longhorn-system", "longhorn-manager")
	if apierrors.IsNotFound(err) {
		return StatusFail, "longhorn-manager not found"
	}
	if err != nil {
		return StatusFail, fmt.Sprintf("failed to read longhorn-manager: %v", err)
	}
	if !kube.IsDaemonSetReady(ds) {
		return StatusWarn, fmt.Sprintf("longhorn-manager ready on %d/%d nodes",
			ds.Status.NumberReady, ds.Status.DesiredNumberScheduled)
	}

	var classes storagev1.StorageClassList
	if err := b.Reader.List(ctx, &classes); err != nil {
		return StatusWarn, fmt.Sprintf("failed to list storage classes: %v", err)
	}
	for _, sc := range classes.Items {
		if sc.Annotations["storageclass.kubernetes.io/is-default-class"] == "true" {
			return StatusPass, "longhorn ready, default storage class " + sc.Name
		}
	}
	return StatusWarn, "longhorn ready but no default storage class set"
}

func (b *Battery) checkIngress(ctx context.Context) (Status, string) {
	if !b.Cfg.Addons.Ingress.Enabled {
		return StatusPass, "disabled"
	}
	return b.deploymentCheck(ctx, "ingress-nginx", "ingress-nginx-controller", StatusFail)
}

func (b *Battery) checkCertManager(ctx context.Context) (Status, string) {
	if !b.Cfg.Addons.CertManager.Enabled {
		return StatusPass, "disabled"
	}
	return b.deploymentCheck(ctx, "cert-manager", "cert-manager", StatusWarn)
}

func (b *Battery) checkCertificates(ctx context.Context) (Status, string) {
	if !b.Cfg.Addons.CertManager.Enabled {
		return StatusPass, "disabled"
	}
	if b.Reader == nil {
		return StatusWarn, "no kubeconfig available"
	}

	certs := &unstructured.UnstructuredList{}
	certs.SetGroupVersionKind(schema.GroupVersionKind{
		Group: "cert-manager.io", Version: "v1", Kind: "CertificateList",
	})
	if err := b.Reader.List(ctx, certs); err != nil {
		return StatusWarn, fmt.Sprintf("failed to list certificates: %v", err)
	}
	if len(certs.Items) == 0 {
		return StatusPass, "no certificates requested"
	}

	var notReady []string
	for _, cert := range certs.Items {
		if !certificateReady(&cert) {
			notReady = append(notReady, cert.GetNamespace()+"/"+cert.GetName())
		}
	}
	if len(notReady) > 0 {
		return StatusWarn, "certificates not ready: " + strings.Join(notReady, ", ")
	}
	return StatusPass, fmt.Sprintf("%d certificates ready", len(certs.Items))
}

func (b *Battery) checkObservability(ctx context.Context) (Status, string) {
	if !b.Cfg.Addons.Monitoring.Enabled {
		return StatusPass, "disabled"
	}
	return b.deploymentCheck(ctx, "monitoring", "kube-prometheus-stack-operator", StatusWarn)
}

func (b *Battery) checkAppPlatform(ctx context.Context) (Status, string) {
	if !b.Cfg.Addons.ArgoCD.Enabled {
		return StatusPass, "disabled"
	}

	status, detail := b.deploymentCheck(ctx, "argocd", "argocd-server", StatusWarn)
	if status != StatusPass {
		return status, detail
	}
	if b.Cfg.Addons.ArgoCD.RepoURL == "" {
		return StatusPass, detail
	}

	app := &unstructured.Unstructured{}
	app.SetGroupVersionKind(schema.GroupVersionKind{
		Group: "argoproj.io", Version: "v1alpha1", Kind: "Application",
	})
	if err := b.Reader.Get(ctx, client.ObjectKey{Namespace: "argocd", Name: "root"}, app); err != nil {
		return StatusWarn, fmt.Sprintf("root application not readable: %v", err)
	}
	sync, _, _ := unstructured.NestedString(app.Object, "status", "sync", "status")
	if sync != "Synced" {
		return StatusWarn, "root application sync status: " + orUnknown(sync)
	}
	return StatusPass, "argocd ready, root application synced"
}

func (b *Battery) checkWorkloads(ctx context.Context) (Status, string) {
	if b.Reader == nil {
		return StatusWarn, "no kubeconfig available"
	}

	var pods corev1.PodList
	if err := b.Reader.List(ctx, &pods); err != nil {
		return StatusWarn, fmt.Sprintf("failed to list pods: %v", err)
	}

	pending, crashing := 0, 0
	for i := range pods.Items {
		pod := &pods.Items[i]
		if pod.Status.Phase == corev1.PodPending {
			pending++
		}
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.State.Waiting != nil && cs.State.Waiting.Reason == "CrashLoopBackOff" {
				crashing++
				break
			}
		}
	}

	if pending > 0 || crashing > 0 {
		return StatusWarn, fmt.Sprintf("%d pending, %d crash-looping pods", pending, crashing)
	}
	return StatusPass, fmt.Sprintf("%d pods healthy", len(pods.Items))
}

func (b *Battery) checkPVCs(ctx context.Context) (Status, string) {
	if b.Reader == nil {
		return StatusWarn, "no kubeconfig available"
	}

	var pvcs corev1.PersistentVolumeClaimList
	if err := b.Reader.List(ctx, &pvcs); err != nil {
		return StatusWarn, fmt.Sprintf("failed to list persistent volume claims: %v", err)
	}

	var unbound []string
	for i := range pvcs.Items {
		if pvcs.Items[i].Status.Phase != corev1.ClaimBound {
			unbound = append(unbound, pvcs.Items[i].Namespace+"/"+pvcs.Items[i].Name)
		}
	}
	if len(unbound) > 0 {
		return StatusWarn, "unbound claims: " + strings.Join(unbound, ", ")
	}
	return StatusPass, fmt.Sprintf("%d claims bound", len(pvcs.Items))
}

func (b *Battery) checkCloudServers(ctx context.Context) (Status, string) {
	if b.Cloud == nil {
		return StatusWarn, "cloud token not set, check skipped"
	}

	var missing, notRunning []string
	for _, node := range b.Cfg.Nodes {
		server, err := b.Cloud.GetServerByName(ctx, node.Name)
		if err != nil {
			return StatusFail, fmt.Sprintf("cloud API error: %v", err)
		}
		switch {
		case server == nil:
			missing = append(missing, node.Name)
		case server.Status != hcloud.ServerStatusRunning:
			notRunning = append(notRunning, fmt.Sprintf("%s (%s)", node.Name, server.Status))
		}
	}

	if len(missing) > 0 {
		return StatusFail, "servers missing: " + strings.Join(missing, ", ")
	}
	if len(notRunning) > 0 {
		return StatusWarn, "servers not running: " + strings.Join(notRunning, ", ")
	}
	return StatusPass, fmt.Sprintf("%d servers running", len(b.Cfg.Nodes))
}

func (b *Battery) checkSSH(ctx context.Context) (Status, string) {
	if b.Hosts == nil {
		return StatusWarn, "SSH key not configured, check skipped"
	}

	var unreachable []string
	for _, node := range b.Cfg.Nodes {
		if !b.Hosts.Reachable(ctx, node) {
			unreachable = append(unreachable, node.Name)
		}
	}
	if len(unreachable) > 0 {
		return StatusWarn, "unreachable hosts: " + strings.Join(unreachable, ", ")
	}
	return StatusPass, fmt.Sprintf("%d hosts reachable", len(b.Cfg.Nodes))
}

// deploymentCheck reads one deployment and classifies its readiness.
// absentStatus determines whether a missing or unreadable deployment is a
// fail (required component) or a warn (optional component).
func (b *Battery) deploymentCheck(ctx context.Context, namespace, name string, absentStatus Status) (Status, string) {
	if b.Reader == nil {
		return absentStatus, "no kubeconfig available"
	}

	deployment, err := getDeployment(ctx, b.Reader, namespace, name)
	if apierrors.IsNotFound(err) {
		return absentStatus, name + " not found"
	}
	if err != nil {
		return absentStatus, fmt.Sprintf("failed to read %s: %v", name, err)
	}
	if !kube.IsDeploymentReady(deployment) {
		return StatusWarn, fmt.Sprintf("%s: %d/%d replicas ready",
			name, deployment.Status.ReadyReplicas, deployment.Status.Replicas)
	}
	return StatusPass, fmt.Sprintf("%s ready (%d replicas)", name, deployment.Status.ReadyReplicas)
}

func certificateReady(cert *unstructured.Unstructured) bool {
	conditions, _, _ := unstructured.NestedSlice(cert.Object, "status", "conditions")
	for _, c := range conditions {
		cond, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if cond["type"] == "Ready" && cond["status"] == "True" {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
