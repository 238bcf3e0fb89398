package verify

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

func getDeployment(ctx context.Context, reader client.Reader, namespace, name string) (*appsv1.Deployment, error) {
	var deployment appsv1.Deployment
	if err := reader.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

func getDaemonSet(ctx context.Context, reader client.Reader, namespace, name string) (*appsv1.DaemonSet, error) {
	var daemonSet appsv1.DaemonSet
	if err := reader.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, &daemonSet); err != nil {
		return nil, err
	}
	return &daemonSet, nil
}
