package kubernetes

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DeleteNamespace removes a project namespace. Foreground propagation
// cascades onto every instance the namespace still holds.
func (c *Client) DeleteNamespace(ctx context.Context, namespace string) error {
	policy := metav1.DeletePropagationForeground
	err := c.Clientset.CoreV1().Namespaces().Delete(ctx, namespace, metav1.DeleteOptions{
		PropagationPolicy: &policy,
	})
	if err != nil {
		return fmt.Errorf("failed to delete namespace %s: %w", namespace, err)
	}
	return nil
}

// NamespaceExists reports whether the namespace exists in the cluster
func (c *Client) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	_, err := c.Clientset.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking namespace %s: %w", namespace, err)
	}
	return true, nil
}
