package utils

import (
	corev1 "k8s.io/api/core/v1"
)

// GetNodeStatus reports Ready or NotReady from the node's conditions
func GetNodeStatus(node corev1.Node) string {
	for _, condition := range node.Status.Conditions {
		if condition.Type == corev1.NodeReady && condition.Status == corev1.ConditionTrue {
			return "Ready"
		}
	}
	return "NotReady"
}

// ExtractNodeRoles derives node roles from the well-known role labels.
// Nodes without any role label count as workers.
func ExtractNodeRoles(labels map[string]string) []string {
	roles := make([]string, 0)

	if _, ok := labels["node-role.kubernetes.io/master"]; ok {
		roles = append(roles, "master")
	}
	if _, ok := labels["node-role.kubernetes.io/control-plane"]; ok {
		roles = append(roles, "control-plane")
	}
	if _, ok := labels["node-role.kubernetes.io/worker"]; ok {
		roles = append(roles, "worker")
	}
	if role, ok := labels["kubernetes.io/role"]; ok {
		roles = append(roles, role)
	}

	if len(roles) == 0 {
		roles = append(roles, "worker")
	}
	return roles
}
