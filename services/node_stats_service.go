package services

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/lib/kubernetes"
	"github.com/launchdeck-platform/utils"
)

// NodeStatsService reports cluster node capacity and utilization for the
// admin overview
type NodeStatsService struct{}

// NewNodeStatsService creates a new node stats service
func NewNodeStatsService() *NodeStatsService {
	return &NodeStatsService{}
}

// GetNodeStats returns statistics for every node in the cluster.
// Utilization fields stay zero when the metrics API is unavailable.
func (s *NodeStatsService) GetNodeStats(ctx context.Context) (dto.NodeStatsResponse, error) {
	kubeClient, err := kubernetes.NewClient()
	if err != nil {
		return dto.NodeStatsResponse{}, fmt.Errorf("failed to create Kubernetes client: %v", err)
	}

	nodes, err := kubeClient.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return dto.NodeStatsResponse{}, fmt.Errorf("failed to list nodes: %v", err)
	}

	nodeStats := make([]dto.NodeStats, 0, len(nodes.Items))
	for _, node := range nodes.Items {
		cpu := dto.NodeResource{Capacity: node.Status.Capacity.Cpu().String(), Usage: "0"}
		memory := dto.NodeResource{Capacity: node.Status.Capacity.Memory().String(), Usage: "0"}

		if kubeClient.MetricsClient != nil {
			metrics, err := kubeClient.MetricsClient.MetricsV1beta1().NodeMetricses().Get(ctx, node.Name, metav1.GetOptions{})
			if err == nil && metrics != nil {
				cpuMillis := metrics.Usage.Cpu().MilliValue()
				cpu.Usage = utils.FormatCPUCores(cpuMillis)
				cpu.Percentage = utils.CalculatePercentage(cpuMillis, node.Status.Capacity.Cpu().MilliValue())

				memoryBytes := metrics.Usage.Memory().Value()
				memory.Usage = utils.FormatBytesToHumanReadable(memoryBytes)
				memory.Percentage = utils.CalculatePercentage(memoryBytes, node.Status.Capacity.Memory().Value())
			}
		}

		nodeStats = append(nodeStats, dto.NodeStats{
			Name:           node.Name,
			Status:         utils.GetNodeStatus(node),
			Roles:          utils.ExtractNodeRoles(node.Labels),
			KubeletVersion: node.Status.NodeInfo.KubeletVersion,
			OSImage:        node.Status.NodeInfo.OSImage,
			CPU:            cpu,
			Memory:         memory,
		})
	}

	return dto.NodeStatsResponse{Nodes: nodeStats, Total: len(nodeStats)}, nil
}
