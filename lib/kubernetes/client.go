// Package kubernetes wraps the cluster clients the substrate uses.
// Access goes through kubectl proxy, so the REST config carries no
// credentials of its own.
package kubernetes

import (
	"fmt"
	"log"
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
)

const defaultProxyHost = "http://localhost:8001"

// Client bundles the core clientset with the metrics clientset.
// MetricsClient is nil when the metrics API is unavailable; callers
// degrade to running/not-running stats.
type Client struct {
	Clientset     *kubernetes.Clientset
	MetricsClient *metricsclient.Clientset
}

// NewClient creates a client for the proxy address in K8S_PROXY_URL,
// falling back to the local kubectl proxy default.
func NewClient() (*Client, error) {
	host := os.Getenv("K8S_PROXY_URL")
	if host == "" {
		host = defaultProxyHost
	}

	config := &rest.Config{
		Host:            host,
		TLSClientConfig: rest.TLSClientConfig{Insecure: true},
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %v", err)
	}

	metrics, err := metricsclient.NewForConfig(config)
	if err != nil {
		log.Printf("Warning: unable to create metrics client: %v", err)
		metrics = nil
	}

	return &Client{Clientset: clientset, MetricsClient: metrics}, nil
}
