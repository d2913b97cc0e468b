package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/launchdeck-platform/config"
	"github.com/launchdeck-platform/dto"
)

// HTTPBuildExecutor dispatches build jobs to the external build executor
// over HTTP. The executor reports progress back through the status
// callback endpoint; nothing here waits for build completion.
type HTTPBuildExecutor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBuildExecutor reads the executor endpoint from the environment
func NewHTTPBuildExecutor() *HTTPBuildExecutor {
	return &HTTPBuildExecutor{
		baseURL: config.GetEnv("BUILD_EXECUTOR_URL", "http://localhost:9090"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Dispatch submits one build job and returns once the executor accepts it
func (e *HTTPBuildExecutor) Dispatch(ctx context.Context, job dto.ExecutorDispatch) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/build", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("executor unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("executor rejected build job: %s", resp.Status)
	}
	return nil
}
