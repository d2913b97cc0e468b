package dto

import (
	"time"

	"github.com/launchdeck-platform/models"
)

// DeploymentSummary is the compact deployment shape returned by the
// webhook and trigger endpoints
type DeploymentSummary struct {
	ID        string                  `json:"id"`
	ProjectID string                  `json:"projectId"`
	Status    models.DeploymentStatus `json:"status"`
	Branch    string                  `json:"branch"`
	CommitSHA string                  `json:"commitSha"`
	IsPreview bool                    `json:"isPreview"`
	URL       string                  `json:"url"`
	CreatedAt time.Time               `json:"createdAt"`
}

// NewDeploymentSummary builds the summary from a model
func NewDeploymentSummary(d models.Deployment) DeploymentSummary {
	return DeploymentSummary{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		Status:    d.Status,
		Branch:    d.Branch,
		CommitSHA: d.CommitSHA,
		IsPreview: d.IsPreview,
		URL:       d.URL,
		CreatedAt: d.CreatedAt,
	}
}

// StatusUpdateRequest is the build executor's callback payload
type StatusUpdateRequest struct {
	Status   string `json:"status" binding:"required"`
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}

// TriggerDeployRequest is the manual trigger payload
type TriggerDeployRequest struct {
	Branch        string `json:"branch" binding:"required"`
	CommitSHA     string `json:"commitSha" binding:"required"`
	CommitMessage string `json:"commitMessage"`
	Author        string `json:"author"`
	IsPreview     bool   `json:"isPreview"`
	PRNumber      int    `json:"prNumber"`
}

// ExecutorDispatch is the request handed to the external build executor
type ExecutorDispatch struct {
	DeploymentID string `json:"deploymentId"`
	ProjectID    string `json:"projectId"`
	RepoURL      string `json:"repoUrl"`
	Branch       string `json:"branch"`
	CommitSHA    string `json:"commitSha"`
	CallbackURL  string `json:"callbackUrl"`
}
