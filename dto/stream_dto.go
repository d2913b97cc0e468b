package dto

import (
	"time"

	"github.com/launchdeck-platform/models"
)

// Wire event names for the live stream endpoint
const (
	StreamEventConnected = "connected"
	StreamEventLog       = "log"
	StreamEventStep      = "step"
	StreamEventComplete  = "complete"
)

// ConnectedPayload is sent once when a viewer attaches
type ConnectedPayload struct {
	DeploymentID string                  `json:"deploymentId"`
	Status       models.DeploymentStatus `json:"status"`
}

// LogPayload is one streamed log line
type LogPayload struct {
	ID        int64           `json:"id"`
	Level     models.LogLevel `json:"level"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// StepPayload is a derived progress event, emitted only when status changes
type StepPayload struct {
	Status   models.DeploymentStatus `json:"status"`
	Label    string                  `json:"label"`
	Progress int                     `json:"progress"`
}

// CompletePayload carries the terminal state and publish URL
type CompletePayload struct {
	Status   models.DeploymentStatus `json:"status"`
	URL      string                  `json:"url,omitempty"`
	Duration int                     `json:"duration,omitempty"`
}

// stepTable is the fixed status -> (label, progress) mapping
var stepTable = map[models.DeploymentStatus]StepPayload{
	models.DeploymentStatusQueued:    {Label: "Queued", Progress: 0},
	models.DeploymentStatusBuilding:  {Label: "Building", Progress: 30},
	models.DeploymentStatusDeploying: {Label: "Deploying", Progress: 70},
	models.DeploymentStatusReady:     {Label: "Ready", Progress: 100},
	models.DeploymentStatusError:     {Label: "Failed", Progress: 0},
	models.DeploymentStatusCancelled: {Label: "Cancelled", Progress: 0},
}

// StepForStatus derives the progress event for a status
func StepForStatus(status models.DeploymentStatus) StepPayload {
	step, ok := stepTable[status]
	if !ok {
		step = StepPayload{Label: string(status)}
	}
	step.Status = status
	return step
}
