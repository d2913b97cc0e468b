package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeploymentStatus represents the lifecycle state of a deployment
type DeploymentStatus string

const (
	DeploymentStatusQueued    DeploymentStatus = "QUEUED"
	DeploymentStatusBuilding  DeploymentStatus = "BUILDING"
	DeploymentStatusDeploying DeploymentStatus = "DEPLOYING"
	DeploymentStatusReady     DeploymentStatus = "READY"
	DeploymentStatusError     DeploymentStatus = "ERROR"
	DeploymentStatusCancelled DeploymentStatus = "CANCELLED"
)

// statusRank orders statuses so transitions never move backward
var statusRank = map[DeploymentStatus]int{
	DeploymentStatusQueued:    0,
	DeploymentStatusBuilding:  1,
	DeploymentStatusDeploying: 2,
	DeploymentStatusReady:     3,
	DeploymentStatusError:     3,
	DeploymentStatusCancelled: 3,
}

// IsValidDeploymentStatus reports whether s is one of the known statuses
func IsValidDeploymentStatus(s DeploymentStatus) bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether s is a terminal status
func (s DeploymentStatus) IsTerminal() bool {
	return s == DeploymentStatusReady || s == DeploymentStatusError || s == DeploymentStatusCancelled
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle monotonic
func (s DeploymentStatus) CanTransitionTo(next DeploymentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return statusRank[next] >= statusRank[s]
}

// Deployment represents one attempt to build and publish a project at a commit
type Deployment struct {
	ID            string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProjectID     string           `json:"projectId" gorm:"type:uuid;not null;index"`
	Status        DeploymentStatus `json:"status" gorm:"type:varchar(20);default:'QUEUED'"`
	Branch        string           `json:"branch" gorm:"not null"`
	CommitSHA     string           `json:"commitSha" gorm:"type:varchar(12)"`
	CommitMessage string           `json:"commitMessage" gorm:"type:varchar(100)"`
	Author        string           `json:"author" gorm:"default:null"`
	IsPreview     bool             `json:"isPreview" gorm:"default:false"`
	PRNumber      int              `json:"prNumber" gorm:"default:0"`
	URL           string           `json:"url" gorm:"default:null"`
	Duration      int              `json:"duration" gorm:"default:0"` // seconds, set once terminal
	CreatedAt     time.Time        `json:"createdAt"`
	FinishedAt    *time.Time       `json:"finishedAt" gorm:"default:null"`

	// Relations
	Project Project    `json:"project,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Logs    []LogEntry `json:"logs,omitempty" gorm:"foreignKey:DeploymentID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns the id when the database default is unavailable
func (d *Deployment) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
