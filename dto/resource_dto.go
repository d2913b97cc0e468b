package dto

import (
	"time"

	"github.com/launchdeck-platform/models"
)

// CreateResourceRequest is the provisioning payload
type CreateResourceRequest struct {
	Name    string                `json:"name" binding:"required"`
	Engine  models.ResourceEngine `json:"engine" binding:"required"`
	Plan    models.PlanTier       `json:"plan"`
	Region  string                `json:"region"`
	Version string                `json:"version"`
}

// ResourceResponse is the managed resource shape with credentials stripped
type ResourceResponse struct {
	ID             string                `json:"id"`
	ProjectID      string                `json:"projectId"`
	Name           string                `json:"name"`
	Engine         models.ResourceEngine `json:"engine"`
	Status         models.ResourceStatus `json:"status"`
	Plan           models.PlanTier       `json:"plan"`
	Region         string                `json:"region"`
	Version        string                `json:"version"`
	Port           int                   `json:"port"`
	ConnLimit      int                   `json:"connLimit"`
	StorageLimitMB int64                 `json:"storageLimitMb"`
	StorageUsedMB  int64                 `json:"storageUsedMb"`
	LastError      string                `json:"lastError,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// NewResourceResponse strips credential fields from a resource model
func NewResourceResponse(r models.ManagedResource) ResourceResponse {
	return ResourceResponse{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		Name:           r.Name,
		Engine:         r.Engine,
		Status:         r.Status,
		Plan:           r.Plan,
		Region:         r.Region,
		Version:        r.Version,
		Port:           r.Port,
		ConnLimit:      r.ConnLimit,
		StorageLimitMB: r.StorageLimitMB,
		StorageUsedMB:  r.StorageUsedMB,
		LastError:      r.LastError,
		CreatedAt:      r.CreatedAt,
	}
}

// CreatedResourceResponse additionally carries the generated credentials.
// This is the only place credentials ever leave the service.
type CreatedResourceResponse struct {
	ResourceResponse
	Username string `json:"username"`
	Password string `json:"password"`
}

// InstanceStats is a point-in-time utilization snapshot from the substrate
type InstanceStats struct {
	Running       bool    `json:"running"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryUsedMB  float64 `json:"memoryUsedMb"`
	MemoryLimitMB float64 `json:"memoryLimitMb"`
	DiskReadMB    float64 `json:"diskReadMb"`
	DiskWriteMB   float64 `json:"diskWriteMb"`
}

// ResourceStatsResponse combines live stats with persisted history
type ResourceStatsResponse struct {
	Live    InstanceStats           `json:"live"`
	History []models.ResourceMetric `json:"history"`
}
