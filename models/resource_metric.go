package models

import (
	"time"
)

// ResourceMetric is one persisted utilization sample for a managed resource.
// The metrics endpoint returns the last 24 samples alongside live stats.
type ResourceMetric struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ResourceID    string    `json:"resourceId" gorm:"type:uuid;not null;index"`
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryUsedMB  float64   `json:"memoryUsedMb"`
	MemoryLimitMB float64   `json:"memoryLimitMb"`
	DiskReadMB    float64   `json:"diskReadMb"`
	DiskWriteMB   float64   `json:"diskWriteMb"`
	SampledAt     time.Time `json:"sampledAt"`
}
