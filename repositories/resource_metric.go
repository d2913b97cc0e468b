package repositories

import (
	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/models"
)

// ResourceMetricRepository handles persisted utilization samples
type ResourceMetricRepository struct{}

// NewResourceMetricRepository creates a new resource metric repository instance
func NewResourceMetricRepository() *ResourceMetricRepository {
	return &ResourceMetricRepository{}
}

// Create persists one utilization sample
func (r *ResourceMetricRepository) Create(metric models.ResourceMetric) (models.ResourceMetric, error) {
	result := database.DB.Create(&metric)
	return metric, result.Error
}

// FindRecent returns the last n samples for a resource, newest first
func (r *ResourceMetricRepository) FindRecent(resourceID string, n int) ([]models.ResourceMetric, error) {
	var metrics []models.ResourceMetric
	result := database.DB.Where("resource_id = ?", resourceID).
		Order("sampled_at DESC").Limit(n).Find(&metrics)
	return metrics, result.Error
}
