package repositories

import (
	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/models"
)

// ManagedResourceRepository handles database operations for managed resources
type ManagedResourceRepository struct{}

// NewManagedResourceRepository creates a new managed resource repository instance
func NewManagedResourceRepository() *ManagedResourceRepository {
	return &ManagedResourceRepository{}
}

// FindByID retrieves a managed resource by its ID
func (r *ManagedResourceRepository) FindByID(id string) (models.ManagedResource, error) {
	var resource models.ManagedResource
	result := database.DB.First(&resource, "id = ?", id)
	return resource, result.Error
}

// FindByProjectID retrieves all resources owned by a project
func (r *ManagedResourceRepository) FindByProjectID(projectID string) ([]models.ManagedResource, error) {
	var resources []models.ManagedResource
	result := database.DB.Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&resources)
	return resources, result.Error
}

// FindByProjectAndName retrieves a resource by its per-project unique name
func (r *ManagedResourceRepository) FindByProjectAndName(projectID, name string) (models.ManagedResource, error) {
	var resource models.ManagedResource
	result := database.DB.Where("project_id = ? AND name = ?", projectID, name).First(&resource)
	return resource, result.Error
}

// CountByProjectID counts the resources a project currently owns
func (r *ManagedResourceRepository) CountByProjectID(projectID string) (int64, error) {
	var count int64
	result := database.DB.Model(&models.ManagedResource{}).
		Where("project_id = ?", projectID).Count(&count)
	return count, result.Error
}

// Create inserts a new managed resource
func (r *ManagedResourceRepository) Create(resource models.ManagedResource) (models.ManagedResource, error) {
	result := database.DB.Create(&resource)
	return resource, result.Error
}

// Update saves changes to an existing resource
func (r *ManagedResourceRepository) Update(resource models.ManagedResource) error {
	return database.DB.Save(&resource).Error
}

// Delete soft-deletes a managed resource row
func (r *ManagedResourceRepository) Delete(id string) error {
	return database.DB.Delete(&models.ManagedResource{}, "id = ?", id).Error
}
