package repositories

import (
	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/models"
)

// DeploymentRepository handles database operations for deployments
type DeploymentRepository struct{}

// NewDeploymentRepository creates a new deployment repository instance
func NewDeploymentRepository() *DeploymentRepository {
	return &DeploymentRepository{}
}

// FindByID retrieves a deployment by its ID
func (r *DeploymentRepository) FindByID(id string) (models.Deployment, error) {
	var deployment models.Deployment
	result := database.DB.First(&deployment, "id = ?", id)
	return deployment, result.Error
}

// FindByProjectID retrieves all deployments for a project, newest first
func (r *DeploymentRepository) FindByProjectID(projectID string) ([]models.Deployment, error) {
	var deployments []models.Deployment
	result := database.DB.Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&deployments)
	return deployments, result.Error
}

// Create inserts a new deployment into the database
func (r *DeploymentRepository) Create(deployment models.Deployment) (models.Deployment, error) {
	result := database.DB.Create(&deployment)
	return deployment, result.Error
}

// Update saves changes to an existing deployment
func (r *DeploymentRepository) Update(deployment models.Deployment) error {
	return database.DB.Save(&deployment).Error
}

// GetLatestDeployment retrieves the most recent deployment for a project branch
func (r *DeploymentRepository) GetLatestDeployment(projectID, branch string) (models.Deployment, error) {
	var deployment models.Deployment
	result := database.DB.Where("project_id = ? AND branch = ?", projectID, branch).
		Order("created_at DESC").First(&deployment)
	return deployment, result.Error
}

// CountActiveByProjectBranch counts non-terminal deployments for a project branch
func (r *DeploymentRepository) CountActiveByProjectBranch(projectID, branch string) (int64, error) {
	var count int64
	result := database.DB.Model(&models.Deployment{}).
		Where("project_id = ? AND branch = ? AND status IN ?", projectID, branch,
			[]models.DeploymentStatus{
				models.DeploymentStatusQueued,
				models.DeploymentStatusBuilding,
				models.DeploymentStatusDeploying,
			}).
		Count(&count)
	return count, result.Error
}
