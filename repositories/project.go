package repositories

import (
	"strings"

	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/models"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct{}

// NewProjectRepository creates a new project repository instance
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{}
}

// FindAll retrieves all projects
func (r *ProjectRepository) FindAll() ([]models.Project, error) {
	var projects []models.Project
	result := database.DB.Find(&projects)
	return projects, result.Error
}

// FindByUserID retrieves all projects owned by a user
func (r *ProjectRepository) FindByUserID(userID string) ([]models.Project, error) {
	var projects []models.Project
	result := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&projects)
	return projects, result.Error
}

// FindByID retrieves a project by its ID
func (r *ProjectRepository) FindByID(id string) (models.Project, error) {
	var project models.Project
	result := database.DB.First(&project, "id = ?", id)
	return project, result.Error
}

// FindBySlug retrieves a project by its URL slug
func (r *ProjectRepository) FindBySlug(slug string) (models.Project, error) {
	var project models.Project
	result := database.DB.First(&project, "slug = ?", slug)
	return project, result.Error
}

// FindByRepoURL resolves the project linked to a repository URL.
// Matching ignores a trailing ".git" and is case-insensitive, since
// code-hosting services are inconsistent about the canonical form.
func (r *ProjectRepository) FindByRepoURL(repoURL string) (models.Project, error) {
	normalized := strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git"))
	var project models.Project
	result := database.DB.
		Where("LOWER(TRIM(TRAILING '/' FROM TRIM(TRAILING '.git' FROM repo_url))) = ?", normalized).
		First(&project)
	return project, result.Error
}

// GetOwnerID returns the owning user id for a project
func (r *ProjectRepository) GetOwnerID(projectID string) (string, error) {
	var project models.Project
	result := database.DB.Select("user_id").First(&project, "id = ?", projectID)
	return project.UserID, result.Error
}

// Create inserts a new project into the database
func (r *ProjectRepository) Create(project models.Project) (models.Project, error) {
	result := database.DB.Create(&project)
	return project, result.Error
}

// Update saves changes to an existing project
func (r *ProjectRepository) Update(project models.Project) error {
	return database.DB.Save(&project).Error
}

// Delete soft-deletes a project
func (r *ProjectRepository) Delete(id string) error {
	return database.DB.Delete(&models.Project{}, "id = ?", id).Error
}
