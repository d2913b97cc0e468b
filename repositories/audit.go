package repositories

import (
	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/models"
)

// AuditRepository handles database operations for audit trail entries
type AuditRepository struct{}

// NewAuditRepository creates a new audit repository instance
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Create inserts a new audit event
func (r *AuditRepository) Create(event models.AuditEvent) (models.AuditEvent, error) {
	result := database.DB.Create(&event)
	return event, result.Error
}

// FindByProjectID retrieves audit events for a project, newest first
func (r *AuditRepository) FindByProjectID(projectID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	result := database.DB.Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&events)
	return events, result.Error
}
