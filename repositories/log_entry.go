package repositories

import (
	"database/sql"

	"github.com/launchdeck-platform/database"
	"github.com/launchdeck-platform/models"
)

// LogEntryRepository handles database operations for deployment log lines
type LogEntryRepository struct{}

// NewLogEntryRepository creates a new log entry repository instance
func NewLogEntryRepository() *LogEntryRepository {
	return &LogEntryRepository{}
}

// Create inserts a new log entry. Entries are append-only.
func (r *LogEntryRepository) Create(entry models.LogEntry) (models.LogEntry, error) {
	result := database.DB.Create(&entry)
	return entry, result.Error
}

// FindFromSequence retrieves log entries at or past a cursor, in sequence order
func (r *LogEntryRepository) FindFromSequence(deploymentID string, from int64) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	result := database.DB.Where("deployment_id = ? AND sequence >= ?", deploymentID, from).
		Order("sequence ASC").Find(&entries)
	return entries, result.Error
}

// NextSequence returns the sequence number the next entry should carry.
// It derives from the highest stored sequence rather than the row count,
// so the cursor stays correct even if the stored sequences ever gap.
func (r *LogEntryRepository) NextSequence(deploymentID string) (int64, error) {
	var max sql.NullInt64
	result := database.DB.Model(&models.LogEntry{}).
		Where("deployment_id = ?", deploymentID).
		Select("MAX(sequence)").Scan(&max)
	if result.Error != nil {
		return 0, result.Error
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64 + 1, nil
}
