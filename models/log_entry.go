package models

import (
	"time"
)

// LogLevel represents the severity of a build/deploy log line
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarn    LogLevel = "warn"
	LogLevelError   LogLevel = "error"
	LogLevelSuccess LogLevel = "success"
)

// LogEntry is one append-only line of build/deploy output.
// Sequence is strictly increasing per deployment and is the
// resumption cursor for streaming clients.
type LogEntry struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	DeploymentID string    `json:"deploymentId" gorm:"type:uuid;not null;uniqueIndex:idx_deployment_sequence"`
	Sequence     int64     `json:"sequence" gorm:"not null;uniqueIndex:idx_deployment_sequence"`
	Level        LogLevel  `json:"level" gorm:"type:varchar(10);default:'info'"`
	Message      string    `json:"message" gorm:"not null"`
	Timestamp    time.Time `json:"timestamp"`
}
