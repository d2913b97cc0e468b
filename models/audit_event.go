package models

import (
	"time"
)

// AuditEvent records a non-mutating platform event, e.g. a pull request
// being closed while its preview deployments keep running.
type AuditEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProjectID string    `json:"projectId" gorm:"type:uuid;index"`
	Action    string    `json:"action" gorm:"not null"`
	Detail    string    `json:"detail" gorm:"default:null"`
	CreatedAt time.Time `json:"createdAt"`
}
