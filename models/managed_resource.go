package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResourceEngine is the database engine backing a managed resource
type ResourceEngine string

const (
	EnginePostgreSQL ResourceEngine = "postgresql"
	EngineMySQL      ResourceEngine = "mysql"
	EngineRedis      ResourceEngine = "redis"
	EngineMongoDB    ResourceEngine = "mongodb"
)

// ResourceStatus represents the lifecycle state of a managed resource
type ResourceStatus string

const (
	ResourceStatusProvisioning ResourceStatus = "provisioning"
	ResourceStatusActive       ResourceStatus = "active"
	ResourceStatusError        ResourceStatus = "error"
	ResourceStatusDeleting     ResourceStatus = "deleting"
)

// ManagedResource represents an isolated database instance owned by a project.
// Credentials are generated once at provisioning time and never change.
type ManagedResource struct {
	ID             string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProjectID      string         `json:"projectId" gorm:"type:uuid;not null;uniqueIndex:idx_project_resource_name"`
	Name           string         `json:"name" gorm:"not null;uniqueIndex:idx_project_resource_name"`
	Engine         ResourceEngine `json:"engine" gorm:"type:varchar(20);not null"`
	Status         ResourceStatus `json:"status" gorm:"type:varchar(20);default:'provisioning'"`
	Plan           PlanTier       `json:"plan" gorm:"type:varchar(20);default:'free'"`
	Region         string         `json:"region" gorm:"default:null"`
	Version        string         `json:"version" gorm:"default:null"`
	Username       string         `json:"username" gorm:"not null"`
	Password       string         `json:"-" gorm:"not null"` // never exposed in listings
	Port           int            `json:"port" gorm:"default:0"`
	ConnLimit      int            `json:"connLimit" gorm:"default:20"`
	StorageLimitMB int64          `json:"storageLimitMb" gorm:"default:1024"`
	StorageUsedMB  int64          `json:"storageUsedMb" gorm:"default:0"`
	LastError      string         `json:"lastError" gorm:"default:null"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Project Project `json:"project,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns the id when the database default is unavailable
func (r *ManagedResource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
