package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanTier represents the subscription plan of a project
type PlanTier string

const (
	PlanFree       PlanTier = "free"
	PlanPro        PlanTier = "pro"
	PlanEnterprise PlanTier = "enterprise"
)

// Project represents a linked repository that can be deployed
type Project struct {
	ID               string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name             string         `json:"name" gorm:"not null"`
	Slug             string         `json:"slug" gorm:"uniqueIndex;not null"`
	RepoURL          string         `json:"repoUrl" gorm:"uniqueIndex;not null"`
	ProductionBranch string         `json:"productionBranch" gorm:"default:main"`
	Plan             PlanTier       `json:"plan" gorm:"type:varchar(20);default:'free'"`
	UserID           string         `json:"userId" gorm:"type:uuid;not null;index"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User        User              `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Deployments []Deployment      `json:"deployments,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Resources   []ManagedResource `json:"resources,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns the id when the database default is unavailable
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
