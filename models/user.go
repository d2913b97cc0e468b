package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role gates access to the admin-only endpoints
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a platform account. Email is the login identity; Username and
// Name are optional profile fields.
type User struct {
	ID        string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"` // bcrypt hash, never serialized
	Username  *string        `json:"username" gorm:"default:null;uniqueIndex"`
	Name      *string        `json:"name" gorm:"default:null"`
	Role      Role           `json:"role" gorm:"type:varchar(10);default:'user'"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the id when the database default is unavailable
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
