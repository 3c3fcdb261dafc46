package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Instructor teaches one or more groups. UserID links to a login when the
// instructor has one.
type Instructor struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *string    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	Email       string     `gorm:"size:255" json:"email,omitempty"`
	Bio         string     `gorm:"type:text" json:"bio,omitempty"`
	Specialties StringList `gorm:"type:jsonb" json:"specialties"`
	Active      bool       `gorm:"not null" json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (i *Instructor) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Specialties == nil {
		i.Specialties = StringList{}
	}
	return nil
}

func (Instructor) TableName() string {
	return "instructors"
}

// InstructorRequest is used for both create and update
type InstructorRequest struct {
	UserID      *string  `json:"user_id" binding:"omitempty,uuid"`
	Name        string   `json:"name" binding:"required,max=200"`
	Email       string   `json:"email" binding:"omitempty,email"`
	Bio         string   `json:"bio" binding:"max=5000"`
	Specialties []string `json:"specialties"`
	Active      *bool    `json:"active"`
}
