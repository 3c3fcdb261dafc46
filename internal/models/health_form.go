package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HealthFormStatus tracks whether staff have looked at an intake form
type HealthFormStatus string

const (
	HealthFormSubmitted HealthFormStatus = "submitted"
	HealthFormReviewed  HealthFormStatus = "reviewed"
)

// HealthForm is a member's health intake questionnaire. Answers holds
// free-form questionnaire fields that vary between form revisions.
type HealthForm struct {
	ID                    string           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Conditions            StringList       `gorm:"type:jsonb" json:"conditions"`
	Injuries              string           `gorm:"type:text" json:"injuries,omitempty"`
	Medications           string           `gorm:"type:text" json:"medications,omitempty"`
	Pregnant              bool             `gorm:"not null;default:false" json:"pregnant"`
	EmergencyContactName  string           `gorm:"size:200" json:"emergency_contact_name"`
	EmergencyContactPhone string           `gorm:"size:30" json:"emergency_contact_phone"`
	Answers               datatypes.JSON   `gorm:"type:jsonb" json:"answers,omitempty"`
	Consent               bool             `gorm:"not null" json:"consent"`
	Status                HealthFormStatus `gorm:"size:20;not null;index" json:"status"`
	ReviewNotes           string           `gorm:"type:text" json:"review_notes,omitempty"`
	ReviewedBy            *string          `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt            *time.Time       `json:"reviewed_at,omitempty"`
	SubmittedAt           time.Time        `gorm:"not null;index" json:"submitted_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

func (h *HealthForm) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Status == "" {
		h.Status = HealthFormSubmitted
	}
	if h.SubmittedAt.IsZero() {
		h.SubmittedAt = time.Now().UTC()
	}
	if h.Conditions == nil {
		h.Conditions = StringList{}
	}
	return nil
}

func (HealthForm) TableName() string {
	return "health_forms"
}

// HealthFormRequest is what a member submits
type HealthFormRequest struct {
	Conditions            []string       `json:"conditions"`
	Injuries              string         `json:"injuries" binding:"max=5000"`
	Medications           string         `json:"medications" binding:"max=5000"`
	Pregnant              bool           `json:"pregnant"`
	EmergencyContactName  string         `json:"emergency_contact_name" binding:"required,max=200"`
	EmergencyContactPhone string         `json:"emergency_contact_phone" binding:"required,max=30"`
	Answers               datatypes.JSON `json:"answers"`
	Consent               bool           `json:"consent"`
}

// ReviewHealthFormRequest is what staff send when reviewing
type ReviewHealthFormRequest struct {
	Notes string `json:"notes" binding:"max=5000"`
}
