package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderType identifies how far ahead of a session a reminder goes out
type ReminderType string

const (
	Reminder24Hour ReminderType = "24hr"
	Reminder1Hour  ReminderType = "1hr"
)

// ReminderLog tracks which reminders have been sent to avoid duplicates. There
// is at most one row per group, occurrence and type.
type ReminderLog struct {
	ID           string       `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID      string       `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_once" json:"group_id"`
	SessionDate  string       `gorm:"size:40;not null;uniqueIndex:idx_reminder_once" json:"session_date"`
	ReminderType ReminderType `gorm:"size:10;not null;uniqueIndex:idx_reminder_once" json:"reminder_type"`
	Recipients   int          `gorm:"not null;default:0" json:"recipients"`
	SentAt       time.Time    `gorm:"not null" json:"sent_at"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SentAt.IsZero() {
		r.SentAt = time.Now().UTC()
	}
	return nil
}

func (ReminderLog) TableName() string {
	return "reminder_logs"
}

// SessionKey formats an occurrence the way the reminder log stores it
func SessionKey(occurrence time.Time) string {
	return occurrence.UTC().Format(time.RFC3339)
}
