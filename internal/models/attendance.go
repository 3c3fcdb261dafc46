package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceStatus represents how a user attended a session
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// CheckInMethod records how an attendance row was created
type CheckInMethod string

const (
	CheckInQR     CheckInMethod = "qr"
	CheckInManual CheckInMethod = "manual"
)

// Attendance is one user's presence at one session of a group. A user has at
// most one row per group per calendar day.
type Attendance struct {
	ID          string           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string           `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_group_date;index" json:"user_id"`
	GroupID     string           `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_group_date;index" json:"group_id"`
	SessionDate string           `gorm:"size:10;not null;uniqueIndex:idx_attendance_user_group_date;index" json:"session_date"`
	CheckedInAt time.Time        `gorm:"not null" json:"checked_in_at"`
	CheckOutAt  *time.Time       `json:"check_out_at,omitempty"`
	Status      AttendanceStatus `gorm:"size:20;not null" json:"status"`
	Method      CheckInMethod    `gorm:"size:20;not null" json:"method"`
	QRCodeID    *string          `gorm:"type:uuid" json:"qr_code_id,omitempty"`
	MarkedBy    *string          `gorm:"type:uuid" json:"marked_by,omitempty"`
	Notes       string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = AttendancePresent
	}
	if a.CheckedInAt.IsZero() {
		a.CheckedInAt = time.Now().UTC()
	}
	return nil
}

func (Attendance) TableName() string {
	return "attendance"
}

// ActualDuration is the time between check-in and check-out, zero while the
// user has not checked out
func (a *Attendance) ActualDuration() time.Duration {
	if a.CheckOutAt == nil || a.CheckOutAt.Before(a.CheckedInAt) {
		return 0
	}
	return a.CheckOutAt.Sub(a.CheckedInAt)
}

// MarkAttendanceRequest is the manual (staff) attendance payload
type MarkAttendanceRequest struct {
	UserID      string           `json:"user_id" binding:"required,uuid"`
	GroupID     string           `json:"group_id" binding:"required,uuid"`
	SessionDate string           `json:"session_date" binding:"required,datetime=2006-01-02"`
	Status      AttendanceStatus `json:"status" binding:"omitempty,oneof=present late excused absent"`
	Notes       string           `json:"notes" binding:"max=2000"`
}

// UpdateAttendanceRequest changes the mutable fields of an attendance row
type UpdateAttendanceRequest struct {
	Status     *AttendanceStatus `json:"status" binding:"omitempty,oneof=present late excused absent"`
	Notes      *string           `json:"notes" binding:"omitempty,max=2000"`
	CheckOutAt *time.Time        `json:"check_out_at"`
}
