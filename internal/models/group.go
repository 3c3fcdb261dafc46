package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Level represents the experience a group is pitched at
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelAll          Level = "all"
)

// LocationType tells whether a group meets in the studio or online
type LocationType string

const (
	LocationStudio LocationType = "studio"
	LocationOnline LocationType = "online"
)

// DateLayout is the calendar day format used for schedule dates and session dates
const DateLayout = "2006-01-02"

// Schedule is a weekly recurrence rule. Days hold weekday names, times are
// wall-clock HH:MM in Timezone and dates are YYYY-MM-DD. EndDate is optional
// and inclusive.
type Schedule struct {
	Days      []string `json:"days" binding:"required,min=1"`
	StartTime string   `json:"start_time" binding:"required"`
	EndTime   string   `json:"end_time"`
	StartDate string   `json:"start_date" binding:"required"`
	EndDate   string   `json:"end_date,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
}

func (s Schedule) Value() (driver.Value, error) {
	return valueJSON(s)
}

func (s *Schedule) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, s, "Schedule")
}

// Location represents where a group meets, either a studio room resolved with
// Google Maps data or an online meeting link
type Location struct {
	Type             LocationType `json:"type" binding:"omitempty,oneof=studio online"`
	Name             string       `json:"name,omitempty"`
	FormattedAddress string       `json:"formatted_address,omitempty"`
	PlaceID          string       `json:"place_id,omitempty"`
	Latitude         float64      `json:"latitude,omitempty"`
	Longitude        float64      `json:"longitude,omitempty"`
	OnlineLink       string       `json:"online_link,omitempty" binding:"omitempty,url"`
}

// Implement driver.Valuer for JSONB storage
func (l Location) Value() (driver.Value, error) {
	return valueJSON(l)
}

// Implement sql.Scanner for JSONB retrieval
func (l *Location) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, l, "Location")
}

// HasCoordinates reports whether the location carries a usable geo point
func (l Location) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// Group represents a recurring class in the studio
type Group struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	Style        string    `gorm:"size:50" json:"style,omitempty"`
	Level        Level     `gorm:"size:20;not null" json:"level"`
	Capacity     int       `gorm:"not null" json:"capacity"`
	InstructorID *string   `gorm:"type:uuid;index" json:"instructor_id,omitempty"`
	Active       bool      `gorm:"not null;index" json:"active"`
	Schedule     Schedule  `gorm:"type:jsonb;not null" json:"schedule"`
	Location     Location  `gorm:"type:jsonb" json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Instructor *Instructor `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Level == "" {
		g.Level = LevelAll
	}
	return nil
}

func (Group) TableName() string {
	return "groups"
}

// GroupRequest represents the data needed to create or replace a group
type GroupRequest struct {
	Name         string   `json:"name" binding:"required,max=200"`
	Description  string   `json:"description" binding:"max=5000"`
	Style        string   `json:"style" binding:"max=50"`
	Level        Level    `json:"level" binding:"omitempty,oneof=beginner intermediate advanced all"`
	Capacity     int      `json:"capacity" binding:"required,min=1"`
	InstructorID *string  `json:"instructor_id" binding:"omitempty,uuid"`
	Active       *bool    `json:"active"`
	Schedule     Schedule `json:"schedule" binding:"required"`
	Location     Location `json:"location"`
}

// MemberStatus represents a user's relationship to a group
type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
	MemberPaused   MemberStatus = "paused"
)

// GroupMember represents a user's membership in a group
type GroupMember struct {
	ID              string       `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID         string       `gorm:"type:uuid;not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID          string       `gorm:"type:uuid;not null;uniqueIndex:idx_group_member;index" json:"user_id"`
	Status          MemberStatus `gorm:"size:20;not null;index" json:"status"`
	AttendanceCount int          `gorm:"not null;default:0" json:"attendance_count"`
	LastAttended    *time.Time   `json:"last_attended,omitempty"`
	JoinedAt        time.Time    `gorm:"not null" json:"joined_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MemberActive
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}

func (GroupMember) TableName() string {
	return "group_members"
}

// AddMemberRequest adds a user to a group; members may omit the user id to join themselves
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// UpdateMemberRequest changes a membership status
type UpdateMemberRequest struct {
	Status MemberStatus `json:"status" binding:"required,oneof=active inactive paused"`
}
