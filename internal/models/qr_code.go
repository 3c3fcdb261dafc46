package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRStatus is the derived state of a session QR code
type QRStatus string

const (
	QRActive    QRStatus = "active"
	QRExpired   QRStatus = "expired"
	QRExhausted QRStatus = "exhausted"
	QRInactive  QRStatus = "inactive"
)

// Geofence is a circular region a scan must come from
type Geofence struct {
	Enabled      bool    `json:"enabled"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

func (g Geofence) Value() (driver.Value, error) {
	return valueJSON(g)
}

func (g *Geofence) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, g, "Geofence")
}

// SessionQRCode is a scannable token admitting members to one session of a group
type SessionQRCode struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Token       string    `gorm:"size:64;not null;uniqueIndex" json:"token"`
	GroupID     string    `gorm:"type:uuid;not null;index" json:"group_id"`
	SessionDate string    `gorm:"size:10;not null" json:"session_date"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	UsageCount  int       `gorm:"not null;default:0" json:"usage_count"`
	MaxUsage    int       `gorm:"not null" json:"max_usage"`
	Active      bool      `gorm:"not null" json:"active"`
	Geofence    Geofence  `gorm:"type:jsonb" json:"geofence"`
	CreatedBy   *string   `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (q *SessionQRCode) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

func (SessionQRCode) TableName() string {
	return "session_qr_codes"
}

// IsValid reports whether the code can still be scanned at now
func (q *SessionQRCode) IsValid(now time.Time) bool {
	return q.Status(now) == QRActive
}

// Status derives the code state at now
func (q *SessionQRCode) Status(now time.Time) QRStatus {
	switch {
	case !q.Active:
		return QRInactive
	case !now.Before(q.ExpiresAt):
		return QRExpired
	case q.UsageCount >= q.MaxUsage:
		return QRExhausted
	default:
		return QRActive
	}
}

// RemainingUses returns how many scans are left, never negative
func (q *SessionQRCode) RemainingUses() int {
	if q.UsageCount >= q.MaxUsage {
		return 0
	}
	return q.MaxUsage - q.UsageCount
}

// GenerateQRRequest is the payload for creating a session QR code
type GenerateQRRequest struct {
	GroupID     string    `json:"group_id" binding:"required,uuid"`
	SessionDate string    `json:"session_date" binding:"omitempty,datetime=2006-01-02"`
	TTLMinutes  int       `json:"ttl_minutes" binding:"omitempty,min=1,max=1440"`
	MaxUsage    int       `json:"max_usage" binding:"omitempty,min=1"`
	Geofence    *Geofence `json:"geofence"`
}

// ScanRequest is the payload a member's device sends after scanning
type ScanRequest struct {
	Token     string   `json:"token" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

// QRCodeView is a code plus its derived state
type QRCodeView struct {
	SessionQRCode
	Status        QRStatus `json:"status"`
	IsValid       bool     `json:"is_valid"`
	RemainingUses int      `json:"remaining_uses"`
}

// NewQRCodeView computes derived fields at now
func NewQRCodeView(q *SessionQRCode, now time.Time) QRCodeView {
	return QRCodeView{
		SessionQRCode: *q,
		Status:        q.Status(now),
		IsValid:       q.IsValid(now),
		RemainingUses: q.RemainingUses(),
	}
}
