package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role represents what a user is allowed to do in the studio
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleMember     Role = "member"
)

// IsStaff reports whether the role may manage sessions and attendance
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleInstructor
}

// User represents a studio account
type User struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FirstName    string     `gorm:"size:100" json:"first_name"`
	LastName     string     `gorm:"size:100" json:"last_name"`
	Phone        string     `gorm:"size:30" json:"phone,omitempty"`
	Role         Role       `gorm:"size:20;not null;default:member;index" json:"role"`
	DeviceTokens StringList `gorm:"type:jsonb" json:"-"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook is called before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.DeviceTokens == nil {
		u.DeviceTokens = StringList{}
	}
	return nil
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// RegisterRequest represents the data needed to create a new account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=30"`
}

// LoginRequest represents the data needed for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest carries optional profile changes
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Role      *Role   `json:"role" binding:"omitempty,oneof=admin instructor member"`
	Active    *bool   `json:"active"`
}

// DeviceTokenRequest registers or removes a push token
type DeviceTokenRequest struct {
	Token string `json:"token" binding:"required,max=4096"`
}
