// Package repository holds one storage interface per entity and their GORM
// implementations.
package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique index
	ErrDuplicate = errors.New("record already exists")
)

// Store bundles every repository over one connection or transaction
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Instructors   InstructorRepository
	Groups        GroupRepository
	Members       MemberRepository
	Attendance    AttendanceRepository
	QRCodes       QRCodeRepository
	ReminderLogs  ReminderLogRepository
	HealthForms   HealthFormRepository
	Notifications NotificationRepository
}

// NewStore wires all repositories to db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Instructors:   NewInstructorRepository(db),
		Groups:        NewGroupRepository(db),
		Members:       NewMemberRepository(db),
		Attendance:    NewAttendanceRepository(db),
		QRCodes:       NewQRCodeRepository(db),
		ReminderLogs:  NewReminderLogRepository(db),
		HealthForms:   NewHealthFormRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// DB exposes the underlying connection (health checks)
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a Store bound to a single database transaction.
// Returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// translate maps driver errors onto the package sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// Page bounds a list query
type Page struct {
	Limit  int
	Offset int
}

// Normalize applies the default and maximum page sizes
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
