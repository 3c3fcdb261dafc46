package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

// AttendanceFilter narrows an attendance listing. Dates are inclusive
// YYYY-MM-DD bounds.
type AttendanceFilter struct {
	UserID   string
	GroupID  string
	FromDate string
	ToDate   string
	Status   models.AttendanceStatus
	Page
}

type AttendanceRepository interface {
	Create(ctx context.Context, attendance *models.Attendance) error
	GetByID(ctx context.Context, id string) (*models.Attendance, error)
	Exists(ctx context.Context, userID, groupID, sessionDate string) (bool, error)
	List(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, int64, error)
	Update(ctx context.Context, attendance *models.Attendance) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type GormAttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	return &GormAttendanceRepository{db: db}
}

// Create inserts a record; a second record for the same user, group and
// session date yields ErrDuplicate.
func (r *GormAttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	return translate(r.db.WithContext(ctx).Create(attendance).Error)
}

func (r *GormAttendanceRepository) GetByID(ctx context.Context, id string) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attendance).Error; err != nil {
		return nil, translate(err)
	}
	return &attendance, nil
}

func (r *GormAttendanceRepository) Exists(ctx context.Context, userID, groupID, sessionDate string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("user_id = ? AND group_id = ? AND session_date = ?", userID, groupID, sessionDate).
		Count(&n).Error
	return n > 0, err
}

func (r *GormAttendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Attendance{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.GroupID != "" {
		query = query.Where("group_id = ?", filter.GroupID)
	}
	if filter.FromDate != "" {
		query = query.Where("session_date >= ?", filter.FromDate)
	}
	if filter.ToDate != "" {
		query = query.Where("session_date <= ?", filter.ToDate)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var records []models.Attendance
	err := query.Order("session_date DESC, checked_in_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&records).Error
	return records, total, translate(err)
}

func (r *GormAttendanceRepository) Update(ctx context.Context, attendance *models.Attendance) error {
	return translate(r.db.WithContext(ctx).Save(attendance).Error)
}

func (r *GormAttendanceRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Attendance{}).Where("checked_in_at >= ?", since).Count(&n).Error
	return n, err
}
