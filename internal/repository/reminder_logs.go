package repository

import (
	"context"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

type ReminderLogRepository interface {
	Exists(ctx context.Context, groupID, sessionKey string, kind models.ReminderType) (bool, error)
	Create(ctx context.Context, log *models.ReminderLog) error
}

type GormReminderLogRepository struct {
	db *gorm.DB
}

func NewReminderLogRepository(db *gorm.DB) *GormReminderLogRepository {
	return &GormReminderLogRepository{db: db}
}

func (r *GormReminderLogRepository) Exists(ctx context.Context, groupID, sessionKey string, kind models.ReminderType) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("group_id = ? AND session_date = ? AND reminder_type = ?", groupID, sessionKey, kind).
		Count(&n).Error
	return n > 0, err
}

// Create records a sent reminder; ErrDuplicate means another run got there first
func (r *GormReminderLogRepository) Create(ctx context.Context, log *models.ReminderLog) error {
	return translate(r.db.WithContext(ctx).Create(log).Error)
}
