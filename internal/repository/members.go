package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

type MemberRepository interface {
	Add(ctx context.Context, member *models.GroupMember) error
	Get(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	ListByGroup(ctx context.Context, groupID string, status models.MemberStatus) ([]models.GroupMember, error)
	ListActiveUserIDs(ctx context.Context, groupID string) ([]string, error)
	CountActive(ctx context.Context, groupID string) (int64, error)
	UpdateStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) error
	Remove(ctx context.Context, groupID, userID string) error
	RecordAttendance(ctx context.Context, groupID, userID string, at time.Time) error
}

type GormMemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

func (r *GormMemberRepository) Add(ctx context.Context, member *models.GroupMember) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(member).Error)
}

func (r *GormMemberRepository) Get(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

// ListByGroup returns memberships with their users; an empty status lists all
func (r *GormMemberRepository) ListByGroup(ctx context.Context, groupID string, status models.MemberStatus) ([]models.GroupMember, error) {
	query := r.db.WithContext(ctx).Preload("User").Where("group_id = ?", groupID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var members []models.GroupMember
	err := query.Order("joined_at ASC").Find(&members).Error
	return members, translate(err)
}

func (r *GormMemberRepository) ListActiveUserIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberActive).
		Pluck("user_id", &ids).Error
	return ids, translate(err)
}

func (r *GormMemberRepository) CountActive(ctx context.Context, groupID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberActive).
		Count(&n).Error
	return n, err
}

func (r *GormMemberRepository) UpdateStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) error {
	result := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("status", status)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormMemberRepository) Remove(ctx context.Context, groupID, userID string) error {
	result := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordAttendance bumps the running attendance counter of a membership
func (r *GormMemberRepository) RecordAttendance(ctx context.Context, groupID, userID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Updates(map[string]interface{}{
			"attendance_count": gorm.Expr("attendance_count + 1"),
			"last_attended":    at,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
