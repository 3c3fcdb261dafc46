package repository

import (
	"context"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

// GroupFilter narrows a group listing
type GroupFilter struct {
	Active       *bool
	Level        models.Level
	Style        string
	InstructorID string
	Name         string
	Page
}

type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	List(ctx context.Context, filter GroupFilter) ([]models.Group, int64, error)
	ListSchedulable(ctx context.Context) ([]models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type GormGroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

func (r *GormGroupRepository) Create(ctx context.Context, group *models.Group) error {
	return translate(r.db.WithContext(ctx).Omit("Instructor").Create(group).Error)
}

func (r *GormGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload("Instructor").Where("id = ?", id).First(&group).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (r *GormGroupRepository) List(ctx context.Context, filter GroupFilter) ([]models.Group, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Group{})

	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.Style != "" {
		query = query.Where("style = ?", filter.Style)
	}
	if filter.InstructorID != "" {
		query = query.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Name))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var groups []models.Group
	err := query.Preload("Instructor").Order("name ASC").Limit(page.Limit).Offset(page.Offset).Find(&groups).Error
	return groups, total, translate(err)
}

// ListSchedulable returns every active group. Whether a schedule has ended is
// decided by the caller, which knows the group's time zone.
func (r *GormGroupRepository) ListSchedulable(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Where("active = ?", true).Find(&groups).Error
	return groups, translate(err)
}

func (r *GormGroupRepository) Update(ctx context.Context, group *models.Group) error {
	return translate(r.db.WithContext(ctx).Omit("Instructor").Save(group).Error)
}

// Delete removes a group together with its memberships
func (r *GormGroupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Group{})
		if result.Error != nil {
			return translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormGroupRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Group{}).Where("active = ?", true).Count(&n).Error
	return n, err
}
