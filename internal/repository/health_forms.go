package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

type HealthFormRepository interface {
	Create(ctx context.Context, form *models.HealthForm) error
	GetByID(ctx context.Context, id string) (*models.HealthForm, error)
	ListForUser(ctx context.Context, userID string) ([]models.HealthForm, error)
	List(ctx context.Context, status models.HealthFormStatus, page Page) ([]models.HealthForm, int64, error)
	MarkReviewed(ctx context.Context, id, reviewerID, notes string, at time.Time) error
}

type GormHealthFormRepository struct {
	db *gorm.DB
}

func NewHealthFormRepository(db *gorm.DB) *GormHealthFormRepository {
	return &GormHealthFormRepository{db: db}
}

func (r *GormHealthFormRepository) Create(ctx context.Context, form *models.HealthForm) error {
	return translate(r.db.WithContext(ctx).Create(form).Error)
}

func (r *GormHealthFormRepository) GetByID(ctx context.Context, id string) (*models.HealthForm, error) {
	var form models.HealthForm
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&form).Error; err != nil {
		return nil, translate(err)
	}
	return &form, nil
}

func (r *GormHealthFormRepository) ListForUser(ctx context.Context, userID string) ([]models.HealthForm, error) {
	var forms []models.HealthForm
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("submitted_at DESC").Find(&forms).Error
	return forms, translate(err)
}

func (r *GormHealthFormRepository) List(ctx context.Context, status models.HealthFormStatus, page Page) ([]models.HealthForm, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.HealthForm{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	var forms []models.HealthForm
	err := query.Order("submitted_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&forms).Error
	return forms, total, translate(err)
}

func (r *GormHealthFormRepository) MarkReviewed(ctx context.Context, id, reviewerID, notes string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.HealthForm{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.HealthFormReviewed,
		"review_notes": notes,
		"reviewed_by":  reviewerID,
		"reviewed_at":  at,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
