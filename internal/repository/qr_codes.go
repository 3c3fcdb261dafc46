package repository

import (
	"context"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

type QRCodeRepository interface {
	Create(ctx context.Context, code *models.SessionQRCode) error
	GetByID(ctx context.Context, id string) (*models.SessionQRCode, error)
	GetByToken(ctx context.Context, token string) (*models.SessionQRCode, error)
	IncrementUsage(ctx context.Context, id string) (bool, error)
	Deactivate(ctx context.Context, id string) error
	ListByGroup(ctx context.Context, groupID string) ([]models.SessionQRCode, error)
}

type GormQRCodeRepository struct {
	db *gorm.DB
}

func NewQRCodeRepository(db *gorm.DB) *GormQRCodeRepository {
	return &GormQRCodeRepository{db: db}
}

func (r *GormQRCodeRepository) Create(ctx context.Context, code *models.SessionQRCode) error {
	return translate(r.db.WithContext(ctx).Create(code).Error)
}

func (r *GormQRCodeRepository) GetByID(ctx context.Context, id string) (*models.SessionQRCode, error) {
	var code models.SessionQRCode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&code).Error; err != nil {
		return nil, translate(err)
	}
	return &code, nil
}

func (r *GormQRCodeRepository) GetByToken(ctx context.Context, token string) (*models.SessionQRCode, error) {
	var code models.SessionQRCode
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&code).Error; err != nil {
		return nil, translate(err)
	}
	return &code, nil
}

// IncrementUsage consumes one use of an active code. It reports false when
// the code was already at its limit, so concurrent scans can never push
// usage_count past max_usage.
func (r *GormQRCodeRepository) IncrementUsage(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.SessionQRCode{}).
		Where("id = ? AND active = ? AND usage_count < max_usage", id, true).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormQRCodeRepository) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.SessionQRCode{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormQRCodeRepository) ListByGroup(ctx context.Context, groupID string) ([]models.SessionQRCode, error) {
	var codes []models.SessionQRCode
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("created_at DESC").Find(&codes).Error
	return codes, translate(err)
}
