package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

// UserFilter narrows a user listing
type UserFilter struct {
	Role   models.Role
	Active *bool
	Query  string
	Page
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
	AddDeviceToken(ctx context.Context, id, token string) error
	RemoveDeviceTokens(ctx context.Context, id string, tokens []string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var users []models.User
	err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&users).Error
	return users, total, translate(err)
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *GormUserRepository) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddDeviceToken appends token to the user's list unless it is already there
func (r *GormUserRepository) AddDeviceToken(ctx context.Context, id, token string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "device_tokens").Where("id = ?", id).First(&user).Error; err != nil {
			return translate(err)
		}
		if user.DeviceTokens.Contains(token) {
			return nil
		}
		tokens := append(user.DeviceTokens, token)
		return tx.Model(&models.User{}).Where("id = ?", id).Update("device_tokens", tokens).Error
	})
}

// RemoveDeviceTokens drops every token in tokens from the user's list
func (r *GormUserRepository) RemoveDeviceTokens(ctx context.Context, id string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "device_tokens").Where("id = ?", id).First(&user).Error; err != nil {
			return translate(err)
		}
		kept := models.StringList{}
		for _, t := range user.DeviceTokens {
			if !drop[t] {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(user.DeviceTokens) {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", id).Update("device_tokens", kept).Error
	})
}

func (r *GormUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("active = ?", true).Count(&n).Error
	return n, err
}
