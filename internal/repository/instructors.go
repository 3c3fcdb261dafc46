package repository

import (
	"context"

	"gorm.io/gorm"

	"yogastudio/internal/models"
)

type InstructorRepository interface {
	Create(ctx context.Context, instructor *models.Instructor) error
	GetByID(ctx context.Context, id string) (*models.Instructor, error)
	List(ctx context.Context, activeOnly bool) ([]models.Instructor, error)
	Update(ctx context.Context, instructor *models.Instructor) error
	Delete(ctx context.Context, id string) error
}

type GormInstructorRepository struct {
	db *gorm.DB
}

func NewInstructorRepository(db *gorm.DB) *GormInstructorRepository {
	return &GormInstructorRepository{db: db}
}

func (r *GormInstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	return translate(r.db.WithContext(ctx).Create(instructor).Error)
}

func (r *GormInstructorRepository) GetByID(ctx context.Context, id string) (*models.Instructor, error) {
	var instructor models.Instructor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&instructor).Error; err != nil {
		return nil, translate(err)
	}
	return &instructor, nil
}

func (r *GormInstructorRepository) List(ctx context.Context, activeOnly bool) ([]models.Instructor, error) {
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var instructors []models.Instructor
	err := query.Order("name ASC").Find(&instructors).Error
	return instructors, translate(err)
}

func (r *GormInstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	return translate(r.db.WithContext(ctx).Save(instructor).Error)
}

// Delete removes the instructor and unassigns them from their groups
func (r *GormInstructorRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Group{}).Where("instructor_id = ?", id).Update("instructor_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Instructor{})
		if result.Error != nil {
			return translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
