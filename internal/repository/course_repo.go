package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// CourseRepository persists mentor-authored courses.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (models.Course, error)
	// Transition moves the course along one publication edge. The update only
	// lands while the row still sits in one of the expected source states; a
	// zero-row result surfaces as ErrStateConflict with the row loaded for
	// error reporting.
	Transition(ctx context.Context, id uint, fromStates []string, updates map[string]interface{}) (models.Course, error)
	UpdateDraft(ctx context.Context, id uint, updates map[string]interface{}) (models.Course, error)
	SetCoverURL(ctx context.Context, id uint, url string) error
	SoftDelete(ctx context.Context, id uint) error
	ListByMentor(ctx context.Context, mentorID uint) ([]models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a repository backed by GORM.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) Transition(ctx context.Context, id uint, fromStates []string, updates map[string]interface{}) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Course{}).
			Where("id = ? AND status IN ? AND is_active = ?", id, fromStates, true).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&course, id).Error; err != nil {
				return err
			}
			return ErrStateConflict
		}
		return tx.First(&course, id).Error
	})
	if err != nil {
		return course, err
	}
	return course, nil
}

func (r *courseRepository) UpdateDraft(ctx context.Context, id uint, updates map[string]interface{}) (models.Course, error) {
	return r.Transition(ctx, id, []string{models.CourseStatusDraft}, updates)
}

func (r *courseRepository) SetCoverURL(ctx context.Context, id uint, url string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("cover_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) SoftDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) ListByMentor(ctx context.Context, mentorID uint) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("mentor_id = ? AND is_active = ?", mentorID, true).
		Order("updated_at DESC").
		Find(&courses).Error
	return courses, err
}
