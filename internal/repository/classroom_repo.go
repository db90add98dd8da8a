package repository

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// ClassroomRepository persists academies and their master membership.
type ClassroomRepository interface {
	// CreateWithMaster inserts the classroom and its active master membership
	// in one transaction so the one-master invariant holds from birth.
	CreateWithMaster(ctx context.Context, classroom *models.Classroom) error
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	GetBySlug(ctx context.Context, slug string) (models.Classroom, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Classroom, error)
	ListIDsByMaster(ctx context.Context, masterID uint) ([]uint, error)
	Deactivate(ctx context.Context, id uint) error
	UniqueSlug(ctx context.Context, base string) (string, error)
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository constructs a repository backed by GORM.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) CreateWithMaster(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(classroom).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		membership := models.ClassroomMembership{
			UserID:      classroom.MasterID,
			ClassroomID: classroom.ID,
			Role:        models.MembershipRoleMaster,
			Status:      models.MembershipStatusActive,
			JoinedAt:    &now,
		}
		return tx.Create(&membership).Error
	})
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (r *classroomRepository) GetBySlug(ctx context.Context, slug string) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).Where("custom_slug = ?", slug).First(&classroom).Error; err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (r *classroomRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Classroom, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var classrooms []models.Classroom
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND is_active = ?", true, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepository) ListIDsByMaster(ctx context.Context, masterID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Where("master_id = ? AND is_active = ?", masterID, true).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *classroomRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
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

var slugSuffixPattern = func(base string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `-(\d+)$`)
}

// UniqueSlug returns base unchanged when free, otherwise base-N with the
// smallest N above every existing numeric suffix.
func (r *classroomRepository) UniqueSlug(ctx context.Context, base string) (string, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Where("custom_slug = ?", base).
		Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}

	var slugs []string
	if err := r.db.WithContext(ctx).
		Model(&models.Classroom{}).
		Where("custom_slug = ? OR custom_slug LIKE ?", base, base+"-%").
		Pluck("custom_slug", &slugs).Error; err != nil {
		return "", err
	}

	pattern := slugSuffixPattern(base)
	maxSuffix := 1
	for _, slug := range slugs {
		if match := pattern.FindStringSubmatch(slug); len(match) == 2 {
			if n, err := strconv.Atoi(match[1]); err == nil && n > maxSuffix {
				maxSuffix = n
			}
		}
	}

	return fmt.Sprintf("%s-%d", base, maxSuffix+1), nil
}
