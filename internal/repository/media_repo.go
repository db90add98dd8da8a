package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/models"
)

// MediaRepository persists course media records.
type MediaRepository interface {
	Create(ctx context.Context, record *models.MediaRecord) error
	ListByCourse(ctx context.Context, courseID uint) ([]models.MediaRecord, error)
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository constructs a repository backed by GORM.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, record *models.MediaRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *mediaRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.MediaRecord, error) {
	var records []models.MediaRecord
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
